package ports

import (
	"context"

	"github.com/tendrilhq/tendril/pkg/domain"
)

// SessionStore defines the persistence contract for per-contact conversation
// progress. Each call must be atomic with respect to a single session row;
// cross-call serialization is the session manager's concern, not the store's.
type SessionStore interface {
	// Get retrieves the active session for a (user, contact) pair.
	// Returns domain.ErrSessionNotFound if none exists.
	Get(ctx context.Context, userID, contact string) (*domain.Session, error)

	// Create persists a new session. The store assigns ID and timestamps if
	// they are unset.
	Create(ctx context.Context, session *domain.Session) (*domain.Session, error)

	// Update applies a partial patch to the session row and returns the
	// updated session. Returns domain.ErrSessionNotFound if the row is gone.
	Update(ctx context.Context, sessionID string, patch domain.SessionPatch) (*domain.Session, error)

	// Delete removes the session. Deleting an absent session is not an error.
	Delete(ctx context.Context, sessionID string) error
}
