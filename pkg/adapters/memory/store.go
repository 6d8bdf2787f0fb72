package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendrilhq/tendril/pkg/domain"
	"github.com/tendrilhq/tendril/pkg/ports"
)

// Store implements ports.SessionStore in memory.
// Safe for concurrent use; the reference adapter for tests and single-node
// deployments.
type Store struct {
	mu     sync.RWMutex
	byID   map[string]*domain.Session
	byPair map[string]string // user/contact -> session ID
}

var _ ports.SessionStore = (*Store)(nil)

// NewStore creates a new in-memory session store.
func NewStore() *Store {
	return &Store{
		byID:   make(map[string]*domain.Session),
		byPair: make(map[string]string),
	}
}

func pairKey(userID, contact string) string {
	return userID + "/" + contact
}

// Get retrieves the active session for a (user, contact) pair.
func (s *Store) Get(ctx context.Context, userID, contact string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byPair[pairKey(userID, contact)]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return cloneSession(s.byID[id]), nil
}

// Create persists a new session, assigning ID and timestamps when unset.
func (s *Store) Create(ctx context.Context, sess *domain.Session) (*domain.Session, error) {
	stored := cloneSession(sess)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := time.Now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	if stored.Variables == nil {
		stored.Variables = make(map[string]any)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[stored.ID] = stored
	s.byPair[pairKey(stored.UserID, stored.Contact)] = stored.ID

	return cloneSession(stored), nil
}

// Update applies a partial patch atomically to the session row.
func (s *Store) Update(ctx context.Context, sessionID string, patch domain.SessionPatch) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if patch.CurrentNodeID != nil {
		stored.CurrentNodeID = *patch.CurrentNodeID
	}
	if patch.Variables != nil {
		stored.Variables = cloneVars(patch.Variables)
	}
	stored.UpdatedAt = time.Now()

	return cloneSession(stored), nil
}

// Delete removes the session. Absent sessions are a no-op.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[sessionID]
	if !ok {
		return nil
	}
	delete(s.byID, sessionID)
	delete(s.byPair, pairKey(stored.UserID, stored.Contact))
	return nil
}

// cloneSession copies on read/write so callers can't mutate store state by pointer.
func cloneSession(in *domain.Session) *domain.Session {
	out := *in
	out.Variables = cloneVars(in.Variables)
	return &out
}

func cloneVars(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
