package ports

import (
	"context"

	"github.com/tendrilhq/tendril/pkg/domain"
)

// FlowSource defines how the engine resolves flow definitions.
// Implementations own the trigger matching semantics (see pkg/trigger);
// the engine only consumes the result.
type FlowSource interface {
	// FlowByID retrieves a flow owned by the given user regardless of its
	// lifecycle status. Returns domain.ErrFlowNotFound if absent.
	FlowByID(ctx context.Context, userID, flowID string) (*domain.Flow, error)

	// FindTriggerFlow returns the first active flow of the user whose trigger
	// matches the inbound text, or (nil, nil) when nothing matches.
	FindTriggerFlow(ctx context.Context, userID, text string) (*domain.Flow, error)
}
