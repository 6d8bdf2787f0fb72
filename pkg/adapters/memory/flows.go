package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tendrilhq/tendril/internal/logging"
	"github.com/tendrilhq/tendril/pkg/domain"
	"github.com/tendrilhq/tendril/pkg/ports"
	"github.com/tendrilhq/tendril/pkg/trigger"
)

// Flows implements ports.FlowSource over an in-memory flow catalog.
// Flows are registered per user; trigger resolution walks them in
// registration order and returns the first active match.
type Flows struct {
	mu     sync.RWMutex
	byUser map[string][]*domain.Flow
	logger *slog.Logger
}

// NewFlows creates an empty in-memory flow source.
func NewFlows() *Flows {
	return &Flows{
		byUser: make(map[string][]*domain.Flow),
		logger: logging.NewNop(),
	}
}

// WithLogger sets a logger for trigger configuration warnings.
func (f *Flows) WithLogger(logger *slog.Logger) *Flows {
	if logger != nil {
		f.logger = logger
	}
	return f
}

// Add registers a flow. The catalog keeps the pointer, so status changes on
// the passed value take effect immediately.
func (f *Flows) Add(flow *domain.Flow) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byUser[flow.UserID] = append(f.byUser[flow.UserID], flow)
}

// All returns every registered flow. Order is stable per user only.
func (f *Flows) All() []*domain.Flow {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var out []*domain.Flow
	for _, flows := range f.byUser {
		out = append(out, flows...)
	}
	return out
}

// FlowByID retrieves a flow owned by the user regardless of status.
func (f *Flows) FlowByID(ctx context.Context, userID, flowID string) (*domain.Flow, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, flow := range f.byUser[userID] {
		if flow.ID == flowID {
			return flow, nil
		}
	}
	return nil, domain.ErrFlowNotFound
}

// FindTriggerFlow returns the first active flow whose trigger matches text.
// Malformed triggers are logged and skipped rather than blocking the scan.
func (f *Flows) FindTriggerFlow(ctx context.Context, userID, text string) (*domain.Flow, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, flow := range f.byUser[userID] {
		if flow.Status != domain.FlowActive {
			continue
		}
		matched, err := trigger.Match(flow.Trigger, text)
		if err != nil {
			f.logger.Warn("skipping flow with malformed trigger", "flow", flow.ID, "err", err)
			continue
		}
		if matched {
			return flow, nil
		}
	}
	return nil, nil
}

var _ ports.FlowSource = (*Flows)(nil)
