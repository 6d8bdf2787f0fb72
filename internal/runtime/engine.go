// Package runtime implements the flow execution engine: the long-lived,
// crash-tolerant state machine that advances per-contact sessions through a
// flow graph one inbound message at a time.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tendrilhq/tendril/internal/logging"
	"github.com/tendrilhq/tendril/pkg/domain"
	"github.com/tendrilhq/tendril/pkg/ports"
	"github.com/tendrilhq/tendril/pkg/session"
)

// DefaultMaxHops bounds the number of action nodes a single inbound event may
// traverse. Exceeding it indicates a cycle among action nodes and is treated
// as a configuration error.
const DefaultMaxHops = 64

// Engine is the orchestrator tying flow resolution, session persistence and
// node execution together. One Engine serves all users and contacts; each
// ProcessMessage call is serialized per (user, contact) pair.
type Engine struct {
	flows    ports.FlowSource
	store    ports.SessionStore
	executor *Executor
	sessions *session.Manager

	maxHops int
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a structured logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithMaxHops overrides the per-event action hop cap.
func WithMaxHops(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxHops = n
		}
	}
}

// WithSessionManager injects a custom serialization manager (e.g. one backed
// by a distributed locker for multi-replica deployments).
func WithSessionManager(m *session.Manager) EngineOption {
	return func(e *Engine) {
		if m != nil {
			e.sessions = m
		}
	}
}

// NewEngine creates an engine over its collaborators.
func NewEngine(flows ports.FlowSource, store ports.SessionStore, executor *Executor, opts ...EngineOption) *Engine {
	e := &Engine{
		flows:    flows,
		store:    store,
		executor: executor,
		sessions: session.NewManager(),
		maxHops:  DefaultMaxHops,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProcessMessage handles one inbound message event. Conversational failures
// (node errors, configuration errors, no trigger match) never surface as
// errors; only infrastructure faults (session store I/O) do, so the host can
// decide whether to retry delivery.
func (e *Engine) ProcessMessage(ctx context.Context, userID, contact, text string) error {
	return e.sessions.WithLock(ctx, session.Key(userID, contact), func(ctx context.Context) error {
		return e.process(ctx, userID, contact, text)
	})
}

func (e *Engine) process(ctx context.Context, userID, contact, text string) error {
	log := e.logger.With("user", userID, "contact", contact)

	sess, err := e.store.Get(ctx, userID, contact)
	initiating := false
	var flow *domain.Flow

	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		flow = e.resolveTrigger(ctx, userID, text, log)
		if flow == nil {
			// Unmatched free text outside a flow is not noise-worthy.
			return nil
		}
		entry, err := flow.EntryNode()
		if err != nil {
			log.Warn("cannot start flow", "flow", flow.ID, "err", err)
			return nil
		}
		sess, err = e.store.Create(ctx, &domain.Session{
			UserID:        userID,
			Contact:       contact,
			FlowID:        flow.ID,
			CurrentNodeID: entry.ID,
			Variables:     map[string]any{},
		})
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		initiating = true
		e.emitSessionStart(ctx, sess)
		log.Info("session started", "flow", flow.ID, "session", sess.ID)

	case err != nil:
		return fmt.Errorf("load session: %w", err)

	default:
		flow, err = e.flows.FlowByID(ctx, userID, sess.FlowID)
		if err != nil {
			// Orphaned session: self-heal instead of failing silently forever.
			log.Error("session references unloadable flow, deleting", "flow", sess.FlowID, "session", sess.ID, "err", err)
			return e.endSession(ctx, sess, "orphaned")
		}
	}

	nextID := sess.CurrentNodeID
	if !initiating {
		var ok bool
		nextID, ok, err = e.resumeAt(ctx, flow, sess, text, log)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	return e.advance(ctx, flow, sess, nextID, log)
}

// resumeAt applies the resume rule of the node the session is parked at.
// It returns the next node to enter and whether traversal should continue.
func (e *Engine) resumeAt(ctx context.Context, flow *domain.Flow, sess *domain.Session, text string, log *slog.Logger) (string, bool, error) {
	node := flow.NodeByID(sess.CurrentNodeID)
	if node == nil {
		log.Error("session parked at unknown node, deleting", "node", sess.CurrentNodeID, "session", sess.ID)
		return "", false, e.endSession(ctx, sess, "orphaned")
	}

	if !node.IsWaiting() {
		// A crash between persisting the cursor and executing the node can
		// leave the session parked at an action node; re-enter it.
		return node.ID, true, nil
	}

	res := e.executor.Resume(sess, node, text)
	if !res.Matched {
		// e.g. a reply matching no button: stay parked, no state change.
		log.Debug("inbound text matched no resume rule", "node", node.ID)
		return "", false, nil
	}

	if len(res.Vars) > 0 {
		updated, err := e.applyVars(ctx, sess, res.Vars)
		if err != nil {
			return "", false, err
		}
		*sess = *updated
	}

	var target string
	var ok bool
	if res.Handle != "" {
		target, ok = edgeForHandle(flow, node.ID, res.Handle)
	} else {
		target, ok = defaultEdge(flow, node.ID)
	}
	if !ok {
		log.Info("conversation completed", "node", node.ID, "session", sess.ID)
		return "", false, e.endSession(ctx, sess, "dead-end")
	}
	return target, true, nil
}

// advance drives the interpret loop from nextID until a waiting node suspends
// the traversal or a dead end terminates it.
func (e *Engine) advance(ctx context.Context, flow *domain.Flow, sess *domain.Session, nextID string, log *slog.Logger) error {
	for hops := 0; nextID != ""; {
		// Re-fetch defensively: a concurrent self-heal path may have removed
		// the session; never operate on stale state.
		fresh, err := e.store.Get(ctx, sess.UserID, sess.Contact)
		if errors.Is(err, domain.ErrSessionNotFound) {
			log.Warn("session vanished mid-traversal, stopping", "session", sess.ID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("refresh session: %w", err)
		}
		sess = fresh

		node := flow.NodeByID(nextID)
		if node == nil {
			log.Warn("edge points to unknown node, ending conversation", "node", nextID, "flow", flow.ID)
			return e.endSession(ctx, sess, "dead-end")
		}

		if node.IsWaiting() {
			sess, err = e.park(ctx, sess, node.ID)
			if err != nil {
				return err
			}
			e.emitNodeEnter(ctx, sess, node)
			// Delivery failure must not undo the suspend transition; the
			// executor logs it.
			e.executor.Suspend(ctx, sess, node)
			return nil
		}

		hops++
		if hops > e.maxHops {
			log.Error("action hop limit exceeded, ending conversation",
				"flow", flow.ID, "node", node.ID, "limit", e.maxHops, "err", domain.ErrHopLimit)
			return e.endSession(ctx, sess, "hop-limit")
		}

		e.emitNodeEnter(ctx, sess, node)
		res, err := e.executor.RunAction(ctx, sess, node)
		if err != nil {
			log.Warn("node kind not implemented, stopping traversal", "node", node.ID, "kind", node.Kind)
			_, perr := e.park(ctx, sess, node.ID)
			return perr
		}

		// The patch below is the atomic commit point for this node: cursor
		// and variable writes land together.
		sess, err = e.commit(ctx, sess, node.ID, res.Vars)
		if err != nil {
			return err
		}
		e.emitNodeLeave(ctx, sess, node, res.Failed)

		var ok bool
		if res.Failed {
			nextID, ok = errorTarget(flow, node.ID)
			if !ok {
				log.Info("node failed without error branch, ending conversation", "node", node.ID, "session", sess.ID)
				return e.endSession(ctx, sess, "dead-end")
			}
		} else {
			nextID, ok = successTarget(flow, node.ID)
			if !ok {
				log.Info("conversation completed", "node", node.ID, "session", sess.ID)
				return e.endSession(ctx, sess, "dead-end")
			}
		}
	}
	return nil
}

// resolveTrigger finds the first active flow of the user matching the text.
func (e *Engine) resolveTrigger(ctx context.Context, userID, text string, log *slog.Logger) *domain.Flow {
	flow, err := e.flows.FindTriggerFlow(ctx, userID, text)
	if err != nil {
		log.Warn("trigger resolution failed", "err", err)
		return nil
	}
	return flow
}

// park persists the cursor at nodeID without touching variables.
func (e *Engine) park(ctx context.Context, sess *domain.Session, nodeID string) (*domain.Session, error) {
	updated, err := e.store.Update(ctx, sess.ID, domain.SessionPatch{CurrentNodeID: &nodeID})
	if err != nil {
		return nil, fmt.Errorf("park session at %s: %w", nodeID, err)
	}
	return updated, nil
}

// commit persists the cursor plus any variable writes from a completed node.
func (e *Engine) commit(ctx context.Context, sess *domain.Session, nodeID string, vars map[string]any) (*domain.Session, error) {
	patch := domain.SessionPatch{CurrentNodeID: &nodeID}
	if len(vars) > 0 {
		patch.Variables = mergeVars(sess.Variables, vars)
	}
	updated, err := e.store.Update(ctx, sess.ID, patch)
	if err != nil {
		return nil, fmt.Errorf("commit node %s: %w", nodeID, err)
	}
	return updated, nil
}

// applyVars persists variable writes only.
func (e *Engine) applyVars(ctx context.Context, sess *domain.Session, vars map[string]any) (*domain.Session, error) {
	updated, err := e.store.Update(ctx, sess.ID, domain.SessionPatch{
		Variables: mergeVars(sess.Variables, vars),
	})
	if err != nil {
		return nil, fmt.Errorf("store variables: %w", err)
	}
	return updated, nil
}

// endSession deletes the session and emits the end event.
func (e *Engine) endSession(ctx context.Context, sess *domain.Session, reason string) error {
	if err := e.store.Delete(ctx, sess.ID); err != nil {
		return fmt.Errorf("delete session %s: %w", sess.ID, err)
	}
	e.emitSessionEnd(ctx, sess, reason)
	return nil
}

func mergeVars(current, writes map[string]any) map[string]any {
	merged := make(map[string]any, len(current)+len(writes))
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range writes {
		merged[k] = v
	}
	return merged
}

func (e *Engine) emitSessionStart(ctx context.Context, sess *domain.Session) {
	if e.hooks.OnSessionStart == nil {
		return
	}
	e.hooks.OnSessionStart(ctx, &domain.SessionEvent{
		Timestamp: time.Now(),
		Type:      domain.EventSessionStart,
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Contact:   sess.Contact,
		FlowID:    sess.FlowID,
	})
}

func (e *Engine) emitSessionEnd(ctx context.Context, sess *domain.Session, reason string) {
	if e.hooks.OnSessionEnd == nil {
		return
	}
	e.hooks.OnSessionEnd(ctx, &domain.SessionEvent{
		Timestamp: time.Now(),
		Type:      domain.EventSessionEnd,
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Contact:   sess.Contact,
		FlowID:    sess.FlowID,
		Reason:    reason,
	})
}

func (e *Engine) emitNodeEnter(ctx context.Context, sess *domain.Session, node *domain.Node) {
	if e.hooks.OnNodeEnter == nil {
		return
	}
	e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
		Timestamp: time.Now(),
		Type:      domain.EventNodeEnter,
		SessionID: sess.ID,
		FlowID:    sess.FlowID,
		NodeID:    node.ID,
		NodeKind:  node.Kind,
	})
}

func (e *Engine) emitNodeLeave(ctx context.Context, sess *domain.Session, node *domain.Node, failed bool) {
	if e.hooks.OnNodeLeave == nil {
		return
	}
	e.hooks.OnNodeLeave(ctx, &domain.NodeEvent{
		Timestamp: time.Now(),
		Type:      domain.EventNodeLeave,
		SessionID: sess.ID,
		FlowID:    sess.FlowID,
		NodeID:    node.ID,
		NodeKind:  node.Kind,
		Failed:    failed,
	})
}
