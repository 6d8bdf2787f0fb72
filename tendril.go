package tendril

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tendrilhq/tendril/internal/logging"
	"github.com/tendrilhq/tendril/internal/runtime"
	"github.com/tendrilhq/tendril/pkg/adapters/memory"
	"github.com/tendrilhq/tendril/pkg/domain"
	"github.com/tendrilhq/tendril/pkg/ports"
	"github.com/tendrilhq/tendril/pkg/session"
)

// Version is the library version, set at release time.
var Version = "0.1.0-dev"

// Engine is the high-level entry point for the Tendril library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime   *runtime.Engine
	store     ports.SessionStore
	transport ports.Transport
	caller    ports.HTTPCaller
	completer ports.Completer
	locker    ports.DistributedLocker
	lockTTL   time.Duration
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	maxHops   int
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore injects a session store. Defaults to the in-memory store.
func WithStore(store ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithHTTPCaller injects the outbound HTTP service backing api-call nodes.
// Without one, api-call nodes take their error edge.
func WithHTTPCaller(caller ports.HTTPCaller) Option {
	return func(e *Engine) {
		e.caller = caller
	}
}

// WithCompleter injects the completion service backing ai-query nodes.
// Without one, ai-query nodes take their error edge.
func WithCompleter(completer ports.Completer) Option {
	return func(e *Engine) {
		e.completer = completer
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxHops caps consecutive action-node executions per inbound message.
func WithMaxHops(n int) Option {
	return func(e *Engine) {
		e.maxHops = n
	}
}

// WithDistributedLocker adds a cross-instance lock around message
// processing, for deployments running more than one engine replica.
func WithDistributedLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLockTTL sets the distributed lock expiration. Default is 30s.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.lockTTL = ttl
	}
}

// New initializes a Tendril Engine over a flow source and a message
// transport. The transport delivers outbound payloads to contacts and is
// required; everything else has a default or degrades per node semantics.
func New(flows ports.FlowSource, transport ports.Transport, opts ...Option) (*Engine, error) {
	if flows == nil {
		return nil, fmt.Errorf("flow source is required")
	}
	if transport == nil {
		return nil, fmt.Errorf("transport is required")
	}

	eng := &Engine{transport: transport}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	sessionOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker))
	}
	if eng.lockTTL > 0 {
		sessionOpts = append(sessionOpts, session.WithLockTTL(eng.lockTTL))
	}

	executor := runtime.NewExecutor(eng.transport, eng.caller, eng.completer, eng.logger)

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithSessionManager(session.NewManager(sessionOpts...)),
	}
	if eng.maxHops > 0 {
		runtimeOpts = append(runtimeOpts, runtime.WithMaxHops(eng.maxHops))
	}

	eng.runtime = runtime.NewEngine(flows, eng.store, executor, runtimeOpts...)
	return eng, nil
}

// ProcessMessage runs one inbound message through the engine. The returned
// error reports infrastructure failures only; conversational outcomes
// (no trigger match, unmatched button reply, dead ends) resolve internally.
func (e *Engine) ProcessMessage(ctx context.Context, userID, contact, text string) error {
	return e.runtime.ProcessMessage(ctx, userID, contact, text)
}

// Store returns the session store in use, for host-side inspection.
func (e *Engine) Store() ports.SessionStore {
	return e.store
}
