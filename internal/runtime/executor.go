package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/tendrilhq/tendril/internal/interpolate"
	"github.com/tendrilhq/tendril/internal/logging"
	"github.com/tendrilhq/tendril/pkg/domain"
	"github.com/tendrilhq/tendril/pkg/ports"
)

// ActionResult is the outcome of running an action node.
type ActionResult struct {
	// Failed routes the traversal to the source-error edge.
	Failed bool
	// Vars holds variable writes produced by the node, to be merged into the
	// session by the orchestrator.
	Vars map[string]any
}

// ResumeResult is the outcome of applying a waiting node's resume rule to an
// inbound text.
type ResumeResult struct {
	// Matched is false when the text satisfies no resume rule (e.g. an
	// unrecognized button reply); the session stays parked unchanged.
	Matched bool
	// Handle selects the outgoing edge: a button option ID, or empty for the
	// default unlabeled edge.
	Handle string
	// Vars holds variable writes dictated by the resume rule.
	Vars map[string]any
}

// Executor performs the side effect of a single node. It never lets an
// external failure escape as an error: failures become a Failed outcome and
// are routed through the flow's error branch.
type Executor struct {
	transport ports.Transport
	caller    ports.HTTPCaller
	completer ports.Completer
	logger    *slog.Logger
}

// NewExecutor creates an executor over the engine's collaborators.
// caller and completer may be nil; the corresponding node kinds then always
// take their failure outcome.
func NewExecutor(transport ports.Transport, caller ports.HTTPCaller, completer ports.Completer, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{
		transport: transport,
		caller:    caller,
		completer: completer,
		logger:    logger,
	}
}

// RunAction executes an action node to completion. The returned error is
// non-nil only for an unrecognized node kind; every other failure is folded
// into the result.
func (x *Executor) RunAction(ctx context.Context, sess *domain.Session, node *domain.Node) (ActionResult, error) {
	switch node.Kind {
	case domain.NodeSendText:
		return x.runSendText(ctx, sess, node), nil
	case domain.NodeAPICall:
		return x.runAPICall(ctx, sess, node), nil
	case domain.NodeAIQuery:
		return x.runAIQuery(ctx, sess, node), nil
	case domain.NodeSetVariable:
		return x.runSetVariable(sess, node), nil
	default:
		return ActionResult{}, fmt.Errorf("unimplemented node kind %q", node.Kind)
	}
}

// Suspend performs the entry effect of a waiting node: sending its prompt.
// Delivery failure is logged and swallowed so the suspend transition always
// completes; the session is already parked by the orchestrator.
func (x *Executor) Suspend(ctx context.Context, sess *domain.Session, node *domain.Node) {
	switch node.Kind {
	case domain.NodeButtonChoice:
		var cfg domain.ButtonChoiceConfig
		if err := decodeConfig(node, &cfg); err != nil {
			x.logger.Warn("invalid button-choice config", "node", node.ID, "err", err)
			return
		}
		payload := domain.OptionsPayload(interpolate.Interpolate(cfg.Text, sess.Variables), cfg.Options)
		if err := x.transport.Send(ctx, sess.UserID, sess.Contact, payload); err != nil {
			x.logger.Warn("prompt delivery failed", "node", node.ID, "contact", sess.Contact, "err", err)
		}

	case domain.NodeWaitForInput:
		var cfg domain.WaitForInputConfig
		if err := decodeConfig(node, &cfg); err != nil {
			x.logger.Warn("invalid wait-for-input config", "node", node.ID, "err", err)
			return
		}
		if cfg.Prompt == "" {
			return
		}
		payload := domain.TextPayload(interpolate.Interpolate(cfg.Prompt, sess.Variables))
		if err := x.transport.Send(ctx, sess.UserID, sess.Contact, payload); err != nil {
			x.logger.Warn("prompt delivery failed", "node", node.ID, "contact", sess.Contact, "err", err)
		}
	}
}

// Resume applies a waiting node's resume rule to the inbound text.
func (x *Executor) Resume(sess *domain.Session, node *domain.Node, text string) ResumeResult {
	switch node.Kind {
	case domain.NodeButtonChoice:
		var cfg domain.ButtonChoiceConfig
		if err := decodeConfig(node, &cfg); err != nil {
			x.logger.Warn("invalid button-choice config", "node", node.ID, "err", err)
			return ResumeResult{}
		}
		reply := strings.TrimSpace(text)
		for _, opt := range cfg.Options {
			if strings.EqualFold(reply, strings.TrimSpace(opt.Label)) {
				return ResumeResult{Matched: true, Handle: opt.ID}
			}
		}
		return ResumeResult{}

	case domain.NodeWaitForInput:
		var cfg domain.WaitForInputConfig
		if err := decodeConfig(node, &cfg); err != nil {
			x.logger.Warn("invalid wait-for-input config", "node", node.ID, "err", err)
			return ResumeResult{}
		}
		vars := map[string]any{}
		if cfg.Variable != "" {
			vars[cfg.Variable] = text
		}
		return ResumeResult{Matched: true, Vars: vars}
	}

	// Waiting kinds are a closed set; reaching here means the graph changed
	// underneath a parked session.
	x.logger.Warn("resume on non-waiting node", "node", node.ID, "kind", node.Kind)
	return ResumeResult{}
}

func (x *Executor) runSendText(ctx context.Context, sess *domain.Session, node *domain.Node) ActionResult {
	var cfg domain.SendTextConfig
	if err := decodeConfig(node, &cfg); err != nil {
		x.logger.Warn("invalid send-text config", "node", node.ID, "err", err)
		return ActionResult{Failed: true}
	}

	payload := domain.TextPayload(interpolate.Interpolate(cfg.Text, sess.Variables))
	if err := x.transport.Send(ctx, sess.UserID, sess.Contact, payload); err != nil {
		x.logger.Warn("send-text delivery failed", "node", node.ID, "contact", sess.Contact, "err", err)
		return ActionResult{Failed: true}
	}
	return ActionResult{}
}

func (x *Executor) runAPICall(ctx context.Context, sess *domain.Session, node *domain.Node) ActionResult {
	var cfg domain.APICallConfig
	if err := decodeConfig(node, &cfg); err != nil {
		x.logger.Warn("invalid api-call config", "node", node.ID, "err", err)
		return ActionResult{Failed: true}
	}
	if x.caller == nil {
		x.logger.Warn("api-call without HTTP caller configured", "node", node.ID)
		return ActionResult{Failed: true}
	}

	req := ports.CallRequest{
		URL:    interpolate.Interpolate(cfg.URL, sess.Variables),
		Method: cfg.Method,
	}
	if req.Method == "" {
		req.Method = "GET"
	}
	if len(cfg.Headers) > 0 {
		req.Headers = make(map[string]string, len(cfg.Headers))
		for k, v := range cfg.Headers {
			req.Headers[k] = interpolate.Interpolate(v, sess.Variables)
		}
	}
	if len(cfg.Body) > 0 {
		req.Body = interpolateTree(cfg.Body, sess.Variables)
	}

	res, err := x.caller.Do(ctx, req)
	if err != nil {
		x.logger.Warn("api-call failed", "node", node.ID, "url", req.URL, "err", err)
		return ActionResult{Failed: true}
	}

	result := ActionResult{}
	if cfg.Variable != "" {
		result.Vars = map[string]any{
			cfg.Variable: map[string]any{
				"status": res.Status,
				"data":   res.Data,
			},
		}
	}
	return result
}

func (x *Executor) runAIQuery(ctx context.Context, sess *domain.Session, node *domain.Node) ActionResult {
	var cfg domain.AIQueryConfig
	if err := decodeConfig(node, &cfg); err != nil {
		x.logger.Warn("invalid ai-query config", "node", node.ID, "err", err)
		return ActionResult{Failed: true}
	}
	if x.completer == nil {
		x.logger.Warn("ai-query without completer configured", "node", node.ID)
		return ActionResult{Failed: true}
	}

	prompt := interpolate.Interpolate(cfg.Prompt, sess.Variables)
	system := interpolate.Interpolate(cfg.System, sess.Variables)

	completion, err := x.completer.Complete(ctx, prompt, system)
	if err != nil {
		x.logger.Warn("ai-query failed", "node", node.ID, "err", err)
		return ActionResult{Failed: true}
	}

	result := ActionResult{}
	if cfg.Variable != "" {
		result.Vars = map[string]any{cfg.Variable: completion}
	}
	return result
}

func (x *Executor) runSetVariable(sess *domain.Session, node *domain.Node) ActionResult {
	var cfg domain.SetVariableConfig
	if err := decodeConfig(node, &cfg); err != nil || cfg.Variable == "" {
		x.logger.Warn("invalid set-variable config", "node", node.ID, "err", err)
		return ActionResult{Failed: true}
	}
	return ActionResult{
		Vars: map[string]any{cfg.Variable: interpolate.Interpolate(cfg.Value, sess.Variables)},
	}
}

// interpolateTree interpolates every string leaf of a JSON-like map.
func interpolateTree(in map[string]any, vars map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = interpolateValue(v, vars)
	}
	return out
}

func interpolateValue(v any, vars map[string]any) any {
	switch t := v.(type) {
	case string:
		return interpolate.Interpolate(t, vars)
	case map[string]any:
		return interpolateTree(t, vars)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = interpolateValue(item, vars)
		}
		return out
	default:
		return v
	}
}

func decodeConfig(node *domain.Node, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(node.Config)
}
