package ports

import "context"

// CallRequest describes one generic outbound HTTP invocation.
type CallRequest struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    map[string]any
}

// CallResult is the outcome of a successful outbound call (2xx status).
type CallResult struct {
	Status int
	Data   any
}

// HTTPCaller invokes external HTTP endpoints on behalf of api-call nodes.
// Implementations return an error for transport failures and non-2xx statuses.
type HTTPCaller interface {
	Do(ctx context.Context, req CallRequest) (CallResult, error)
}

// Completer requests text completions from the AI service on behalf of
// ai-query nodes.
type Completer interface {
	Complete(ctx context.Context, prompt, system string) (string, error)
}
