// Package httpcall provides the outbound HTTP service backing api-call nodes.
package httpcall

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tendrilhq/tendril/pkg/ports"
)

// Caller implements ports.HTTPCaller with a resty client.
type Caller struct {
	client *resty.Client
}

var _ ports.HTTPCaller = (*Caller)(nil)

type Option func(*Caller)

// WithTimeout sets the per-request timeout. Default is 30s.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Caller) {
		c.client.SetTimeout(timeout)
	}
}

// WithRetries sets the retry count for transient transport failures.
func WithRetries(count int) Option {
	return func(c *Caller) {
		c.client.SetRetryCount(count)
	}
}

// New creates a Caller.
func New(opts ...Option) *Caller {
	c := &Caller{
		client: resty.New().SetTimeout(30 * time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do executes the request. Transport failures and non-2xx statuses are
// errors; on success the decoded JSON body (or raw text when not JSON) is
// returned alongside the status code.
func (c *Caller) Do(ctx context.Context, req ports.CallRequest) (ports.CallResult, error) {
	method := req.Method
	if method == "" {
		method = "GET"
	}

	r := c.client.R().SetContext(ctx).SetHeaders(req.Headers)
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(method, req.URL)
	if err != nil {
		return ports.CallResult{}, fmt.Errorf("http request failed: %w", err)
	}

	result := ports.CallResult{
		Status: resp.StatusCode(),
		Data:   decodeBody(resp.Body()),
	}
	if resp.IsError() {
		return result, fmt.Errorf("http request returned status %d", resp.StatusCode())
	}
	return result, nil
}

// decodeBody decodes a JSON response body, falling back to the raw text so
// non-JSON endpoints still yield a usable value.
func decodeBody(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return string(body)
	}
	return decoded
}
