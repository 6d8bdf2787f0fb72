package runtime_test

import (
	"context"
	"sync"

	"github.com/tendrilhq/tendril/pkg/domain"
	"github.com/tendrilhq/tendril/pkg/ports"
)

// fakeTransport records every payload handed to it.
type fakeTransport struct {
	mu   sync.Mutex
	sent []domain.Payload
	err  error
}

func (f *fakeTransport) Send(_ context.Context, _, _ string, payload domain.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, payload)
	return nil
}

func (f *fakeTransport) payloads() []domain.Payload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Payload(nil), f.sent...)
}

func (f *fakeTransport) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, p := range f.sent {
		out[i] = p.Text
	}
	return out
}

// fakeCaller answers every request with a canned result.
type fakeCaller struct {
	mu       sync.Mutex
	requests []ports.CallRequest
	result   ports.CallResult
	err      error
}

func (f *fakeCaller) Do(_ context.Context, req ports.CallRequest) (ports.CallResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.result, f.err
}

// fakeCompleter answers every prompt with a canned completion.
type fakeCompleter struct {
	completion string
	err        error
	lastPrompt string
	lastSystem string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt, system string) (string, error) {
	f.lastPrompt, f.lastSystem = prompt, system
	return f.completion, f.err
}
