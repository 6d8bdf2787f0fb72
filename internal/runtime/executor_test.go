package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendrilhq/tendril/internal/runtime"
	"github.com/tendrilhq/tendril/pkg/domain"
	"github.com/tendrilhq/tendril/pkg/ports"
)

func testSession() *domain.Session {
	return &domain.Session{
		ID:      "s1",
		UserID:  "u1",
		Contact: "c1",
		Variables: map[string]any{
			"name":  "Ana",
			"token": "t-123",
		},
	}
}

func TestRunAction_SendText(t *testing.T) {
	transport := &fakeTransport{}
	x := runtime.NewExecutor(transport, nil, nil, nil)

	res, err := x.RunAction(context.Background(), testSession(), &domain.Node{
		ID: "n1", Kind: domain.NodeSendText,
		Config: map[string]any{"text": "Hi {{name}}!"},
	})
	require.NoError(t, err)
	assert.False(t, res.Failed)
	assert.Equal(t, []string{"Hi Ana!"}, transport.texts())
}

func TestRunAction_SendTextDeliveryFailure(t *testing.T) {
	transport := &fakeTransport{err: errors.New("channel down")}
	x := runtime.NewExecutor(transport, nil, nil, nil)

	res, err := x.RunAction(context.Background(), testSession(), &domain.Node{
		ID: "n1", Kind: domain.NodeSendText,
		Config: map[string]any{"text": "Hi"},
	})
	require.NoError(t, err)
	assert.True(t, res.Failed)
}

func TestRunAction_APICall(t *testing.T) {
	caller := &fakeCaller{result: ports.CallResult{
		Status: 200,
		Data:   map[string]any{"city": "Lisboa"},
	}}
	x := runtime.NewExecutor(&fakeTransport{}, caller, nil, nil)

	res, err := x.RunAction(context.Background(), testSession(), &domain.Node{
		ID: "n1", Kind: domain.NodeAPICall,
		Config: map[string]any{
			"url":      "https://api.test/users/{{name}}",
			"method":   "POST",
			"headers":  map[string]any{"Authorization": "Bearer {{token}}"},
			"body":     map[string]any{"who": "{{name}}", "nested": map[string]any{"greeting": "ola {{name}}"}},
			"variable": "api_response",
		},
	})
	require.NoError(t, err)
	assert.False(t, res.Failed)

	require.Len(t, caller.requests, 1)
	req := caller.requests[0]
	assert.Equal(t, "https://api.test/users/Ana", req.URL)
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "Bearer t-123", req.Headers["Authorization"])
	body := req.Body
	assert.Equal(t, "Ana", body["who"])
	assert.Equal(t, "ola Ana", body["nested"].(map[string]any)["greeting"])

	stored := res.Vars["api_response"].(map[string]any)
	assert.Equal(t, 200, stored["status"])
	assert.Equal(t, map[string]any{"city": "Lisboa"}, stored["data"])
}

func TestRunAction_APICallDefaultsToGET(t *testing.T) {
	caller := &fakeCaller{result: ports.CallResult{Status: 200}}
	x := runtime.NewExecutor(&fakeTransport{}, caller, nil, nil)

	_, err := x.RunAction(context.Background(), testSession(), &domain.Node{
		ID: "n1", Kind: domain.NodeAPICall,
		Config: map[string]any{"url": "https://api.test"},
	})
	require.NoError(t, err)
	require.Len(t, caller.requests, 1)
	assert.Equal(t, "GET", caller.requests[0].Method)
}

func TestRunAction_APICallFailure(t *testing.T) {
	caller := &fakeCaller{err: errors.New("status 500")}
	x := runtime.NewExecutor(&fakeTransport{}, caller, nil, nil)

	res, err := x.RunAction(context.Background(), testSession(), &domain.Node{
		ID: "n1", Kind: domain.NodeAPICall,
		Config: map[string]any{"url": "https://api.test", "variable": "out"},
	})
	require.NoError(t, err)
	assert.True(t, res.Failed)
	assert.Empty(t, res.Vars)
}

func TestRunAction_APICallWithoutCaller(t *testing.T) {
	x := runtime.NewExecutor(&fakeTransport{}, nil, nil, nil)

	res, err := x.RunAction(context.Background(), testSession(), &domain.Node{
		ID: "n1", Kind: domain.NodeAPICall,
		Config: map[string]any{"url": "https://api.test"},
	})
	require.NoError(t, err)
	assert.True(t, res.Failed)
}

func TestRunAction_AIQuery(t *testing.T) {
	completer := &fakeCompleter{completion: "the answer"}
	x := runtime.NewExecutor(&fakeTransport{}, nil, completer, nil)

	res, err := x.RunAction(context.Background(), testSession(), &domain.Node{
		ID: "n1", Kind: domain.NodeAIQuery,
		Config: map[string]any{
			"prompt":   "Greet {{name}}",
			"system":   "be brief",
			"variable": "ai_reply",
		},
	})
	require.NoError(t, err)
	assert.False(t, res.Failed)
	assert.Equal(t, "Greet Ana", completer.lastPrompt)
	assert.Equal(t, "be brief", completer.lastSystem)
	assert.Equal(t, "the answer", res.Vars["ai_reply"])
}

func TestRunAction_AIQueryFailure(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("rate limited")}
	x := runtime.NewExecutor(&fakeTransport{}, nil, completer, nil)

	res, err := x.RunAction(context.Background(), testSession(), &domain.Node{
		ID: "n1", Kind: domain.NodeAIQuery,
		Config: map[string]any{"prompt": "hi"},
	})
	require.NoError(t, err)
	assert.True(t, res.Failed)
}

func TestRunAction_SetVariable(t *testing.T) {
	x := runtime.NewExecutor(&fakeTransport{}, nil, nil, nil)

	res, err := x.RunAction(context.Background(), testSession(), &domain.Node{
		ID: "n1", Kind: domain.NodeSetVariable,
		Config: map[string]any{"variable": "greeting", "value": "Ola {{name}}"},
	})
	require.NoError(t, err)
	assert.False(t, res.Failed)
	assert.Equal(t, "Ola Ana", res.Vars["greeting"])

	// Missing variable name is a configuration failure.
	res, err = x.RunAction(context.Background(), testSession(), &domain.Node{
		ID: "n2", Kind: domain.NodeSetVariable,
		Config: map[string]any{"value": "x"},
	})
	require.NoError(t, err)
	assert.True(t, res.Failed)
}

func TestRunAction_UnknownKind(t *testing.T) {
	x := runtime.NewExecutor(&fakeTransport{}, nil, nil, nil)

	_, err := x.RunAction(context.Background(), testSession(), &domain.Node{
		ID: "n1", Kind: "teleport",
	})
	assert.Error(t, err)
}

func TestSuspend_ButtonChoice(t *testing.T) {
	transport := &fakeTransport{}
	x := runtime.NewExecutor(transport, nil, nil, nil)

	x.Suspend(context.Background(), testSession(), &domain.Node{
		ID: "q1", Kind: domain.NodeButtonChoice,
		Config: map[string]any{
			"text": "Hi {{name}}, need help?",
			"options": []any{
				map[string]any{"id": "opt-yes", "label": "Yes"},
				map[string]any{"id": "opt-no", "label": "No"},
			},
		},
	})

	payloads := transport.payloads()
	require.Len(t, payloads, 1)
	assert.Equal(t, "Hi Ana, need help?", payloads[0].Text)
	require.Len(t, payloads[0].Options, 2)
	assert.Equal(t, "opt-yes", payloads[0].Options[0].ID)
	assert.Equal(t, "Yes", payloads[0].Options[0].Label)
}

func TestSuspend_WaitForInput(t *testing.T) {
	transport := &fakeTransport{}
	x := runtime.NewExecutor(transport, nil, nil, nil)

	x.Suspend(context.Background(), testSession(), &domain.Node{
		ID: "w1", Kind: domain.NodeWaitForInput,
		Config: map[string]any{"prompt": "What is your email?", "variable": "email"},
	})
	assert.Equal(t, []string{"What is your email?"}, transport.texts())

	// No prompt configured means nothing is sent.
	x.Suspend(context.Background(), testSession(), &domain.Node{
		ID: "w2", Kind: domain.NodeWaitForInput,
		Config: map[string]any{"variable": "email"},
	})
	assert.Len(t, transport.payloads(), 1)
}

func TestResume_ButtonChoice(t *testing.T) {
	x := runtime.NewExecutor(&fakeTransport{}, nil, nil, nil)
	node := &domain.Node{
		ID: "q1", Kind: domain.NodeButtonChoice,
		Config: map[string]any{
			"options": []any{
				map[string]any{"id": "opt-yes", "label": "Yes please"},
				map[string]any{"id": "opt-no", "label": "No"},
			},
		},
	}

	// Labels match case-insensitively with surrounding whitespace trimmed.
	res := x.Resume(testSession(), node, "  yes PLEASE ")
	assert.True(t, res.Matched)
	assert.Equal(t, "opt-yes", res.Handle)

	res = x.Resume(testSession(), node, "maybe")
	assert.False(t, res.Matched)
}

func TestResume_WaitForInput(t *testing.T) {
	x := runtime.NewExecutor(&fakeTransport{}, nil, nil, nil)
	node := &domain.Node{
		ID: "w1", Kind: domain.NodeWaitForInput,
		Config: map[string]any{"variable": "email"},
	}

	res := x.Resume(testSession(), node, "a@b.com")
	assert.True(t, res.Matched)
	assert.Empty(t, res.Handle)
	assert.Equal(t, "a@b.com", res.Vars["email"])
}
