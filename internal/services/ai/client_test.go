package ai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendrilhq/tendril/internal/services/ai"
)

func TestClient_Complete(t *testing.T) {
	var gotReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "42"}},
			},
		})
	}))
	defer srv.Close()

	client := ai.New(srv.URL, "test-key", ai.WithModel("test-model"))
	answer, err := client.Complete(context.Background(), "meaning of life?", "be terse")
	require.NoError(t, err)
	assert.Equal(t, "42", answer)

	assert.Equal(t, "test-model", gotReq["model"])
	msgs := gotReq["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
}

func TestClient_NoSystemMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		assert.Len(t, req["messages"], 1)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "hi"}},
			},
		})
	}))
	defer srv.Close()

	_, err := ai.New(srv.URL, "k").Complete(context.Background(), "hello", "")
	require.NoError(t, err)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "invalid api key"},
		})
	}))
	defer srv.Close()

	_, err := ai.New(srv.URL, "bad").Complete(context.Background(), "hello", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestClient_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	_, err := ai.New(srv.URL, "k").Complete(context.Background(), "hello", "")
	require.Error(t, err)
}
