package httpcall_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendrilhq/tendril/internal/services/httpcall"
	"github.com/tendrilhq/tendril/pkg/ports"
)

func TestCaller_Success(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "id": 42})
	}))
	defer srv.Close()

	caller := httpcall.New()
	result, err := caller.Do(context.Background(), ports.CallRequest{
		URL:     srv.URL,
		Headers: map[string]string{"Authorization": "Bearer token"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, result.Status)
	assert.Equal(t, "Bearer token", gotAuth)

	data, ok := result.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["ok"])
	assert.Equal(t, float64(42), data["id"])
}

func TestCaller_PostBody(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	caller := httpcall.New()
	result, err := caller.Do(context.Background(), ports.CallRequest{
		URL:    srv.URL,
		Method: "POST",
		Body:   map[string]any{"name": "Ana"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, result.Status)
	assert.Equal(t, "Ana", gotBody["name"])
}

func TestCaller_NonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"nope"}`, http.StatusBadGateway)
	}))
	defer srv.Close()

	caller := httpcall.New()
	result, err := caller.Do(context.Background(), ports.CallRequest{URL: srv.URL})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, result.Status)
}

func TestCaller_NonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain text"))
	}))
	defer srv.Close()

	caller := httpcall.New()
	result, err := caller.Do(context.Background(), ports.CallRequest{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "plain text", result.Data)
}
