package transport_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendrilhq/tendril/internal/adapters/transport"
	"github.com/tendrilhq/tendril/pkg/domain"
)

func TestWebhook_Send(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	tr := transport.NewWebhook(srv.URL)
	err := tr.Send(context.Background(), "u1", "c1", domain.OptionsPayload("Pick one", []domain.ButtonOption{
		{ID: "a", Label: "A"},
	}))
	require.NoError(t, err)

	assert.Equal(t, "u1", got["user_id"])
	assert.Equal(t, "c1", got["contact"])
	assert.Equal(t, "Pick one", got["text"])
	assert.Len(t, got["options"], 1)
}

func TestWebhook_SendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := transport.NewWebhook(srv.URL).Send(context.Background(), "u1", "c1", domain.TextPayload("hi"))
	assert.Error(t, err)
}

func TestLog_Send(t *testing.T) {
	err := transport.NewLog(nil).Send(context.Background(), "u1", "c1", domain.TextPayload("hi"))
	assert.NoError(t, err)
}
