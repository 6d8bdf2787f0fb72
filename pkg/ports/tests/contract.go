package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendrilhq/tendril/pkg/domain"
	"github.com/tendrilhq/tendril/pkg/ports"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store ports.SessionStore) {
	ctx := context.Background()

	t.Run("Create and Get", func(t *testing.T) {
		created, err := store.Create(ctx, &domain.Session{
			UserID:        "user-1",
			Contact:       "5511999990001",
			FlowID:        "flow-1",
			CurrentNodeID: "start",
			Variables:     map[string]any{"name": "Ana"},
		})
		require.NoError(t, err, "Create should not return error")
		require.NotEmpty(t, created.ID, "Create should assign an ID")

		loaded, err := store.Get(ctx, "user-1", "5511999990001")
		require.NoError(t, err)
		assert.Equal(t, created.ID, loaded.ID)
		assert.Equal(t, "flow-1", loaded.FlowID)
		assert.Equal(t, "start", loaded.CurrentNodeID)
		assert.Equal(t, "Ana", loaded.Variables["name"])
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "user-1", "no-such-contact")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Update", func(t *testing.T) {
		created, err := store.Create(ctx, &domain.Session{
			UserID:        "user-2",
			Contact:       "5511999990002",
			FlowID:        "flow-1",
			CurrentNodeID: "start",
		})
		require.NoError(t, err)

		node := "ask-email"
		updated, err := store.Update(ctx, created.ID, domain.SessionPatch{
			CurrentNodeID: &node,
			Variables:     map[string]any{"email": "a@b.com"},
		})
		require.NoError(t, err)
		assert.Equal(t, "ask-email", updated.CurrentNodeID)
		assert.Equal(t, "a@b.com", updated.Variables["email"])

		// Patch with only variables must leave the cursor untouched.
		updated, err = store.Update(ctx, created.ID, domain.SessionPatch{
			Variables: map[string]any{"email": "a@b.com", "name": "Bea"},
		})
		require.NoError(t, err)
		assert.Equal(t, "ask-email", updated.CurrentNodeID)
		assert.Equal(t, "Bea", updated.Variables["name"])
	})

	t.Run("Update Non-Existent", func(t *testing.T) {
		node := "anywhere"
		_, err := store.Update(ctx, "missing-session-id", domain.SessionPatch{CurrentNodeID: &node})
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		created, err := store.Create(ctx, &domain.Session{
			UserID:        "user-3",
			Contact:       "5511999990003",
			FlowID:        "flow-1",
			CurrentNodeID: "start",
		})
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, created.ID))

		_, err = store.Get(ctx, "user-3", "5511999990003")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Get after Delete should return ErrSessionNotFound")

		// Deleting again is a no-op, not an error.
		assert.NoError(t, store.Delete(ctx, created.ID))
	})
}
