package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "masseutsendelse/pkg/platform/audit"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	attrs := map[string]string{"owners": "2"}
	require.NoError(t, store.Append(ctx, audit.Event{Action: "first", RequestID: "a", Attributes: attrs}))
	require.NoError(t, store.Append(ctx, audit.Event{Action: "second", RequestID: "b"}))
	require.NoError(t, store.Append(ctx, audit.Event{Action: "third", RequestID: "a"}))
	attrs["owners"] = "changed"

	t.Run("list by request keeps order", func(t *testing.T) {
		events, err := store.ListByRequest(ctx, "a")
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "first", events[0].Action)
		assert.Equal(t, "third", events[1].Action)
		assert.Equal(t, "2", events[0].Attributes["owners"])
	})

	t.Run("list recent is newest first", func(t *testing.T) {
		events, err := store.ListRecent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "third", events[0].Action)
		assert.Equal(t, "second", events[1].Action)

		all, err := store.ListRecent(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("clear", func(t *testing.T) {
		store.Clear()
		events, err := store.ListRecent(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}
