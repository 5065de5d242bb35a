package storage

import (
	"context"
	"testing"

	"github.com/kwarta/kwarta/internal/test_utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteKV(t *testing.T) {
	ctx := context.Background()
	db := test_utils.SetupTestDB(t)
	kv := NewSQLiteKV(db)

	t.Run("get of a missing key reports absence", func(t *testing.T) {
		_, ok, err := kv.Get(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set then get round-trips", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "budgetTracker_2025-07", `{"version":3}`))

		value, ok, err := kv.Get(ctx, "budgetTracker_2025-07")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `{"version":3}`, value)
	})

	t.Run("set overwrites an existing value", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "darkMode", "false"))
		require.NoError(t, kv.Set(ctx, "darkMode", "true"))

		value, ok, err := kv.Get(ctx, "darkMode")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "true", value)
	})

	t.Run("keys are returned in ascending order", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "b", "2"))
		require.NoError(t, kv.Set(ctx, "a", "1"))

		keys, err := kv.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "budgetTracker_2025-07", "darkMode"}, keys)
	})

	t.Run("delete removes the key", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "gone", "x"))
		require.NoError(t, kv.Delete(ctx, "gone"))

		_, ok, err := kv.Get(ctx, "gone")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
