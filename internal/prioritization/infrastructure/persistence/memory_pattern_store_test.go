package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/momentum/internal/prioritization/domain"
)

func TestMemoryPatternStore(t *testing.T) {
	ctx := context.Background()

	t.Run("missing profile yields not found", func(t *testing.T) {
		store := NewMemoryPatternStore(time.Hour)
		_, err := store.Get(ctx, "nobody")
		assert.ErrorIs(t, err, domain.ErrProfileNotFound)
	})

	t.Run("round-trips a profile", func(t *testing.T) {
		store := NewMemoryPatternStore(time.Hour)

		profile := domain.NewUserProfile()
		profile.Pattern.RecordCategory(domain.CategoryWork, true)
		profile.Pattern.RecordCompletionTime(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

		require.NoError(t, store.Put(ctx, "u1", profile))

		got, err := store.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, profile.Weights, got.Weights)
		assert.Equal(t, 1, got.Pattern.PreferredTimes["9-10"])
		assert.InDelta(t, 1.0, got.Pattern.CategoryEfficiency[domain.CategoryWork].Rate, 1e-9)
	})

	t.Run("returned profiles are copies", func(t *testing.T) {
		store := NewMemoryPatternStore(time.Hour)
		require.NoError(t, store.Put(ctx, "u1", domain.NewUserProfile()))

		first, err := store.Get(ctx, "u1")
		require.NoError(t, err)
		first.Pattern.RecordCategory(domain.CategoryWork, true)

		second, err := store.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Empty(t, second.Pattern.CategoryEfficiency, "mutating a read result must not leak into the store")
	})

	t.Run("put overwrites", func(t *testing.T) {
		store := NewMemoryPatternStore(time.Hour)

		first := domain.NewUserProfile()
		require.NoError(t, store.Put(ctx, "u1", first))

		updated := domain.NewUserProfile()
		updated.Weights.Urgency = 0.5
		updated.Weights = updated.Weights.Normalize()
		require.NoError(t, store.Put(ctx, "u1", updated))

		got, err := store.Get(ctx, "u1")
		require.NoError(t, err)
		assert.InDelta(t, updated.Weights.Urgency, got.Weights.Urgency, 1e-9)
	})

	t.Run("entries expire after the ttl", func(t *testing.T) {
		store := NewMemoryPatternStore(10 * time.Millisecond)
		require.NoError(t, store.Put(ctx, "u1", domain.NewUserProfile()))

		time.Sleep(30 * time.Millisecond)

		_, err := store.Get(ctx, "u1")
		assert.ErrorIs(t, err, domain.ErrProfileNotFound)
	})
}
