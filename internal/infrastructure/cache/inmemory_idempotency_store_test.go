package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_Reserve(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("claims an unseen request key", func(t *testing.T) {
		fresh, result, err := store.Reserve(ctx, "payment:req-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, fresh, "unseen key should be claimed")
		assert.Empty(t, result)
	})

	t.Run("an in-flight duplicate is refused with no result", func(t *testing.T) {
		fresh, _, err := store.Reserve(ctx, "payment:req-2", time.Hour)
		require.NoError(t, err)
		assert.True(t, fresh)

		fresh, result, err := store.Reserve(ctx, "payment:req-2", time.Hour)
		require.NoError(t, err)
		assert.False(t, fresh, "in-flight key should be refused")
		assert.Empty(t, result, "in-flight key has no result yet")
	})

	t.Run("a completed key replays its stored result", func(t *testing.T) {
		fresh, _, err := store.Reserve(ctx, "payment:req-3", time.Hour)
		require.NoError(t, err)
		require.True(t, fresh)
		require.NoError(t, store.Complete(ctx, "payment:req-3", "PAY-0001", time.Hour))

		fresh, result, err := store.Reserve(ctx, "payment:req-3", time.Hour)
		require.NoError(t, err)
		assert.False(t, fresh)
		assert.Equal(t, "PAY-0001", result)
	})

	t.Run("a released key is accepted again", func(t *testing.T) {
		fresh, _, err := store.Reserve(ctx, "payment:req-4", time.Hour)
		require.NoError(t, err)
		require.True(t, fresh)

		require.NoError(t, store.Release(ctx, "payment:req-4"))

		fresh, _, err = store.Reserve(ctx, "payment:req-4", time.Hour)
		require.NoError(t, err)
		assert.True(t, fresh, "released key should be claimable again")
	})

	t.Run("allows the same key again after expiration", func(t *testing.T) {
		fresh, _, err := store.Reserve(ctx, "payment:req-5", 10*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, fresh)

		time.Sleep(20 * time.Millisecond)

		fresh, _, err = store.Reserve(ctx, "payment:req-5", 10*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, fresh, "expired key should be accepted again")
	})
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	store.Reserve(ctx, "short-lived-1", 10*time.Millisecond)
	store.Reserve(ctx, "short-lived-2", 10*time.Millisecond)
	store.Complete(ctx, "long-lived", "PAY-0002", time.Hour)

	assert.Equal(t, 3, store.Size())

	time.Sleep(20 * time.Millisecond)
	store.cleanup()

	assert.Equal(t, 1, store.Size())

	fresh, result, err := store.Reserve(ctx, "long-lived", time.Hour)
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.Equal(t, "PAY-0002", result)
}

func TestInMemoryIdempotencyStore_ConcurrentAccess(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()
	const numGoroutines = 100
	const key = "payment:concurrent"

	results := make(chan bool, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			fresh, _, err := store.Reserve(ctx, key, time.Hour)
			if err != nil {
				results <- false
			} else {
				results <- fresh
			}
		}()
	}

	freshCount := 0
	for i := 0; i < numGoroutines; i++ {
		if <-results {
			freshCount++
		}
	}

	assert.Equal(t, 1, freshCount, "exactly one goroutine should claim the key")
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()

	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
