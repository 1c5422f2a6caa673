package recovery_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwire/realtime/core/recovery"
)

func TestMemoryStore_EnqueueDrain(t *testing.T) {
	t.Parallel()

	t.Run("drain returns entries oldest first", func(t *testing.T) {
		t.Parallel()

		store := recovery.NewMemoryStore()
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			require.NoError(t, store.Enqueue(ctx, "u1", recovery.Entry{
				Message: fmt.Sprintf("m%d", i),
				Reason:  "send_timeout",
			}))
		}

		entries, err := store.Drain(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "m0", entries[0].Message)
		assert.Equal(t, "m2", entries[2].Message)

		// Drain clears the backlog.
		n, err := store.Len(ctx, "u1")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("enqueue stamps time when missing", func(t *testing.T) {
		t.Parallel()

		store := recovery.NewMemoryStore()
		require.NoError(t, store.Enqueue(context.Background(), "u1", recovery.Entry{Message: "m"}))

		entries, err := store.Drain(context.Background(), "u1")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.False(t, entries[0].EnqueuedAt.IsZero())
	})

	t.Run("empty user id rejected", func(t *testing.T) {
		t.Parallel()

		store := recovery.NewMemoryStore()
		assert.ErrorIs(t, store.Enqueue(context.Background(), "", recovery.Entry{}), recovery.ErrEmptyUserID)

		_, err := store.Drain(context.Background(), "")
		assert.ErrorIs(t, err, recovery.ErrEmptyUserID)
	})

	t.Run("users are isolated", func(t *testing.T) {
		t.Parallel()

		store := recovery.NewMemoryStore()
		ctx := context.Background()
		require.NoError(t, store.Enqueue(ctx, "u1", recovery.Entry{Message: "for-u1"}))
		require.NoError(t, store.Enqueue(ctx, "u2", recovery.Entry{Message: "for-u2"}))

		entries, err := store.Drain(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "for-u1", entries[0].Message)

		n, err := store.Len(ctx, "u2")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestMemoryStore_Cap(t *testing.T) {
	t.Parallel()

	t.Run("never exceeds cap and evicts oldest", func(t *testing.T) {
		t.Parallel()

		store := recovery.NewMemoryStore()
		ctx := context.Background()

		for i := 0; i < 51; i++ {
			require.NoError(t, store.Enqueue(ctx, "u1", recovery.Entry{
				Message: fmt.Sprintf("m%d", i),
			}))
		}

		n, err := store.Len(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 50, n)

		entries, err := store.Drain(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, entries, 50)
		// The 51st enqueue evicted entry #1, not the newest.
		assert.Equal(t, "m1", entries[0].Message)
		assert.Equal(t, "m50", entries[49].Message)
	})

	t.Run("custom cap", func(t *testing.T) {
		t.Parallel()

		store := recovery.NewMemoryStore(recovery.WithMaxPerUser(2))
		ctx := context.Background()
		for i := 0; i < 5; i++ {
			require.NoError(t, store.Enqueue(ctx, "u1", recovery.Entry{Message: i}))
		}

		entries, err := store.Drain(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, 3, entries[0].Message)
		assert.Equal(t, 4, entries[1].Message)
	})
}

func TestMemoryStore_ConcurrentEnqueueDrain(t *testing.T) {
	t.Parallel()

	store := recovery.NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	drained := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.Enqueue(ctx, "u1", recovery.Entry{Message: i}))
		}(i)
	}
	for _i := 0; _i < 5; _i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entries, err := store.Drain(ctx, "u1")
			assert.NoError(t, err)
			mu.Lock()
			drained += len(entries)
			mu.Unlock()
		}()
	}
	wg.Wait()

	remaining, err := store.Drain(ctx, "u1")
	require.NoError(t, err)

	// Every entry is observed exactly once across drains, bounded by the cap.
	assert.LessOrEqual(t, drained+len(remaining), 100)
	assert.Positive(t, drained+len(remaining))
}
