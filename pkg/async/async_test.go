package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwire/realtime/pkg/async"
)

func TestGo(t *testing.T) {
	t.Parallel()

	t.Run("returns function error", func(t *testing.T) {
		t.Parallel()

		sentinel := errors.New("boom")
		f := async.Go(context.Background(), func(ctx context.Context) error {
			return sentinel
		})
		assert.ErrorIs(t, f.Await(), sentinel)
		assert.True(t, f.IsComplete())
	})

	t.Run("pre-cancelled context short-circuits", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		ran := false
		f := async.Go(ctx, func(ctx context.Context) error {
			ran = true
			return nil
		})
		assert.ErrorIs(t, f.Await(), context.Canceled)
		assert.False(t, ran)
	})

	t.Run("await with timeout", func(t *testing.T) {
		t.Parallel()

		block := make(chan struct{})
		f := async.Go(context.Background(), func(ctx context.Context) error {
			<-block
			return nil
		})

		err := f.AwaitWithTimeout(20 * time.Millisecond)
		assert.ErrorIs(t, err, async.ErrAwaitTimeout)
		assert.False(t, f.IsComplete())

		close(block)
		require.NoError(t, f.AwaitWithTimeout(time.Second))
	})
}

func TestJoinAll(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("boom")
	ok := async.Go(context.Background(), func(ctx context.Context) error { return nil })
	bad := async.Go(context.Background(), func(ctx context.Context) error { return sentinel })

	assert.ErrorIs(t, async.JoinAll(ok, bad), sentinel)
	assert.NoError(t, async.JoinAll())
}
