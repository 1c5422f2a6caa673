package transport_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwire/realtime/core/transport"
)

func TestChannelTransport_Send(t *testing.T) {
	t.Parallel()

	t.Run("delivers message to receiver", func(t *testing.T) {
		t.Parallel()

		tr := transport.NewChannelTransport()
		require.NoError(t, tr.Send(context.Background(), "hello"))

		select {
		case msg := <-tr.Receive():
			assert.Equal(t, "hello", msg)
		case <-time.After(time.Second):
			t.Fatal("message was not delivered")
		}
	})

	t.Run("closed transport rejects sends", func(t *testing.T) {
		t.Parallel()

		tr := transport.NewChannelTransport()
		require.NoError(t, tr.Close())
		assert.False(t, tr.IsOpen())

		err := tr.Send(context.Background(), "hello")
		assert.ErrorIs(t, err, transport.ErrClosed)
	})

	t.Run("full buffer respects context deadline", func(t *testing.T) {
		t.Parallel()

		tr := transport.NewChannelTransport(transport.WithChannelBuffer(1))
		require.NoError(t, tr.Send(context.Background(), "first"))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := tr.Send(ctx, "second")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("send hook error surfaces to caller", func(t *testing.T) {
		t.Parallel()

		sentinel := errors.New("injected")
		tr := transport.NewChannelTransport()
		tr.SetSendHook(func(ctx context.Context, message any) error {
			return sentinel
		})

		err := tr.Send(context.Background(), "hello")
		assert.ErrorIs(t, err, sentinel)

		tr.SetSendHook(nil)
		assert.NoError(t, tr.Send(context.Background(), "hello"))
	})

	t.Run("close is idempotent", func(t *testing.T) {
		t.Parallel()

		tr := transport.NewChannelTransport()
		require.NoError(t, tr.Close())
		require.NoError(t, tr.Close())
	})
}
