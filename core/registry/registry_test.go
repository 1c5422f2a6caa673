package registry_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwire/realtime/core/registry"
	"github.com/chatwire/realtime/core/transport"
)

func newTestConnection(t *testing.T, userID string, opts ...registry.ConnectionOption) *registry.Connection {
	t.Helper()
	conn, err := registry.NewConnection(userID, transport.NewChannelTransport(), opts...)
	require.NoError(t, err)
	return conn
}

func TestNewConnection(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		conn := newTestConnection(t, "u1")
		assert.NotEmpty(t, conn.ID())
		assert.Equal(t, "u1", conn.UserID())
		assert.True(t, conn.IsHealthy())
		assert.True(t, conn.IsOpen())
		assert.Zero(t, conn.MessageCount())
	})

	t.Run("empty user id", func(t *testing.T) {
		t.Parallel()

		_, err := registry.NewConnection("", transport.NewChannelTransport())
		assert.ErrorIs(t, err, registry.ErrEmptyUserID)
	})

	t.Run("nil transport", func(t *testing.T) {
		t.Parallel()

		_, err := registry.NewConnection("u1", nil)
		assert.ErrorIs(t, err, registry.ErrNilTransport)
	})

	t.Run("options", func(t *testing.T) {
		t.Parallel()

		conn := newTestConnection(t, "u1",
			registry.WithConnectionID("c1"),
			registry.WithThreadID("t1"),
			registry.WithMetadata(map[string]string{"client": "web"}))

		assert.Equal(t, "c1", conn.ID())
		assert.Equal(t, "t1", conn.ThreadID())
		assert.Equal(t, map[string]string{"client": "web"}, conn.Metadata())
	})
}

func TestRegistry_AddGetRemove(t *testing.T) {
	t.Parallel()

	t.Run("add then get", func(t *testing.T) {
		t.Parallel()

		reg := registry.New()
		conn := newTestConnection(t, "u1")
		require.NoError(t, reg.Add(conn))

		got, ok := reg.Get(conn.ID())
		require.True(t, ok)
		assert.Same(t, conn, got)
		assert.Contains(t, reg.UserConnections("u1"), conn.ID())
	})

	t.Run("remove clears all indexes", func(t *testing.T) {
		t.Parallel()

		reg := registry.New()
		conn := newTestConnection(t, "u1", registry.WithThreadID("t1"))
		require.NoError(t, reg.Add(conn))

		reg.Remove(conn.ID())

		_, ok := reg.Get(conn.ID())
		assert.False(t, ok)
		assert.NotContains(t, reg.UserConnections("u1"), conn.ID())
		assert.Empty(t, reg.ThreadConnections("t1"))
	})

	t.Run("remove unknown id is a no-op", func(t *testing.T) {
		t.Parallel()

		reg := registry.New()
		assert.NotPanics(t, func() { reg.Remove("missing") })
	})

	t.Run("nil connection rejected", func(t *testing.T) {
		t.Parallel()

		reg := registry.New()
		assert.ErrorIs(t, reg.Add(nil), registry.ErrNilConnection)
	})

	t.Run("id collision keeps indexes consistent", func(t *testing.T) {
		t.Parallel()

		reg := registry.New()
		first := newTestConnection(t, "u1", registry.WithConnectionID("c1"))
		second := newTestConnection(t, "u2", registry.WithConnectionID("c1"))
		require.NoError(t, reg.Add(first))
		require.NoError(t, reg.Add(second))

		got, ok := reg.Get("c1")
		require.True(t, ok)
		assert.Same(t, second, got)
		assert.Empty(t, reg.UserConnections("u1"))
		assert.Equal(t, []string{"c1"}, reg.UserConnections("u2"))
	})
}

func TestRegistry_UserLock(t *testing.T) {
	t.Parallel()

	t.Run("identity stable per user", func(t *testing.T) {
		t.Parallel()

		reg := registry.New()
		assert.Same(t, reg.UserLock("u1"), reg.UserLock("u1"))
		assert.NotSame(t, reg.UserLock("u1"), reg.UserLock("u2"))
	})

	t.Run("concurrent lookups return one instance", func(t *testing.T) {
		t.Parallel()

		reg := registry.New()
		locks := make([]*sync.Mutex, 50)

		var wg sync.WaitGroup
		for i := range locks {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				locks[i] = reg.UserLock("u1")
			}(i)
		}
		wg.Wait()

		for _, lock := range locks {
			assert.Same(t, locks[0], lock)
		}
	})
}

func TestRegistry_ConcurrentAdds(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	const n = 10

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn, err := registry.NewConnection("u1", transport.NewChannelTransport(),
				registry.WithConnectionID(fmt.Sprintf("c%d", i)))
			assert.NoError(t, err)
			assert.NoError(t, reg.Add(conn))
		}(i)
	}
	wg.Wait()

	assert.Len(t, reg.UserConnections("u1"), n)
	assert.Equal(t, n, reg.Len())
}

func TestRegistry_IsActive(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	assert.False(t, reg.IsActive("u1"))

	tr := transport.NewChannelTransport()
	conn, err := registry.NewConnection("u1", tr)
	require.NoError(t, err)
	require.NoError(t, reg.Add(conn))
	assert.True(t, reg.IsActive("u1"))

	require.NoError(t, tr.Close())
	assert.False(t, reg.IsActive("u1"))
}

func TestRegistry_Health(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	open := newTestConnection(t, "u1")
	closedTr := transport.NewChannelTransport()
	closed, err := registry.NewConnection("u1", closedTr)
	require.NoError(t, err)
	require.NoError(t, reg.Add(open))
	require.NoError(t, reg.Add(closed))
	require.NoError(t, closedTr.Close())

	snapshot := reg.Health("u1")
	assert.Equal(t, 2, snapshot.Total)
	assert.Equal(t, 1, snapshot.Active)
	assert.Len(t, snapshot.Connections, 2)

	// Diagnostics must not mutate state.
	assert.Len(t, reg.UserConnections("u1"), 2)
}

func TestRegistry_UpdateThread(t *testing.T) {
	t.Parallel()

	t.Run("moves connection between thread indexes", func(t *testing.T) {
		t.Parallel()

		reg := registry.New()
		conn := newTestConnection(t, "u1", registry.WithThreadID("t1"))
		require.NoError(t, reg.Add(conn))

		assert.True(t, reg.UpdateThread(conn.ID(), "t2"))
		assert.Equal(t, "t2", conn.ThreadID())
		assert.Empty(t, reg.ThreadConnections("t1"))
		assert.Equal(t, []string{conn.ID()}, reg.ThreadConnections("t2"))
	})

	t.Run("unknown connection returns false", func(t *testing.T) {
		t.Parallel()

		reg := registry.New()
		assert.False(t, reg.UpdateThread("missing", "t1"))
	})
}

func TestRegistry_WaitForConnection(t *testing.T) {
	t.Parallel()

	t.Run("returns immediately when active", func(t *testing.T) {
		t.Parallel()

		reg := registry.New()
		require.NoError(t, reg.Add(newTestConnection(t, "u1")))

		start := time.Now()
		ok := reg.WaitForConnection(context.Background(), "u1", time.Second, 10*time.Millisecond)
		assert.True(t, ok)
		assert.Less(t, time.Since(start), 100*time.Millisecond)
	})

	t.Run("returns once connection appears", func(t *testing.T) {
		t.Parallel()

		reg := registry.New()
		go func() {
			time.Sleep(50 * time.Millisecond)
			conn, err := registry.NewConnection("u1", transport.NewChannelTransport())
			if err == nil {
				_ = reg.Add(conn)
			}
		}()

		ok := reg.WaitForConnection(context.Background(), "u1", 2*time.Second, 10*time.Millisecond)
		assert.True(t, ok)
	})

	t.Run("times out without connection", func(t *testing.T) {
		t.Parallel()

		reg := registry.New()
		start := time.Now()
		ok := reg.WaitForConnection(context.Background(), "u1", 100*time.Millisecond, 10*time.Millisecond)
		assert.False(t, ok)
		assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	})

	t.Run("context cancellation stops the wait", func(t *testing.T) {
		t.Parallel()

		reg := registry.New()
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		ok := reg.WaitForConnection(ctx, "u1", 5*time.Second, 10*time.Millisecond)
		assert.False(t, ok)
	})
}
