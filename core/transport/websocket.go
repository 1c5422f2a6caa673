package transport

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type wsConfig struct {
	writeWait time.Duration
	pingWait  time.Duration
}

// WebSocketOption configures a WebSocketTransport.
type WebSocketOption func(*wsConfig)

// WithWriteWait sets the fallback write deadline applied when the send
// context carries no deadline of its own.
func WithWriteWait(d time.Duration) WebSocketOption {
	return func(c *wsConfig) {
		if d > 0 {
			c.writeWait = d
		}
	}
}

// WithPingWait sets the deadline used for liveness control frames.
func WithPingWait(d time.Duration) WebSocketOption {
	return func(c *wsConfig) {
		if d > 0 {
			c.pingWait = d
		}
	}
}

// WebSocketTransport adapts a gorilla/websocket connection to the Transport
// interface. Writes are serialized through an internal mutex because gorilla
// connections support at most one concurrent writer; this also provides the
// in-order delivery guarantee for sequential sends on one connection.
type WebSocketTransport struct {
	conn *websocket.Conn
	cfg  wsConfig

	writeMu sync.Mutex
	mu      sync.RWMutex
	closed  bool
}

// NewWebSocketTransport wraps an upgraded websocket connection.
func NewWebSocketTransport(conn *websocket.Conn, opts ...WebSocketOption) *WebSocketTransport {
	cfg := wsConfig{
		writeWait: 10 * time.Second,
		pingWait:  5 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &WebSocketTransport{conn: conn, cfg: cfg}
}

// Send writes the message as a JSON text frame. The write deadline comes from
// the context when present, otherwise from the configured write wait.
func (t *WebSocketTransport) Send(ctx context.Context, message any) error {
	if !t.IsOpen() {
		return ErrClosed
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(t.cfg.writeWait)
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return classifyWSError(err)
	}
	if err := t.conn.WriteJSON(message); err != nil {
		err = classifyWSError(err)
		if errors.Is(err, ErrClosed) {
			t.markClosed()
		}
		return err
	}
	return nil
}

// IsOpen reports whether the transport has been closed or has observed a
// terminal write failure.
func (t *WebSocketTransport) IsOpen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return !t.closed
}

// Close sends a close frame on a best-effort basis and tears the connection
// down. Subsequent calls are no-ops.
func (t *WebSocketTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	t.writeMu.Lock()
	_ = t.conn.SetWriteDeadline(time.Now().Add(t.cfg.pingWait))
	_ = t.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	t.writeMu.Unlock()

	return t.conn.Close()
}

func (t *WebSocketTransport) markClosed() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
}

// classifyWSError maps gorilla and net errors onto the package taxonomy.
// Close errors and dead connections become ErrClosed, deadline overruns
// surface as context.DeadlineExceeded, everything else stays transient.
func classifyWSError(err error) error {
	if err == nil {
		return nil
	}

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return errors.Join(ErrClosed, err)
	}
	if websocket.IsUnexpectedCloseError(err) || errors.Is(err, websocket.ErrCloseSent) {
		return errors.Join(ErrClosed, err)
	}
	if errors.Is(err, net.ErrClosed) {
		return errors.Join(ErrClosed, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.Join(context.DeadlineExceeded, err)
	}

	return errors.Join(ErrSendFailed, err)
}
