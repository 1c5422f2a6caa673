package transport

import (
	"context"
	"sync"
)

const (
	// DefaultChannelBufferSize is the default buffer size for ChannelTransport.
	DefaultChannelBufferSize = 100
)

// ChannelTransport delivers messages over an in-process buffered channel.
// It backs same-process consumers and the test suites, where SetSendHook
// injects timeouts, transient failures and disconnects.
//
// ChannelTransport is safe for concurrent use. A full buffer blocks Send
// until the consumer catches up or the context deadline fires, which mirrors
// a slow network peer.
type ChannelTransport struct {
	ch chan any

	mu       sync.RWMutex
	closed   bool
	sendHook func(ctx context.Context, message any) error
}

// ChannelTransportOption configures a ChannelTransport.
type ChannelTransportOption func(*ChannelTransport)

// WithChannelBuffer sets the channel buffer size.
func WithChannelBuffer(size int) ChannelTransportOption {
	return func(t *ChannelTransport) {
		if size > 0 {
			t.ch = make(chan any, size)
		}
	}
}

// NewChannelTransport creates an in-process transport.
func NewChannelTransport(opts ...ChannelTransportOption) *ChannelTransport {
	t := &ChannelTransport{
		ch: make(chan any, DefaultChannelBufferSize),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetSendHook installs a hook invoked before each send. A non-nil return
// value is reported to the caller instead of delivering the message. Pass
// nil to remove the hook.
func (t *ChannelTransport) SetSendHook(hook func(ctx context.Context, message any) error) {
	t.mu.Lock()
	t.sendHook = hook
	t.mu.Unlock()
}

// Send delivers the message to the channel, honoring the context deadline.
func (t *ChannelTransport) Send(ctx context.Context, message any) error {
	t.mu.RLock()
	closed := t.closed
	hook := t.sendHook
	t.mu.RUnlock()

	if closed {
		return ErrClosed
	}
	if hook != nil {
		if err := hook(ctx, message); err != nil {
			return err
		}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case t.ch <- message:
		return nil
	}
}

// Receive returns the channel consumers read delivered messages from.
func (t *ChannelTransport) Receive() <-chan any {
	return t.ch
}

// IsOpen reports whether the transport still accepts sends.
func (t *ChannelTransport) IsOpen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return !t.closed
}

// Close marks the transport closed. The receive channel is left open so a
// consumer can finish draining buffered messages; it is never closed to keep
// concurrent Send calls race-free.
func (t *ChannelTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}
