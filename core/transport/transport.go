package transport

import "context"

// Transport is one live network session capable of delivering structured
// messages to a client. Implementations must be safe for concurrent use.
//
// Send blocks until the message is written, the context is done, or the
// session fails. A closed session returns an error matching ErrClosed;
// a context deadline surfaces as context.DeadlineExceeded; anything else is
// treated as transient by callers.
type Transport interface {
	// Send writes a JSON-safe message to the peer. The context carries the
	// per-attempt deadline set by the caller.
	Send(ctx context.Context, message any) error

	// IsOpen reports whether the session can still accept sends.
	IsOpen() bool

	// Close tears the session down. Safe to call multiple times.
	Close() error
}
