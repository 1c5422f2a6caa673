package transport

import "errors"

var (
	// ErrClosed is returned when the peer has disconnected or the transport
	// was closed locally. Sends failing with ErrClosed must not be retried.
	ErrClosed = errors.New("transport is closed")

	// ErrSendFailed wraps transient write failures that are safe to retry.
	ErrSendFailed = errors.New("transport send failed")
)
