package async

import "errors"

var (
	// ErrAwaitTimeout is returned when AwaitWithTimeout expires before the
	// function completes. The function keeps running; only the wait stops.
	ErrAwaitTimeout = errors.New("await timed out")
)
