package recovery

import "errors"

var (
	// ErrEmptyUserID is returned when an operation targets an empty user ID.
	ErrEmptyUserID = errors.New("user id cannot be empty")

	// ErrStoreUnavailable wraps backend failures (e.g. Redis connectivity).
	ErrStoreUnavailable = errors.New("recovery store unavailable")
)
