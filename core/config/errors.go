package config

import "errors"

var (
	// ErrNilConfig is returned when Load receives a nil pointer.
	ErrNilConfig = errors.New("config target cannot be nil")

	// ErrParseFailed wraps environment parsing errors.
	ErrParseFailed = errors.New("failed to parse environment")
)
