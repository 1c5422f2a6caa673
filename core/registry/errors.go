package registry

import "errors"

var (
	// ErrNilConnection is returned when a nil connection is added.
	ErrNilConnection = errors.New("connection cannot be nil")

	// ErrEmptyUserID is returned when a connection has no user ID.
	ErrEmptyUserID = errors.New("user id cannot be empty")

	// ErrNilTransport is returned when a connection is created without a transport.
	ErrNilTransport = errors.New("transport cannot be nil")
)
