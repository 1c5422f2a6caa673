package delivery

import "errors"

var (
	// ErrValidation is returned for bad caller input, such as an empty user
	// ID or event type. Validation failures are never retried.
	ErrValidation = errors.New("validation failed")

	// ErrNilRegistry is returned when the engine is constructed without a registry.
	ErrNilRegistry = errors.New("registry cannot be nil")

	// ErrNilStore is returned when the engine is constructed without a recovery store.
	ErrNilStore = errors.New("recovery store cannot be nil")

	// ErrHealthcheckFailed indicates the engine's collaborators are unreachable.
	ErrHealthcheckFailed = errors.New("delivery healthcheck failed")
)
