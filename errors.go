package realtime

import "errors"

// ErrUnhealthy is returned by Healthcheck when the aggregated background
// task health drops below the healthy threshold.
var ErrUnhealthy = errors.New("background task health below threshold")
