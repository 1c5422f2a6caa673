package delivery

import "sync/atomic"

// Stats is a point-in-time snapshot of the engine's delivery counters.
// Counters are process-wide, reset only on restart, and updated with plain
// atomic increments; exact precision under high contention is not required.
type Stats struct {
	MessagesSent    int64 `json:"messages_sent"`
	ErrorsHandled   int64 `json:"errors_handled"`
	TimeoutRetries  int64 `json:"timeout_retries"`
	TimeoutFailures int64 `json:"timeout_failures"`
	SendTimeouts    int64 `json:"send_timeouts"`
	BroadcastsSent  int64 `json:"broadcasts_sent"`
}

type counters struct {
	messagesSent    atomic.Int64
	errorsHandled   atomic.Int64
	timeoutRetries  atomic.Int64
	timeoutFailures atomic.Int64
	sendTimeouts    atomic.Int64
	broadcastsSent  atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		MessagesSent:    c.messagesSent.Load(),
		ErrorsHandled:   c.errorsHandled.Load(),
		TimeoutRetries:  c.timeoutRetries.Load(),
		TimeoutFailures: c.timeoutFailures.Load(),
		SendTimeouts:    c.sendTimeouts.Load(),
		BroadcastsSent:  c.broadcastsSent.Load(),
	}
}
