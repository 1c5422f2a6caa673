package recovery

import (
	"context"
	"time"
)

// DefaultMaxPerUser is the per-user backlog cap. Insertion beyond the cap
// evicts the oldest entry.
const DefaultMaxPerUser = 50

// Entry is one undelivered message awaiting reconnection.
type Entry struct {
	Message    any       `json:"message"`
	Reason     string    `json:"reason"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Store is a bounded per-user FIFO of undelivered messages. Implementations
// must be safe for concurrent use and must keep Drain atomic with respect to
// concurrent Enqueue calls for the same user.
type Store interface {
	// Enqueue appends an entry to the user's backlog, evicting the oldest
	// entry when the backlog is at capacity.
	Enqueue(ctx context.Context, userID string, entry Entry) error

	// Drain returns and clears all pending entries for the user in original
	// enqueue order, oldest first.
	Drain(ctx context.Context, userID string) ([]Entry, error)

	// Len reports the number of pending entries for the user.
	Len(ctx context.Context, userID string) (int, error)
}
