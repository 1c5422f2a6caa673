package recovery

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/chatwire/realtime/core/logger"
)

// MemoryStore keeps per-user backlogs in process memory. Suitable for
// single-instance deployments and testing; backlogs are lost on restart.
type MemoryStore struct {
	mu         sync.Mutex
	backlogs   map[string][]Entry
	maxPerUser int
	logger     *slog.Logger
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithMaxPerUser overrides the per-user backlog cap.
func WithMaxPerUser(n int) MemoryStoreOption {
	return func(s *MemoryStore) {
		if n > 0 {
			s.maxPerUser = n
		}
	}
}

// WithMemoryStoreLogger sets the logger for eviction events.
func WithMemoryStoreLogger(logger *slog.Logger) MemoryStoreOption {
	return func(s *MemoryStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewMemoryStore creates an in-memory recovery store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		backlogs:   make(map[string][]Entry),
		maxPerUser: DefaultMaxPerUser,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enqueue appends to the user's backlog, evicting the oldest entry once the
// cap is reached.
func (s *MemoryStore) Enqueue(ctx context.Context, userID string, entry Entry) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	if entry.EnqueuedAt.IsZero() {
		entry.EnqueuedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	backlog := append(s.backlogs[userID], entry)
	if len(backlog) > s.maxPerUser {
		evicted := len(backlog) - s.maxPerUser
		backlog = backlog[evicted:]
		s.logger.Warn("recovery backlog at capacity, evicted oldest entries",
			logger.UserID(userID),
			logger.Count("evicted", evicted),
			logger.Count("cap", s.maxPerUser))
	}
	s.backlogs[userID] = backlog

	return nil
}

// Drain returns and clears the user's backlog, oldest first.
func (s *MemoryStore) Drain(ctx context.Context, userID string) ([]Entry, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	backlog := s.backlogs[userID]
	delete(s.backlogs, userID)
	return backlog, nil
}

// Len reports the user's pending entry count.
func (s *MemoryStore) Len(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, ErrEmptyUserID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.backlogs[userID]), nil
}
