package recovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps per-user backlogs in Redis lists so undelivered messages
// survive process restarts. Entries are JSON-encoded; messages must already
// be JSON-safe (the delivery engine serializes before enqueueing).
type RedisStore struct {
	client     redis.UniversalClient
	keyPrefix  string
	maxPerUser int
	ttl        time.Duration
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithRedisKeyPrefix overrides the backlog key prefix. Default "recovery:".
func WithRedisKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.keyPrefix = prefix
		}
	}
}

// WithRedisMaxPerUser overrides the per-user backlog cap.
func WithRedisMaxPerUser(n int) RedisStoreOption {
	return func(s *RedisStore) {
		if n > 0 {
			s.maxPerUser = n
		}
	}
}

// WithRedisTTL expires idle backlogs after d. Zero disables expiry.
func WithRedisTTL(d time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// NewRedisStore creates a Redis-backed recovery store.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client:     client,
		keyPrefix:  "recovery:",
		maxPerUser: DefaultMaxPerUser,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(userID string) string {
	return s.keyPrefix + userID
}

// Enqueue appends to the user's Redis list and trims it to the cap, evicting
// the oldest entries. Both commands run in one pipeline so concurrent
// enqueues cannot grow the list beyond the cap.
func (s *RedisStore) Enqueue(ctx context.Context, userID string, entry Entry) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	if entry.EnqueuedAt.IsZero() {
		entry.EnqueuedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal recovery entry: %w", err)
	}

	key := s.key(userID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, int64(-s.maxPerUser), -1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// Drain atomically reads and deletes the user's backlog, oldest first.
func (s *RedisStore) Drain(ctx context.Context, userID string) ([]Entry, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	key := s.key(userID)
	pipe := s.client.TxPipeline()
	rangeCmd := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	raw := rangeCmd.Val()
	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var entry Entry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("unmarshal recovery entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Len reports the user's pending entry count.
func (s *RedisStore) Len(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, ErrEmptyUserID
	}

	n, err := s.client.LLen(ctx, s.key(userID)).Result()
	if err != nil {
		return 0, errors.Join(ErrStoreUnavailable, err)
	}
	return int(n), nil
}
