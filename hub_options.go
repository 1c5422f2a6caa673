package realtime

import (
	"log/slog"
	"time"

	"github.com/chatwire/realtime/core/delivery"
	"github.com/chatwire/realtime/core/recovery"
	"github.com/chatwire/realtime/core/serialize"
)

type hubConfig struct {
	deliveryOpts []delivery.Option
}

// HubOption configures a Hub at construction time.
type HubOption func(*Hub, *hubConfig)

// WithLogger sets the logger shared by the hub's components.
func WithLogger(logger *slog.Logger) HubOption {
	return func(h *Hub, _ *hubConfig) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithStore substitutes the recovery store, e.g. a Redis-backed store shared
// across instances. Defaults to an in-memory store.
func WithStore(store recovery.Store) HubOption {
	return func(h *Hub, _ *hubConfig) {
		if store != nil {
			h.store = store
		}
	}
}

// WithDeliveryConfig tunes the delivery engine's timeout/retry policy.
func WithDeliveryConfig(cfg delivery.Config) HubOption {
	return func(_ *Hub, c *hubConfig) {
		c.deliveryOpts = append(c.deliveryOpts, delivery.WithConfig(cfg))
	}
}

// WithSerializer replaces the payload serializer used by the delivery engine.
func WithSerializer(s *serialize.Serializer) HubOption {
	return func(_ *Hub, c *hubConfig) {
		if s != nil {
			c.deliveryOpts = append(c.deliveryOpts, delivery.WithSerializer(s))
		}
	}
}

// WithFlushInterval sets how often the recovery-flush task replays backlogs
// for connected users.
func WithFlushInterval(d time.Duration) HubOption {
	return func(h *Hub, _ *hubConfig) {
		if d > 0 {
			h.flushInterval = d
		}
	}
}

// WithSweepInterval sets how often the stale-connection sweep runs.
func WithSweepInterval(d time.Duration) HubOption {
	return func(h *Hub, _ *hubConfig) {
		if d > 0 {
			h.sweepInterval = d
		}
	}
}
