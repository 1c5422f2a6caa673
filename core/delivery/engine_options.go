package delivery

import (
	"log/slog"

	"github.com/chatwire/realtime/core/serialize"
)

// Option is a functional option for configuring the engine.
type Option func(*Engine)

// WithConfig replaces the default retry policy.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		if cfg.SendTimeout > 0 {
			e.cfg.SendTimeout = cfg.SendTimeout
		}
		if cfg.MaxAttempts > 0 {
			e.cfg.MaxAttempts = cfg.MaxAttempts
		}
		if cfg.BackoffBase > 0 {
			e.cfg.BackoffBase = cfg.BackoffBase
		}
		if cfg.CriticalRetryDelay > 0 {
			e.cfg.CriticalRetryDelay = cfg.CriticalRetryDelay
		}
		e.cfg.PreProduction = cfg.PreProduction
	}
}

// WithLogger sets the logger for delivery outcomes.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSerializer replaces the default payload serializer.
func WithSerializer(s *serialize.Serializer) Option {
	return func(e *Engine) {
		if s != nil {
			e.serializer = s
		}
	}
}
