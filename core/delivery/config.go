package delivery

import (
	"time"

	"github.com/chatwire/realtime/core/config"
)

// Config holds the delivery engine tuning knobs. Designed for
// environment-based configuration using popular env parsing libraries.
type Config struct {
	// SendTimeout is the hard upper bound for one send attempt.
	SendTimeout time.Duration `env:"DELIVERY_SEND_TIMEOUT" envDefault:"5s"`

	// MaxAttempts caps the total attempts per message (first try + retries).
	MaxAttempts int `env:"DELIVERY_MAX_ATTEMPTS" envDefault:"3"`

	// BackoffBase is the delay before the first retry; each further retry
	// doubles it (1s, 2s, 4s, ...).
	BackoffBase time.Duration `env:"DELIVERY_BACKOFF_BASE" envDefault:"1s"`

	// CriticalRetryDelay is the pause before the single extra retry a failed
	// critical event gets in pre-production environments.
	CriticalRetryDelay time.Duration `env:"DELIVERY_CRITICAL_RETRY_DELAY" envDefault:"500ms"`

	// PreProduction enables the extra critical-event retry.
	PreProduction bool `env:"ENVIRONMENT_PRE_PRODUCTION" envDefault:"false"`
}

// DefaultConfig returns the production retry policy.
func DefaultConfig() Config {
	return Config{
		SendTimeout:        5 * time.Second,
		MaxAttempts:        3,
		BackoffBase:        time.Second,
		CriticalRetryDelay: 500 * time.Millisecond,
		PreProduction:      false,
	}
}

// LoadConfig reads the retry policy from the environment (DELIVERY_* and
// ENVIRONMENT_PRE_PRODUCTION variables), falling back to the tag defaults.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
