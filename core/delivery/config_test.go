package delivery_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwire/realtime/core/delivery"
)

func TestLoadConfig(t *testing.T) {
	// Config loading is cached per type, so the environment is set once and
	// both subtests observe the same loaded value. No t.Parallel here:
	// t.Setenv mutates process state.
	t.Setenv("DELIVERY_SEND_TIMEOUT", "2s")
	t.Setenv("DELIVERY_MAX_ATTEMPTS", "5")
	t.Setenv("ENVIRONMENT_PRE_PRODUCTION", "true")

	cfg, err := delivery.LoadConfig()
	require.NoError(t, err)

	t.Run("reads overrides from the environment", func(t *testing.T) {
		assert.Equal(t, 2*time.Second, cfg.SendTimeout)
		assert.Equal(t, 5, cfg.MaxAttempts)
		assert.True(t, cfg.PreProduction)
	})

	t.Run("applies tag defaults for unset variables", func(t *testing.T) {
		assert.Equal(t, time.Second, cfg.BackoffBase)
		assert.Equal(t, 500*time.Millisecond, cfg.CriticalRetryDelay)
	})

	t.Run("later loads return the cached value", func(t *testing.T) {
		t.Setenv("DELIVERY_MAX_ATTEMPTS", "9")

		again, err := delivery.LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, cfg, again)
	})
}
