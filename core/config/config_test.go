package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwire/realtime/core/config"
)

type serverConfig struct {
	Addr        string        `env:"TEST_SERVER_ADDR" envDefault:":8080"`
	ReadTimeout time.Duration `env:"TEST_SERVER_READ_TIMEOUT" envDefault:"15s"`
}

type requiredConfig struct {
	Token string `env:"TEST_REQUIRED_TOKEN,required"`
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		var cfg serverConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	})

	t.Run("reads from environment", func(t *testing.T) {
		t.Setenv("TEST_ENV_ADDR", "127.0.0.1:9000")

		type envConfig struct {
			Addr string `env:"TEST_ENV_ADDR"`
		}
		var cfg envConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	})

	t.Run("caches per type", func(t *testing.T) {
		t.Setenv("TEST_CACHED_VALUE", "first")

		type cachedConfig struct {
			Value string `env:"TEST_CACHED_VALUE"`
		}
		var first cachedConfig
		require.NoError(t, config.Load(&first))

		t.Setenv("TEST_CACHED_VALUE", "second")
		var second cachedConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, first, second)
	})

	t.Run("missing required variable fails", func(t *testing.T) {
		var cfg requiredConfig
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrParseFailed)
	})

	t.Run("nil target fails", func(t *testing.T) {
		err := config.Load[serverConfig](nil)
		assert.ErrorIs(t, err, config.ErrNilConfig)
	})
}

func TestMustLoad(t *testing.T) {
	t.Run("panics on missing required variable", func(t *testing.T) {
		assert.Panics(t, func() {
			var cfg requiredConfig
			config.MustLoad(&cfg)
		})
	})

	t.Run("succeeds with defaults", func(t *testing.T) {
		assert.NotPanics(t, func() {
			var cfg serverConfig
			config.MustLoad(&cfg)
		})
	})
}
