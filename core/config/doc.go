// Package config provides type-safe environment variable loading with
// per-type caching using Go generics. Each configuration type is parsed
// once and cached for subsequent calls.
//
// The package loads a .env file on first use when one exists and relies on
// the caarlos0/env library for parsing environment variables into struct
// fields.
//
// Basic usage:
//
//	import "github.com/chatwire/realtime/core/config"
//
//	type DeliveryConfig struct {
//		SendTimeout time.Duration `env:"DELIVERY_SEND_TIMEOUT" envDefault:"5s"`
//		MaxAttempts int           `env:"DELIVERY_MAX_ATTEMPTS" envDefault:"3"`
//	}
//
//	func main() {
//		var cfg DeliveryConfig
//
//		if err := config.Load(&cfg); err != nil {
//			log.Fatal(err)
//		}
//
//		// Or panic on failure (useful for startup)
//		config.MustLoad(&cfg)
//	}
//
// # Caching Behavior
//
// Each configuration type is loaded only once per process:
//
//	var cfg1 DeliveryConfig
//	config.Load(&cfg1) // Parses the environment
//
//	var cfg2 DeliveryConfig
//	config.Load(&cfg2) // Returns the cached value, cfg1 == cfg2
//
// Different types are cached independently.
package config
