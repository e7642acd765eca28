package remote

import (
	"net/url"
	"os"
	"strings"
	"time"
)

// Config defines runtime configuration for the backend client.
type Config struct {
	// BaseURL is the root of the hosted backend, e.g. https://auth.nimbus.dev.
	BaseURL string

	// AnonKey is the public API key sent with every request.
	AnonKey string

	// HTTPTimeout bounds each credential operation round trip.
	HTTPTimeout time.Duration

	// EventReadLimit bounds a single change-notification frame in bytes.
	EventReadLimit int64
}

// DefaultConfig returns defaults suitable for development.
func DefaultConfig() Config {
	return Config{
		HTTPTimeout:    10 * time.Second,
		EventReadLimit: 1 << 20,
	}
}

// LoadConfigFromEnv loads backend client configuration.
//
// Required:
//   - NIMBUS_BACKEND_URL
//   - NIMBUS_BACKEND_ANON_KEY
//
// Optional:
//   - NIMBUS_BACKEND_HTTP_TIMEOUT
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("NIMBUS_BACKEND_URL")), "/")
	if cfg.BaseURL == "" {
		return Config{}, ErrConfig
	}
	if u, err := url.Parse(cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return Config{}, ErrConfig
	}

	cfg.AnonKey = strings.TrimSpace(os.Getenv("NIMBUS_BACKEND_ANON_KEY"))
	if cfg.AnonKey == "" {
		return Config{}, ErrConfig
	}

	if v := os.Getenv("NIMBUS_BACKEND_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.HTTPTimeout = d
	}

	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.BaseURL) == "" || strings.TrimSpace(c.AnonKey) == "" {
		return ErrConfig
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrConfig
	}
	return nil
}
