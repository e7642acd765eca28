package authapi

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls auth API behavior and security defaults.
type Config struct {
	TrustProxy   bool
	MaxBodyBytes int64

	// Sliding-window throttle on credential submissions per client IP.
	SignInIPMax    int
	SignInIPWindow time.Duration

	VisitorCookieName string
	VisitorCookieTTL  time.Duration
	CookieSecure      bool

	// Scopes idle longer than this are evicted and their event
	// subscriptions closed.
	ScopeIdleTTL time.Duration
}

// LoadConfigFromEnv loads auth config from environment variables with safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		TrustProxy:        envBool("NIMBUS_AUTH_TRUST_PROXY", false),
		MaxBodyBytes:      envInt64("NIMBUS_AUTH_MAX_BODY_BYTES", 1<<20), // 1 MiB
		SignInIPMax:       envInt("NIMBUS_AUTH_SIGNIN_IP_MAX", 20),
		SignInIPWindow:    envDuration("NIMBUS_AUTH_SIGNIN_IP_WINDOW", 5*time.Minute),
		VisitorCookieName: "nimbus_vid",
		VisitorCookieTTL:  envDuration("NIMBUS_AUTH_VISITOR_COOKIE_TTL", 180*24*time.Hour),
		CookieSecure:      envBool("NIMBUS_AUTH_COOKIE_SECURE", false),
		ScopeIdleTTL:      envDuration("NIMBUS_AUTH_SCOPE_IDLE_TTL", 30*time.Minute),
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.SignInIPMax <= 0 {
		cfg.SignInIPMax = 20
	}
	if cfg.VisitorCookieTTL <= 0 {
		cfg.VisitorCookieTTL = 180 * 24 * time.Hour
	}
	if cfg.ScopeIdleTTL <= 0 {
		cfg.ScopeIdleTTL = 30 * time.Minute
	}

	return cfg
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
