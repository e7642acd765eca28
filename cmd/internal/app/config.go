package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	RedisURL string

	// SiteOrigin is the public origin of this site, used for email
	// confirmation redirects and OAuth completion.
	SiteOrigin string

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int

	// If true:
	// - /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("NIMBUS_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("NIMBUS_LOG_LEVEL", "info"),
		LogFormat: EnvString("NIMBUS_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("NIMBUS_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("NIMBUS_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("NIMBUS_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("NIMBUS_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("NIMBUS_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("NIMBUS_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("NIMBUS_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("NIMBUS_DB_MIN_CONNS", 0),

		RedisURL: EnvString("NIMBUS_REDIS_URL", ""),

		SiteOrigin: EnvString("NIMBUS_SITE_ORIGIN", "http://localhost:8080"),

		CORSAllowedOrigins:   EnvStringSlice("NIMBUS_CORS_ALLOWED_ORIGINS", nil),
		CORSAllowCredentials: EnvBool("NIMBUS_CORS_ALLOW_CREDENTIALS", false),
		CORSMaxAgeSeconds:    EnvInt("NIMBUS_CORS_MAX_AGE_SECONDS", 600),

		ReadinessRequireDB: EnvBool("NIMBUS_READINESS_REQUIRE_DB", false),
	}
}
