// Package config provides centralized configuration management for the dashboard.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Workbook WorkbookConfig
	Session  SessionConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Database DatabaseConfig
	Chart    ChartConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including draining uploads (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// WorkbookConfig holds workbook discovery and upload settings.
type WorkbookConfig struct {
	// Dir is scanned for .xlsx/.csv workbooks. Empty disables the catalog.
	Dir string `env:"WORKBOOK_DIR" default:"workbooks"`

	// Watch rescans Dir when files change (default: true)
	Watch bool `env:"WORKBOOK_WATCH" default:"true"`

	// Preload parses every catalog workbook at startup (default: false)
	Preload bool `env:"WORKBOOK_PRELOAD" default:"false"`

	// PreloadConcurrency bounds parallel parsing during preload (default: 4)
	PreloadConcurrency int `env:"WORKBOOK_PRELOAD_CONCURRENCY" default:"4"`

	// MaxFileSize accepts human sizes such as "50MB" or "1GiB" (default: 50MB)
	MaxFileSize ByteSize `env:"WORKBOOK_MAX_FILE_SIZE" default:"50MB"`

	// MaxConcurrent is the maximum number of uploads parsed at once (default: 4)
	MaxConcurrent int `env:"WORKBOOK_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long an upload waits for a parse slot (default: 30s)
	MaxWaitTime time.Duration `env:"WORKBOOK_MAX_WAIT_TIME" default:"30s"`
}

// SessionConfig holds per-user session settings.
type SessionConfig struct {
	CookieName string `env:"SESSION_COOKIE_NAME" default:"sheetdash_session"`

	// SecureCookie sets the Secure flag; enable behind TLS (default: false)
	SecureCookie bool `env:"SESSION_SECURE_COOKIE" default:"false"`

	// IdleTimeout discards sessions not seen for this long (default: 2h)
	IdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" default:"2h"`

	// SweepInterval is how often expired sessions are removed (default: 5m)
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" default:"5m"`

	// MaxWorkbooks caps uploaded workbooks held per session; the oldest is
	// evicted first (default: 5)
	MaxWorkbooks int `env:"SESSION_MAX_WORKBOOKS" default:"5"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// UploadLimit is requests per minute for the upload endpoint (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey protects the /api routes with X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// DatabaseConfig holds the optional audit database settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. When empty the audit trail is
	// kept in memory. Supports both DATABASE_URL and DB_URL.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"0"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ChartConfig holds chart image settings.
type ChartConfig struct {
	Width  int `env:"CHART_WIDTH" default:"960"`
	Height int `env:"CHART_HEIGHT" default:"360"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// AuditEnabled reports whether a database is configured for the audit trail.
func (c *DatabaseConfig) AuditEnabled() bool {
	return c.URL != ""
}
