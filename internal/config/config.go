package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the complete application configuration. Values are resolved from
// defaults, then the YAML config file, then LINEAR_MCP_* environment
// variables and finally runtime overrides (CLI flags).
type Config struct {
	Linear    LinearConfig    `mapstructure:"linear"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Search    SearchConfig    `mapstructure:"search"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Store     StoreConfig     `mapstructure:"store"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Status    StatusConfig    `mapstructure:"status"`
}

// LinearConfig configures the upstream GraphQL client.
type LinearConfig struct {
	// APIKey is sent verbatim as the Authorization header. Also read from
	// LINEAR_API_KEY.
	APIKey    string        `mapstructure:"api_key"`
	APIURL    string        `mapstructure:"api_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// RateLimitConfig configures the client-side sliding window governor.
type RateLimitConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
	// Margin scales Limit down, in (0,1]. 1 or 0 leaves it unchanged.
	Margin float64 `mapstructure:"margin"`
}

// SearchConfig bounds search-issues result pages.
type SearchConfig struct {
	Limit int `mapstructure:"limit"`
}

// CacheConfig controls caching of slow-changing resources
// (organization, teams).
type CacheConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	ResourceTTL time.Duration `mapstructure:"resource_ttl"`
}

// StoreConfig contains database configuration for libsql/Turso
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level: SIMPLE or STRUCTURED.
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// StatusConfig configures the optional HTTP status server.
type StatusConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// HasAPIKey reports whether a Linear credential is configured.
func (c *Config) HasAPIKey() bool {
	return c != nil && strings.TrimSpace(c.Linear.APIKey) != ""
}

// Validate checks value ranges. A missing API key is not a validation error;
// commands that talk to Linear check HasAPIKey themselves.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if c.RateLimit.Limit <= 0 {
		return fmt.Errorf("rate_limit.limit must be positive, got %d", c.RateLimit.Limit)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive, got %s", c.RateLimit.Window)
	}
	if c.RateLimit.Margin < 0 || c.RateLimit.Margin > 1 {
		return fmt.Errorf("rate_limit.margin must be in [0,1], got %g", c.RateLimit.Margin)
	}
	if c.Search.Limit <= 0 || c.Search.Limit > 250 {
		return fmt.Errorf("search.limit must be between 1 and 250, got %d", c.Search.Limit)
	}
	if c.Linear.Timeout <= 0 {
		return fmt.Errorf("linear.timeout must be positive, got %s", c.Linear.Timeout)
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
	if c.Status.Enabled && (c.Status.Port < 0 || c.Status.Port > 65535) {
		return fmt.Errorf("status.port out of range: %d", c.Status.Port)
	}
	return nil
}
