// Package config loads linear-mcp configuration with viper: built-in
// defaults, an optional YAML file in the XDG config directory, LINEAR_MCP_*
// environment variables (plus the LINEAR_API_KEY credential) and runtime
// overrides from CLI flags.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/linearmcp/linear-mcp/internal/appid"
)

// APIKeyEnv is the conventional Linear credential variable.
const APIKeyEnv = "LINEAR_API_KEY"

var (
	appConfig *Config
	configMu  sync.RWMutex
)

// LoadOptions controls where Load looks for its inputs.
type LoadOptions struct {
	// ConfigFile is an explicit config path. When set it must exist.
	ConfigFile string
	// DotEnvFile is loaded into the process environment before env lookup.
	// Defaults to ".env"; a missing file is ignored.
	DotEnvFile string
	// SkipDotEnv disables .env loading.
	SkipDotEnv bool
	// Overrides are dotted keys (e.g. "rate_limit.limit") applied last.
	Overrides map[string]any
}

// Load resolves the configuration. It is safe to call multiple times.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	if !opts.SkipDotEnv {
		if err := loadDotEnv(opts.DotEnvFile); err != nil {
			return nil, err
		}
	}

	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	if err := readConfigFile(v, opts.ConfigFile); err != nil {
		return nil, err
	}

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToFloat64HookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Linear.APIKey = strings.TrimSpace(cfg.Linear.APIKey)
	if strings.TrimSpace(cfg.Store.URL) == "" && strings.TrimSpace(cfg.Store.Path) == "" {
		cfg.Store.Path = DefaultStorePath()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	setConfig(cfg)
	return cfg, nil
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// setConfig updates the current configuration (thread-safe)
func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

func setDefaults(v *viper.Viper) {
	identity := appid.Get()

	v.SetDefault("linear.api_key", "")
	v.SetDefault("linear.api_url", "https://api.linear.app/graphql")
	v.SetDefault("linear.timeout", 30*time.Second)
	v.SetDefault("linear.user_agent", identity.BinaryName)

	v.SetDefault("rate_limit.limit", 1000)
	v.SetDefault("rate_limit.window", time.Hour)
	v.SetDefault("rate_limit.margin", 1.0)

	v.SetDefault("search.limit", 50)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.resource_ttl", 10*time.Minute)

	v.SetDefault("store.driver", "libsql")
	v.SetDefault("store.path", "")
	v.SetDefault("store.url", "")
	v.SetDefault("store.auth_token", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "STRUCTURED")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9464)

	v.SetDefault("status.enabled", false)
	v.SetDefault("status.host", "127.0.0.1")
	v.SetDefault("status.port", 8765)
	v.SetDefault("status.read_timeout", 10*time.Second)
	v.SetDefault("status.write_timeout", 10*time.Second)
	v.SetDefault("status.shutdown_timeout", 5*time.Second)
}

func bindEnv(v *viper.Viper) {
	prefix := strings.TrimSuffix(appid.Get().EnvPrefix, "_")
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Short aliases, first match wins.
	_ = v.BindEnv("linear.api_key", appid.EnvVar("linear.api_key"), APIKeyEnv)
	_ = v.BindEnv("logging.level", appid.EnvVar("logging.level"), appid.EnvVar("log_level"))
	_ = v.BindEnv("store.url", appid.EnvVar("store.url"), appid.EnvVar("db_url"))
	_ = v.BindEnv("store.auth_token", appid.EnvVar("store.auth_token"), appid.EnvVar("db_auth_token"))
}

func readConfigFile(v *viper.Viper, explicit string) error {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", explicit, err)
		}
		return nil
	}

	if dir := gfconfig.GetAppConfigDir(appid.Get().ConfigName); strings.TrimSpace(dir) != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath("./config")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

func loadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	// Existing environment variables win over .env entries.
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath() string {
	configDir := gfconfig.GetAppConfigDir(appid.Get().ConfigName)
	if strings.TrimSpace(configDir) == "" {
		return ""
	}
	return filepath.Join(configDir, "config.yaml")
}

// DefaultDataDir returns the XDG-compliant data directory for the app.
func DefaultDataDir() string {
	return gfconfig.GetAppDataDir(appid.Get().ConfigName)
}

// DefaultStorePath returns the XDG-compliant path to the database file.
func DefaultStorePath() string {
	identity := appid.Get()
	dataDir := DefaultDataDir()
	if strings.TrimSpace(dataDir) == "" {
		return "./" + identity.BinaryName + ".db"
	}
	return filepath.Join(dataDir, identity.BinaryName+".db")
}
