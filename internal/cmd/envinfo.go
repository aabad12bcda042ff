package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/linearmcp/linear-mcp/internal/appid"
	"github.com/linearmcp/linear-mcp/internal/config"
	"github.com/linearmcp/linear-mcp/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display environment, configuration, and version information. Secrets are never printed.",
	Run: func(cmd *cobra.Command, args []string) {
		log := observability.CLILogger
		version := crucible.GetVersion()
		identity := appid.Get()

		log.Info("=== " + identity.BinaryName + " environment ===")
		log.Info("")

		log.Info("Application:")
		log.Info("  Name:       " + identity.BinaryName)
		log.Info("  Version:    " + versionInfo.Version)
		log.Info("  Commit:     " + versionInfo.Commit)
		log.Info("  Built:      " + versionInfo.BuildDate)
		log.Info("  Env prefix: " + identity.EnvPrefix)
		log.Info("")

		log.Info("SSOT:")
		log.Info("  Gofulmen:   "+version.Gofulmen, zap.String("gofulmen_version", version.Gofulmen))
		log.Info("  Crucible:   "+version.Crucible, zap.String("crucible_version", version.Crucible))
		log.Info("")

		log.Info("Runtime:")
		log.Info("  Go Version: "+runtime.Version(), zap.String("go_version", runtime.Version()))
		log.Info("  Platform:   " + runtime.GOOS + "/" + runtime.GOARCH)
		log.Info(fmt.Sprintf("  NumCPU:     %d", runtime.NumCPU()), zap.Int("num_cpu", runtime.NumCPU()))
		log.Info("")

		cfg, err := loadConfig(cmd, nil)
		if err != nil {
			log.Warn("Config load failed", zap.Error(err))
			return
		}

		log.Info("Configuration:")
		for _, line := range configInfoLines(cfg) {
			log.Info(line)
		}
		log.Info("")
		log.Info("=== end ===")
	},
}

// configInfoLines renders the resolved configuration. The API key and store
// auth token are reported as set or not set, never printed.
func configInfoLines(cfg *config.Config) []string {
	apiKey := "(not set)"
	if cfg.HasAPIKey() {
		apiKey = "(set)"
	}

	lines := []string{
		"  Config File:    " + configSource(),
		"  Data Dir:       " + config.DefaultDataDir(),
		"  Linear API:     " + cfg.Linear.APIURL,
		"  Linear API key: " + apiKey,
		"  Timeout:        " + cfg.Linear.Timeout.String(),
		fmt.Sprintf("  Rate limit:     %d per %s (margin %.2f)", cfg.RateLimit.Limit, cfg.RateLimit.Window, cfg.RateLimit.Margin),
		fmt.Sprintf("  Search limit:   %d", cfg.Search.Limit),
		fmt.Sprintf("  Cache:          %t (ttl %s)", cfg.Cache.Enabled, cfg.Cache.ResourceTTL),
		"  DB Driver:      " + cfg.Store.Driver,
	}
	if strings.TrimSpace(cfg.Store.URL) != "" {
		token := "(not set)"
		if strings.TrimSpace(cfg.Store.AuthToken) != "" {
			token = "(set)"
		}
		lines = append(lines, "  DB URL:         "+cfg.Store.URL, "  DB Auth Token:  "+token)
	} else {
		lines = append(lines, "  DB Path:        "+cfg.Store.Path)
	}
	return append(lines,
		"  Log Level:      "+cfg.Logging.Level,
		fmt.Sprintf("  Metrics:        %t (port %d)", cfg.Metrics.Enabled, cfg.Metrics.Port),
		fmt.Sprintf("  Status server:  %t (%s:%d)", cfg.Status.Enabled, cfg.Status.Host, cfg.Status.Port),
	)
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
