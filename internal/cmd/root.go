package cmd

import (
	"fmt"

	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/linearmcp/linear-mcp/internal/appid"
	"github.com/linearmcp/linear-mcp/internal/config"
	"github.com/linearmcp/linear-mcp/internal/observability"
)

var (
	cfgFile string
	envFile string
	verbose bool

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           appid.Get().BinaryName,
	Short:         appid.Get().Description,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Metrics stay off until serve installs the Prometheus exporter.
	if sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: false}); err == nil {
		telemetry.SetGlobalSystem(sys)
	}

	identity := appid.Get()
	rootCmd.Long = fmt.Sprintf("%s - %s\n\nRun `%s serve` to speak MCP over stdio.", identity.BinaryName, identity.Description, identity.BinaryName)

	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		fmt.Sprintf("config file (default is %s)", config.DefaultConfigPath()))
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
}

func initLogging() {
	observability.InitCLILogger(appid.Get().BinaryName, verbose)
}

// loadConfig resolves configuration for cmd. Flags listed in bindings
// (flag name to config key) override file and environment values when set.
func loadConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, error) {
	return config.Load(cmd.Context(), config.LoadOptions{
		ConfigFile: cfgFile,
		DotEnvFile: envFile,
		Overrides:  flagOverrides(cmd.Flags(), bindings),
	})
}

func flagOverrides(flags *pflag.FlagSet, bindings map[string]string) map[string]any {
	overrides := make(map[string]any)
	for name, key := range bindings {
		flag := flags.Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		overrides[key] = flag.Value.String()
	}
	if verbose {
		overrides["logging.level"] = "debug"
	}
	return overrides
}
