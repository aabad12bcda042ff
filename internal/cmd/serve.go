package cmd

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/signals"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/linearmcp/linear-mcp/internal/appid"
	"github.com/linearmcp/linear-mcp/internal/config"
	apperrors "github.com/linearmcp/linear-mcp/internal/errors"
	"github.com/linearmcp/linear-mcp/internal/metrics"
	"github.com/linearmcp/linear-mcp/internal/observability"
	"github.com/linearmcp/linear-mcp/internal/server"
	"github.com/linearmcp/linear-mcp/internal/server/handlers"
	"github.com/linearmcp/linear-mcp/internal/tools"
)

const serverInstructions = `Linear issue tracker access.

search-issues accepts key:value filters (assignee:@me, priority:high, state:"In Progress", team:<name>, label:<name>); remaining words match title or description.
read-resource and resources/read accept linear://issues[/id], linear://teams[/id] and linear://organization.
Every response carries apiMetrics with the remaining request budget for the current window.`

var serveFlagBindings = map[string]string{
	"status":         "status.enabled",
	"status-host":    "status.host",
	"status-port":    "status.port",
	"metrics":        "metrics.enabled",
	"metrics-port":   "metrics.port",
	"rate-limit":     "rate_limit.limit",
	"rate-window":    "rate_limit.window",
	"rate-margin":    "rate_limit.margin",
	"search-limit":   "search.limit",
	"log-level":      "logging.level",
	"linear-api-url": "linear.api_url",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server over stdio",
	Long: `Run the MCP server over stdio.

stdout carries the MCP protocol; logs go to stderr. With --status an HTTP
status server exposes /health, /version, /v1/usage and /metrics.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	identity := appid.Get()

	cfg, err := loadConfig(cmd, serveFlagBindings)
	if err != nil {
		ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Invalid configuration", err)
		return err
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}

	observability.InitServerLogger(identity.BinaryName, cfg.Logging.Level, identity.TelemetryNamespace)
	logger := observability.ServerLogger

	if cfg.Metrics.Enabled {
		if err := observability.InitMetrics(identity.TelemetryNamespace, cfg.Metrics.Port); err != nil {
			// Metrics are optional; keep serving without them.
			logger.Warn("Failed to initialize metrics", zap.Error(err))
		} else {
			metrics.SetServerStartTime(time.Now().Unix())
		}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	rt, err := newAppRuntime(ctx, cfg, logger)
	if err != nil {
		ExitWithCode(logger, foundry.ExitConfigInvalid, "Linear credential missing", err)
		return err
	}

	mcpSrv := tools.NewServer(identity.BinaryName, versionInfo.Version, serverInstructions, rt.registry())

	var status *server.Server
	health := handlers.NewHealthManager(versionInfo.Version)
	if cfg.Status.Enabled {
		health.RegisterChecker("store", handlers.CheckerFunc(rt.checkStore))
		status = server.New(cfg.Status.Host, cfg.Status.Port, server.Options{
			ReadTimeout:  cfg.Status.ReadTimeout,
			WriteTimeout: cfg.Status.WriteTimeout,
			Health:       health,
			Usage:        rt.limiter,
			AdminToken:   os.Getenv(appid.EnvVar("ADMIN_TOKEN")),
		})
	}

	logger.Info("Starting MCP server",
		zap.String("service", identity.BinaryName),
		zap.String("version", versionInfo.Version),
		zap.Int("rate_limit", cfg.RateLimit.Limit),
		zap.Duration("rate_window", cfg.RateLimit.Window),
		zap.Float64("rate_margin", cfg.RateLimit.Margin),
		zap.Bool("cache", rt.store != nil),
		zap.Bool("status_server", status != nil),
		zap.Bool("metrics", observability.TelemetrySystem != nil))

	cleanup := shutdownOnce(cfg.Status, status, rt, cancel)

	// LIFO: cleanup runs before the logger flush.
	signals.OnShutdown(func(ctx context.Context) error {
		if err := logger.Sync(); err != nil {
			logger.Debug("Logger sync returned error (may be benign)", zap.Error(err))
		}
		return nil
	})
	signals.OnShutdown(func(ctx context.Context) error {
		logger.Info("Shutdown signal received")
		return cleanup(ctx)
	})
	if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
		Window:  2 * time.Second,
		Message: "Press Ctrl+C again within 2 seconds to force quit",
	}); err != nil {
		logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
	}
	go func() {
		if err := signals.Listen(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Signal handler error", zap.Error(err))
		}
	}()

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer cancel()
		health.MarkStarted()
		stdio := mcpserver.NewStdioServer(mcpSrv)
		err := stdio.Listen(gctx, os.Stdin, os.Stdout)
		if err != nil && !errors.Is(err, context.Canceled) {
			return apperrors.WrapInternal(gctx, err, "stdio transport failed")
		}
		logger.Info("MCP client disconnected")
		return nil
	})

	if status != nil {
		group.Go(func() error {
			if err := status.Start(); err != nil {
				return apperrors.WrapInternal(gctx, err, "status server failed")
			}
			return nil
		})
		group.Go(func() error {
			<-gctx.Done()
			return cleanup(context.Background())
		})
	}

	err = group.Wait()
	if cleanupErr := cleanup(context.Background()); err == nil {
		err = cleanupErr
	}
	return err
}

// shutdownOnce returns an idempotent cleanup that stops the stdio loop, the
// status server and the store.
func shutdownOnce(cfg config.StatusConfig, status *server.Server, rt *appRuntime, cancel context.CancelFunc) func(context.Context) error {
	var (
		once sync.Once
		err  error
	)
	return func(ctx context.Context) error {
		once.Do(func() {
			cancel()
			if status != nil {
				timeout := cfg.ShutdownTimeout
				if timeout <= 0 {
					timeout = 5 * time.Second
				}
				shutdownCtx, done := context.WithTimeout(ctx, timeout)
				defer done()
				if shutdownErr := status.Shutdown(shutdownCtx); shutdownErr != nil {
					err = apperrors.WrapInternal(ctx, shutdownErr, "status server shutdown failed")
				}
			}
			if closeErr := rt.Close(); closeErr != nil && err == nil {
				err = apperrors.WrapDatabaseError(ctx, closeErr, "store close failed")
			}
		})
		return err
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.Bool("status", false, "run the HTTP status server")
	flags.String("status-host", "127.0.0.1", "status server host")
	flags.Int("status-port", 8765, "status server port")
	flags.Bool("metrics", false, "enable the Prometheus exporter")
	flags.Int("metrics-port", 9464, "Prometheus exporter port")
	flags.Int("rate-limit", 1000, "upstream requests allowed per window")
	flags.Duration("rate-window", time.Hour, "rate limit window")
	flags.Float64("rate-margin", 1.0, "fraction of the limit to use, in (0,1]")
	flags.Int("search-limit", 50, "maximum issues returned by search-issues")
	flags.Bool("no-cache", false, "disable the organization/teams resource cache")
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.String("linear-api-url", "", "override the Linear GraphQL endpoint")
}
