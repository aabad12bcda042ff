package cmd

import (
	"context"
	"net/http"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/linearmcp/linear-mcp/internal/appid"
	"github.com/linearmcp/linear-mcp/internal/config"
	"github.com/linearmcp/linear-mcp/internal/core/engine"
	"github.com/linearmcp/linear-mcp/internal/core/linear"
	"github.com/linearmcp/linear-mcp/internal/core/store"
	apperrors "github.com/linearmcp/linear-mcp/internal/errors"
	"github.com/linearmcp/linear-mcp/internal/tools"
)

// appRuntime is the governor, client and optional cache shared by serve,
// doctor and query --run. Every upstream request goes through limiter.
type appRuntime struct {
	cfg     *config.Config
	limiter *engine.RateLimiter
	client  *linear.Client
	store   *store.Store
}

func newLimiter(cfg config.RateLimitConfig) *engine.RateLimiter {
	limiter := engine.NewRateLimiter(cfg.Limit, cfg.Window)
	limiter.ApplySafetyMargin(cfg.Margin)
	return limiter
}

func newLinearClient(cfg config.LinearConfig, limiter linear.Limiter) *linear.Client {
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = appid.Get().BinaryName
	}
	if versionInfo.Version != "" {
		userAgent += "/" + versionInfo.Version
	}
	return &linear.Client{
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		BaseURL:    cfg.APIURL,
		APIKey:     cfg.APIKey,
		UserAgent:  userAgent,
		Limiter:    limiter,
	}
}

// newAppRuntime fails with CONFIG_INVALID when no API key is configured.
// A store that cannot be opened disables the resource cache instead of
// failing startup.
func newAppRuntime(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*appRuntime, error) {
	if !cfg.HasAPIKey() {
		return nil, apperrors.WrapConfigInvalid(ctx, nil,
			"LINEAR_API_KEY is not set; export it or add linear.api_key to "+config.DefaultConfigPath())
	}

	limiter := newLimiter(cfg.RateLimit)
	rt := &appRuntime{
		cfg:     cfg,
		limiter: limiter,
		client:  newLinearClient(cfg.Linear, limiter),
	}

	if !cfg.Cache.Enabled {
		return rt, nil
	}

	st, err := store.Open(ctx, cfg.Store)
	if err == nil {
		if err = st.Migrate(ctx); err != nil {
			_ = st.Close()
		}
	}
	if err != nil {
		if logger != nil {
			logger.Warn("Resource cache disabled: store unavailable",
				zap.String("driver", cfg.Store.Driver),
				zap.Error(err))
		}
		return rt, nil
	}
	rt.store = st

	if purged, err := st.PurgeExpired(ctx); err == nil && purged > 0 && logger != nil {
		logger.Debug("Purged expired cache entries", zap.Int64("count", purged))
	}
	return rt, nil
}

func (rt *appRuntime) registry() *tools.Registry {
	deps := tools.Deps{
		Client:      rt.client,
		Usage:       rt.limiter,
		SearchLimit: rt.cfg.Search.Limit,
	}
	if rt.store != nil {
		deps.Cache = rt.store
		deps.CacheTTL = rt.cfg.Cache.ResourceTTL
	}
	return tools.NewRegistry(deps)
}

// checkStore is the status server's store health check.
func (rt *appRuntime) checkStore(ctx context.Context) error {
	if rt.store == nil || rt.store.DB == nil {
		return nil
	}
	return rt.store.DB.PingContext(ctx)
}

func (rt *appRuntime) Close() error {
	if rt == nil || rt.store == nil {
		return nil
	}
	return rt.store.Close()
}
