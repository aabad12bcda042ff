package tools

import (
	"context"
	"fmt"
	"time"

	gferrors "github.com/fulmenhq/gofulmen/errors"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/linearmcp/linear-mcp/internal/core"
	"github.com/linearmcp/linear-mcp/internal/core/engine"
	apperrors "github.com/linearmcp/linear-mcp/internal/errors"
	"github.com/linearmcp/linear-mcp/internal/metrics"
	"github.com/linearmcp/linear-mcp/internal/observability"
	"github.com/linearmcp/linear-mcp/internal/output"
	"github.com/linearmcp/linear-mcp/internal/server/middleware"
)

// handlerFunc returns the success payload, which must encode as a JSON object.
type handlerFunc func(ctx context.Context, req mcp.CallToolRequest) (any, error)

type errorPayload struct {
	Error string `json:"error"`
}

// boundary wraps h so it never returns a protocol error: failures and panics
// become {error, apiMetrics} text results with IsError set.
func (r *Registry) boundary(tool string, h handlerFunc) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		ctx = middleware.WithRequestID(ctx, uuid.New().String())
		start := time.Now()

		defer func() {
			if rec := recover(); rec != nil {
				metrics.RecordPanic()
				env := apperrors.WrapInternal(ctx, nil, fmt.Sprintf("panic: %v", rec))
				env, _ = env.WithSeverity(gferrors.SeverityCritical)
				result = r.failure(tool, env)
				err = nil
			}
			metrics.RecordToolCall(tool, result != nil && !result.IsError, time.Since(start))
			r.publishUsage()
		}()

		payload, callErr := h(ctx, req)
		if callErr != nil {
			return r.failure(tool, apperrors.Classify(ctx, callErr)), nil
		}

		data, encodeErr := output.WithMetrics(payload, r.usage())
		if encodeErr != nil {
			return r.failure(tool, apperrors.WrapInternal(ctx, encodeErr, encodeErr.Error())), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func (r *Registry) failure(tool string, env *gferrors.ErrorEnvelope) *mcp.CallToolResult {
	apperrors.ReportToolError(tool, env)

	data, err := output.WithMetrics(errorPayload{Error: apperrors.ToolMessage(env)}, r.usage())
	if err != nil {
		// Unreachable: errorPayload always encodes.
		data = []byte(fmt.Sprintf(`{"error":%q}`, apperrors.ToolMessage(env)))
	}
	result := mcp.NewToolResultText(string(data))
	result.IsError = true
	return result
}

func (r *Registry) usage() core.UsageMetrics {
	if r.deps.Usage == nil {
		var unset *engine.RateLimiter
		return unset.Metrics()
	}
	return r.deps.Usage.Metrics()
}

func (r *Registry) publishUsage() {
	snapshot := r.usage()
	metrics.SetRateLimitUsage(snapshot.RequestsInLastHour, snapshot.RemainingRequests)
	if observability.ServerLogger != nil && snapshot.RemainingRequests == 0 {
		observability.ServerLogger.Warn("Rate limit window exhausted",
			zap.Int("limit", snapshot.Limit),
			zap.Int64("window_seconds", snapshot.WindowSeconds))
	}
}
