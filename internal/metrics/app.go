package metrics

import (
	"time"

	"github.com/linearmcp/linear-mcp/internal/observability"
)

// Application-level metrics following Prometheus conventions
var (
	// MCP tool metrics
	ToolCallsTotal   = "app_tool_calls_total"
	ToolCallDuration = "app_tool_call_duration_ms"

	// Upstream (Linear API) metrics
	UpstreamRequestsTotal = "app_upstream_requests_total"

	// Rate limiter metrics
	RateLimitWindowRequests = "app_rate_limit_window_requests"
	RateLimitRemaining      = "app_rate_limit_remaining"
	RateLimitDeniedTotal    = "app_rate_limit_denied_total"

	// Resource cache metrics
	ResourceCacheTotal = "app_resource_cache_total"

	// Server lifecycle metrics
	ServerStartTime = "app_server_start_time_seconds"
)

// RecordToolCall records one MCP tool invocation
func RecordToolCall(tool string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			ToolCallsTotal,
			1,
			map[string]string{
				"tool":   tool,
				"status": status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			ToolCallDuration,
			duration,
			map[string]string{
				"tool": tool,
			},
		)
	}
}

// RecordUpstreamRequest records a Linear API request outcome
func RecordUpstreamRequest(operation string, status string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			UpstreamRequestsTotal,
			1,
			map[string]string{
				"operation": operation,
				"status":    status,
			},
		)
	}
}

// SetRateLimitUsage publishes the current window occupancy
func SetRateLimitUsage(inWindow int, remaining int) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			RateLimitWindowRequests,
			float64(inWindow),
			nil,
		)
		_ = observability.TelemetrySystem.Gauge(
			RateLimitRemaining,
			float64(remaining),
			nil,
		)
	}
}

// RecordRateLimitDenied counts a request refused by the rate governor
func RecordRateLimitDenied(operation string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			RateLimitDeniedTotal,
			1,
			map[string]string{
				"operation": operation,
			},
		)
	}
}

// RecordResourceCache records a resource cache lookup
func RecordResourceCache(resource string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			ResourceCacheTotal,
			1,
			map[string]string{
				"resource": resource,
				"result":   result,
			},
		)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTime,
			float64(timestamp),
			nil,
		)
	}
}
