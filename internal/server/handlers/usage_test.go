package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linearmcp/linear-mcp/internal/core/engine"
)

func TestUsageHandlerServesSnapshot(t *testing.T) {
	limiter := engine.NewRateLimiter(10, time.Hour)
	require.NoError(t, limiter.Admit(t.Context()))
	require.NoError(t, limiter.Admit(t.Context()))

	rec := httptest.NewRecorder()
	UsageHandler(limiter)(rec, httptest.NewRequest(http.MethodGet, "/v1/usage", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp UsageResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(2), resp.APIMetrics.TotalRequests)
	assert.Equal(t, 2, resp.APIMetrics.RequestsInLastHour)
	assert.Equal(t, 8, resp.APIMetrics.RemainingRequests)
	assert.Equal(t, 10, resp.APIMetrics.Limit)

	// Reading usage does not consume capacity.
	assert.Equal(t, int64(2), limiter.Metrics().TotalRequests)
}

func TestUsageHandlerWithoutGovernor(t *testing.T) {
	rec := httptest.NewRecorder()
	UsageHandler(nil)(rec, httptest.NewRequest(http.MethodGet, "/v1/usage", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
