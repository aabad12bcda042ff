package handlers

import (
	"net/http"

	"github.com/fulmenhq/gofulmen/errors"

	"github.com/linearmcp/linear-mcp/internal/core"
	apperrors "github.com/linearmcp/linear-mcp/internal/errors"
)

// UsageReporter exposes the rate governor snapshot.
type UsageReporter interface {
	Metrics() core.UsageMetrics
}

// UsageResponse is the body of GET /v1/usage.
type UsageResponse struct {
	APIMetrics core.UsageMetrics `json:"apiMetrics"`
}

// UsageHandler serves the governor's current usage snapshot. Reading it
// never admits an upstream request.
func UsageHandler(reporter UsageReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reporter == nil {
			apperrors.RespondWithError(w, r, errors.NewErrorEnvelope(apperrors.CodeUnavailable, "Rate governor not initialized"))
			return
		}
		writeJSON(w, UsageResponse{APIMetrics: reporter.Metrics()})
	}
}
