package output

import (
	"encoding/json"
	"fmt"

	"github.com/linearmcp/linear-mcp/internal/core"
)

// MetricsKey is the field every tool response carries the governor snapshot
// under.
const MetricsKey = "apiMetrics"

// WithMetrics encodes payload (which must encode as a JSON object) and adds
// the usage snapshot under MetricsKey.
func WithMetrics(payload any, metrics core.UsageMetrics) ([]byte, error) {
	fields := map[string]json.RawMessage{}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode response: %w", err)
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("response payload must be a JSON object: %w", err)
		}
		if fields == nil {
			fields = map[string]json.RawMessage{}
		}
	}

	snapshot, err := json.Marshal(metrics)
	if err != nil {
		return nil, fmt.Errorf("encode metrics: %w", err)
	}
	fields[MetricsKey] = snapshot

	return json.MarshalIndent(fields, "", "  ")
}
