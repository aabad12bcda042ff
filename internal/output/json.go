package output

import (
	"encoding/json"

	"github.com/linearmcp/linear-mcp/internal/core"
	"github.com/linearmcp/linear-mcp/internal/core/query"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

func (f *JSONFormatter) FormatQuery(raw string, compiled query.Compiled) (string, error) {
	return f.marshal(newQueryDocument(raw, compiled))
}

func (f *JSONFormatter) FormatUsage(metrics core.UsageMetrics) (string, error) {
	return f.marshal(metrics)
}

func (f *JSONFormatter) FormatIssues(issues []ShapedIssue) (string, error) {
	if issues == nil {
		issues = []ShapedIssue{}
	}
	return f.marshal(issues)
}

func (f *JSONFormatter) marshal(value any) (string, error) {
	var (
		data []byte
		err  error
	)
	if f.Indent {
		data, err = json.MarshalIndent(value, "", "  ")
	} else {
		data, err = json.Marshal(value)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
