package output

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/linearmcp/linear-mcp/internal/core"
	"github.com/linearmcp/linear-mcp/internal/core/query"
)

// YAMLFormatter renders results as YAML using the same keys as the JSON form.
type YAMLFormatter struct{}

func (f *YAMLFormatter) FormatQuery(raw string, compiled query.Compiled) (string, error) {
	return toYAML(newQueryDocument(raw, compiled))
}

func (f *YAMLFormatter) FormatUsage(metrics core.UsageMetrics) (string, error) {
	return toYAML(metrics)
}

func (f *YAMLFormatter) FormatIssues(issues []ShapedIssue) (string, error) {
	if issues == nil {
		issues = []ShapedIssue{}
	}
	return toYAML(issues)
}

// toYAML goes through JSON first so json tags drive the key names.
func toYAML(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return "", err
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(out), "\n"), nil
}
