package output

import (
	"fmt"
	"strings"

	"github.com/linearmcp/linear-mcp/internal/core"
	"github.com/linearmcp/linear-mcp/internal/core/query"
)

// Format represents an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formatter renders CLI results.
type Formatter interface {
	FormatQuery(raw string, compiled query.Compiled) (string, error)
	FormatUsage(metrics core.UsageMetrics) (string, error)
	FormatIssues(issues []ShapedIssue) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatYAML), "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TableFormatter{}
	}
}

// queryDocument is the machine-readable form of a compiled query.
type queryDocument struct {
	Query    string         `json:"query"`
	Compiled query.Compiled `json:"compiled"`
	// SearchFilter is what search-issues sends on the non my-issues path.
	SearchFilter core.IssueFilter `json:"searchFilter"`
}

func newQueryDocument(raw string, compiled query.Compiled) queryDocument {
	return queryDocument{Query: raw, Compiled: compiled, SearchFilter: compiled.SearchFilter()}
}
