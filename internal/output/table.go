package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/linearmcp/linear-mcp/internal/core"
	"github.com/linearmcp/linear-mcp/internal/core/query"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

func (f *TableFormatter) FormatQuery(raw string, compiled query.Compiled) (string, error) {
	t := newTable()
	t.AppendHeader(table.Row{"Key", "Value", "Effect"})

	for _, token := range compiled.Tokens {
		key := token.Key
		if !token.IsPair() {
			key = "(text)"
		}
		t.AppendRow(table.Row{key, token.Value, tokenEffect(token)})
	}

	t.AppendFooter(table.Row{"", "my issues", fmt.Sprintf("%t", compiled.IsMyIssues)})

	rendered := t.Render()
	filter, err := (&JSONFormatter{}).marshal(compiled.SearchFilter())
	if err != nil {
		return "", err
	}
	if compiled.IsMyIssues {
		filter, err = (&JSONFormatter{}).marshal(compiled.Filter)
		if err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("Query: %s\n%s\nFilter: %s", raw, rendered, filter), nil
}

func (f *TableFormatter) FormatUsage(metrics core.UsageMetrics) (string, error) {
	t := newTable()
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRow(table.Row{"Total requests", metrics.TotalRequests})
	t.AppendRow(table.Row{"Requests in window", metrics.RequestsInLastHour})
	t.AppendRow(table.Row{"Remaining", metrics.RemainingRequests})
	t.AppendRow(table.Row{"Limit", metrics.Limit})
	t.AppendRow(table.Row{"Window", (time.Duration(metrics.WindowSeconds) * time.Second).String()})

	last := "never"
	if metrics.LastRequestTime != nil {
		last = metrics.LastRequestTime.Format(time.RFC3339)
	}
	t.AppendRow(table.Row{"Last request", last})
	return t.Render(), nil
}

func (f *TableFormatter) FormatIssues(issues []ShapedIssue) (string, error) {
	t := newTable()
	t.AppendHeader(table.Row{"ID", "Title", "Status", "Assignee", "Priority", "Labels"})
	for _, issue := range issues {
		t.AppendRow(table.Row{
			issue.Identifier,
			truncateCell(issue.Title, 60),
			issue.Status,
			issue.Assignee,
			issue.Priority,
			strings.Join(issue.Labels, ", "),
		})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d issues", len(issues)), "", "", "", ""})
	return t.Render(), nil
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	// Footers carry counts and mode notes; keep their case as written.
	t.Style().Format.Footer = text.FormatDefault
	return t
}

func tokenEffect(token query.Token) string {
	if token.Value == "" {
		return "ignored"
	}
	if !token.IsPair() {
		return "title or description contains"
	}
	switch token.Key {
	case "assignee":
		if token.Value == query.MyIssuesValue {
			return "my issues"
		}
		return "ignored"
	case "priority":
		if query.ParsePriority(token.Value) == nil {
			return "ignored"
		}
		return "priority filter"
	case "state", "status":
		return "state name equals (replaces open-states default)"
	case "team":
		return "team name equals"
	case "label":
		return "label name equals"
	default:
		return "dropped"
	}
}

func truncateCell(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max-1]) + "…"
}
