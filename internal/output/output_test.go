package output

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linearmcp/linear-mcp/internal/core"
	"github.com/linearmcp/linear-mcp/internal/core/query"
)

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("table")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	format, err = ParseFormat("JSON")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, format)

	format, err = ParseFormat("yml")
	require.NoError(t, err)
	require.Equal(t, FormatYAML, format)

	format, err = ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	_, err = ParseFormat("csv")
	require.Error(t, err)
}

func TestPriorityLabel(t *testing.T) {
	assert.Equal(t, "No priority", PriorityLabel(0))
	assert.Equal(t, "Urgent", PriorityLabel(1))
	assert.Equal(t, "High", PriorityLabel(2))
	assert.Equal(t, "Medium", PriorityLabel(3))
	assert.Equal(t, "Low", PriorityLabel(4))
	assert.Equal(t, "No priority", PriorityLabel(5))
	assert.Equal(t, "No priority", PriorityLabel(-1))
}

func TestShapeIssue(t *testing.T) {
	estimate := 3.0
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	shaped := ShapeIssue(core.Issue{
		ID:          "id-1",
		Identifier:  "ENG-1",
		Title:       "Crash on launch",
		Description: "Stack trace attached",
		Priority:    2,
		URL:         "https://linear.app/acme/issue/ENG-1",
		CreatedAt:   created,
		Estimate:    &estimate,
		State:       &core.WorkflowState{Name: "In Progress"},
		Assignee:    &core.User{Name: "Sam"},
		Labels:      core.LabelConnection{Nodes: []core.Label{{Name: "bug"}, {Name: "ios"}}},
	})

	assert.Equal(t, "ENG-1", shaped.Identifier)
	assert.Equal(t, "In Progress", shaped.Status)
	assert.Equal(t, "Sam", shaped.Assignee)
	assert.Equal(t, "High", shaped.Priority)
	assert.Equal(t, []string{"bug", "ios"}, shaped.Labels)
	require.NotNil(t, shaped.Estimate)
	assert.Equal(t, 3.0, *shaped.Estimate)
}

func TestShapeIssue_UnsetFields(t *testing.T) {
	shaped := ShapeIssue(core.Issue{ID: "id-2", Priority: 9})

	data, err := json.Marshal(shaped)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "", decoded["status"])
	assert.Equal(t, "", decoded["assignee"])
	assert.Equal(t, "No priority", decoded["priority"])
	assert.Nil(t, decoded["estimate"])
	assert.Contains(t, decoded, "estimate")
	assert.Equal(t, []any{}, decoded["labels"])
}

func TestShapeTeam(t *testing.T) {
	shaped := ShapeTeam(core.Team{
		ID:   "t1",
		Name: "Engineering",
		Key:  "ENG",
		States: core.StateConnection{Nodes: []core.WorkflowState{
			{ID: "s1", Name: "Todo", Type: "unstarted", Color: "#ccc"},
		}},
	})
	assert.Equal(t, "ENG", shaped.Key)
	require.Len(t, shaped.States, 1)
	assert.Equal(t, "unstarted", shaped.States[0].Type)

	assert.NotNil(t, ShapeTeams(nil))
	assert.NotNil(t, ShapeIssues(nil))
}

func TestFormatters(t *testing.T) {
	compiled := query.Compile(`team:"Mobile Apps" priority:high crash`)

	jsonRendered, err := NewFormatter(FormatJSON).FormatQuery("q", compiled)
	require.NoError(t, err)
	assert.Contains(t, jsonRendered, `"Mobile Apps"`)
	assert.Contains(t, jsonRendered, `"searchFilter"`)

	yamlRendered, err := NewFormatter(FormatYAML).FormatQuery("q", compiled)
	require.NoError(t, err)
	assert.Contains(t, yamlRendered, "isMyIssuesQuery: false")
	assert.Contains(t, yamlRendered, "Mobile Apps")

	tableRendered, err := NewFormatter(FormatTable).FormatQuery("q", compiled)
	require.NoError(t, err)
	assert.Contains(t, tableRendered, "team name equals")
	assert.Contains(t, tableRendered, "priority filter")
	assert.Contains(t, tableRendered, "title or description contains")
	assert.Contains(t, tableRendered, "my issues")
	assert.NotContains(t, tableRendered, "MY ISSUES")
}

func TestFormatUsage(t *testing.T) {
	last := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	metrics := core.UsageMetrics{
		TotalRequests:      7,
		RequestsInLastHour: 3,
		RemainingRequests:  997,
		Limit:              1000,
		WindowSeconds:      3600,
		LastRequestTime:    &last,
	}

	rendered, err := NewFormatter(FormatTable).FormatUsage(metrics)
	require.NoError(t, err)
	assert.Contains(t, rendered, "997")
	assert.Contains(t, rendered, "1h0m0s")
	assert.Contains(t, rendered, "2024-05-01T12:00:00Z")

	rendered, err = NewFormatter(FormatJSON).FormatUsage(core.UsageMetrics{Limit: 1000})
	require.NoError(t, err)
	assert.NotContains(t, rendered, "lastRequestTime")
}

func TestFormatIssues(t *testing.T) {
	issues := []ShapedIssue{{Identifier: "ENG-2", Title: "Fix login", Priority: "Urgent", Labels: []string{"auth"}}}

	rendered, err := NewFormatter(FormatTable).FormatIssues(issues)
	require.NoError(t, err)
	assert.Contains(t, rendered, "ENG-2")
	assert.Contains(t, rendered, "1 issues")
	assert.NotContains(t, rendered, "1 ISSUES")

	rendered, err = NewFormatter(FormatJSON).FormatIssues(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", rendered)
}

func TestWithMetrics(t *testing.T) {
	metrics := core.UsageMetrics{TotalRequests: 2, RequestsInLastHour: 2, RemainingRequests: 998, Limit: 1000, WindowSeconds: 3600}

	data, err := WithMetrics(map[string]any{"error": "boom"}, metrics)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "boom", decoded["error"])
	apiMetrics, ok := decoded[MetricsKey].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 998, apiMetrics["remainingRequests"])
	assert.EqualValues(t, 2, apiMetrics["requestsInLastHour"])

	data, err = WithMetrics(nil, metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), MetricsKey)

	_, err = WithMetrics([]int{1}, metrics)
	require.Error(t, err)
}
