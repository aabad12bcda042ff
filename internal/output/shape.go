package output

import (
	"time"

	"github.com/linearmcp/linear-mcp/internal/core"
)

// priorityLabels is indexed by Linear's priority ordinal.
var priorityLabels = [...]string{"No priority", "Urgent", "High", "Medium", "Low"}

// PriorityLabel resolves a priority ordinal; out-of-range values read as
// "No priority".
func PriorityLabel(priority int) string {
	if priority < 0 || priority >= len(priorityLabels) {
		return priorityLabels[0]
	}
	return priorityLabels[priority]
}

// ShapedIssue is the stable issue record returned to MCP clients.
type ShapedIssue struct {
	ID          string    `json:"id"`
	Identifier  string    `json:"identifier"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	Assignee    string    `json:"assignee"`
	Priority    string    `json:"priority"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"createdAt"`
	Estimate    *float64  `json:"estimate"`
	Labels      []string  `json:"labels"`
	Description string    `json:"description"`
}

// ShapedState is a workflow state entry of a shaped team.
type ShapedState struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Color string `json:"color"`
}

// ShapedTeam is the stable team record returned to MCP clients.
type ShapedTeam struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Key         string        `json:"key"`
	Description string        `json:"description"`
	States      []ShapedState `json:"states"`
}

// ShapedOrganization is the organization resource payload.
type ShapedOrganization struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	URLKey string `json:"urlKey"`
}

// ShapeIssue maps an upstream issue to its output record.
func ShapeIssue(issue core.Issue) ShapedIssue {
	shaped := ShapedIssue{
		ID:          issue.ID,
		Identifier:  issue.Identifier,
		Title:       issue.Title,
		Priority:    PriorityLabel(issue.Priority),
		URL:         issue.URL,
		CreatedAt:   issue.CreatedAt,
		Estimate:    issue.Estimate,
		Labels:      make([]string, 0, len(issue.Labels.Nodes)),
		Description: issue.Description,
	}
	if issue.State != nil {
		shaped.Status = issue.State.Name
	}
	if issue.Assignee != nil {
		shaped.Assignee = issue.Assignee.Name
	}
	for _, label := range issue.Labels.Nodes {
		shaped.Labels = append(shaped.Labels, label.Name)
	}
	return shaped
}

// ShapeIssues never returns nil so an empty result encodes as [].
func ShapeIssues(issues []core.Issue) []ShapedIssue {
	shaped := make([]ShapedIssue, 0, len(issues))
	for _, issue := range issues {
		shaped = append(shaped, ShapeIssue(issue))
	}
	return shaped
}

// ShapeTeam maps a team and its workflow states.
func ShapeTeam(team core.Team) ShapedTeam {
	shaped := ShapedTeam{
		ID:          team.ID,
		Name:        team.Name,
		Key:         team.Key,
		Description: team.Description,
		States:      make([]ShapedState, 0, len(team.States.Nodes)),
	}
	for _, state := range team.States.Nodes {
		shaped.States = append(shaped.States, ShapedState(state))
	}
	return shaped
}

// ShapeTeams never returns nil so an empty list encodes as [].
func ShapeTeams(teams []core.Team) []ShapedTeam {
	shaped := make([]ShapedTeam, 0, len(teams))
	for _, team := range teams {
		shaped = append(shaped, ShapeTeam(team))
	}
	return shaped
}

// ShapeOrganization maps the workspace organization.
func ShapeOrganization(org core.Organization) ShapedOrganization {
	return ShapedOrganization(org)
}
