package core

import "time"

// Issue is a Linear issue as returned by the GraphQL API.
// Nested records are pointers because Linear returns null for unset relations.
type Issue struct {
	ID          string          `json:"id"`
	Identifier  string          `json:"identifier"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    int             `json:"priority"`
	URL         string          `json:"url"`
	CreatedAt   time.Time       `json:"createdAt"`
	Estimate    *float64        `json:"estimate"`
	State       *WorkflowState  `json:"state"`
	Assignee    *User           `json:"assignee"`
	Team        *Team           `json:"team"`
	Labels      LabelConnection `json:"labels"`
}

// LabelConnection wraps the label nodes of an issue.
type LabelConnection struct {
	Nodes []Label `json:"nodes"`
}

// Label is an issue label.
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// WorkflowState is a team workflow state (Todo, In Progress, Done...).
type WorkflowState struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Color string `json:"color,omitempty"`
}

// StateConnection wraps the workflow states of a team.
type StateConnection struct {
	Nodes []WorkflowState `json:"nodes"`
}

// Team is a Linear team.
type Team struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Key         string          `json:"key"`
	Description string          `json:"description"`
	States      StateConnection `json:"states"`
}

// User is a Linear user.
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Organization is the Linear workspace the API key belongs to.
type Organization struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	URLKey string `json:"urlKey"`
}

// IssueCreateInput mirrors Linear's IssueCreateInput.
type IssueCreateInput struct {
	TeamID      string   `json:"teamId"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    *int     `json:"priority,omitempty"`
	StateID     string   `json:"stateId,omitempty"`
	AssigneeID  string   `json:"assigneeId,omitempty"`
	Estimate    *int     `json:"estimate,omitempty"`
	LabelIDs    []string `json:"labelIds,omitempty"`
}

// State types Linear uses for closed issues.
const (
	StateTypeCompleted = "completed"
	StateTypeCanceled  = "canceled"
)
