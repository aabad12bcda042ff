// Package linear is a small GraphQL client for the Linear API.
//
// Every request is admitted through the configured Limiter before it is sent.
package linear

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/linearmcp/linear-mcp/internal/core"
	"github.com/linearmcp/linear-mcp/internal/metrics"
)

// DefaultBaseURL is Linear's GraphQL endpoint.
const DefaultBaseURL = "https://api.linear.app/graphql"

const (
	defaultPageSize = 50
	defaultTimeout  = 30 * time.Second
	maxErrorBody    = 4096
)

// ErrNotFound is returned when Linear has no entity for the requested id.
var ErrNotFound = errors.New("entity not found")

// Limiter gates outbound requests.
type Limiter interface {
	Admit(ctx context.Context) error
}

// Client talks to the Linear GraphQL API.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
	UserAgent  string
	Limiter    Limiter
}

// APIError is a failed upstream request: a non-2xx status or GraphQL errors.
type APIError struct {
	Operation  string
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	msg := strings.Join(e.Messages, "; ")
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.StatusCode != 0 && e.StatusCode != http.StatusOK {
		return fmt.Sprintf("linear %s failed (HTTP %d): %s", e.Operation, e.StatusCode, msg)
	}
	return fmt.Sprintf("linear %s failed: %s", e.Operation, msg)
}

func (e *APIError) notFound() bool {
	for _, msg := range e.Messages {
		if strings.Contains(strings.ToLower(msg), "not found") {
			return true
		}
	}
	return false
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// CreateIssue creates an issue and returns it.
func (c *Client) CreateIssue(ctx context.Context, input core.IssueCreateInput) (*core.Issue, error) {
	var payload struct {
		IssueCreate struct {
			Success bool        `json:"success"`
			Issue   *core.Issue `json:"issue"`
		} `json:"issueCreate"`
	}

	if err := c.do(ctx, "issueCreate", createIssueMutation, map[string]any{"input": input}, &payload); err != nil {
		return nil, err
	}
	if !payload.IssueCreate.Success || payload.IssueCreate.Issue == nil {
		return nil, &APIError{Operation: "issueCreate", StatusCode: http.StatusOK, Messages: []string{"issue was not created"}}
	}
	return payload.IssueCreate.Issue, nil
}

// SearchIssues lists issues matching filter.
func (c *Client) SearchIssues(ctx context.Context, filter core.IssueFilter, first int) ([]core.Issue, error) {
	var payload struct {
		Issues struct {
			Nodes []core.Issue `json:"nodes"`
		} `json:"issues"`
	}

	vars := map[string]any{"filter": filter, "first": pageSize(first)}
	if err := c.do(ctx, "issues", searchIssuesQuery, vars, &payload); err != nil {
		return nil, err
	}
	return payload.Issues.Nodes, nil
}

// ListIssues lists recent issues without a filter.
func (c *Client) ListIssues(ctx context.Context, first int) ([]core.Issue, error) {
	var payload struct {
		Issues struct {
			Nodes []core.Issue `json:"nodes"`
		} `json:"issues"`
	}

	if err := c.do(ctx, "issues", searchIssuesQuery, map[string]any{"first": pageSize(first)}, &payload); err != nil {
		return nil, err
	}
	return payload.Issues.Nodes, nil
}

// AssignedIssues lists issues assigned to the API key owner matching filter.
func (c *Client) AssignedIssues(ctx context.Context, filter core.IssueFilter, first int) ([]core.Issue, error) {
	var payload struct {
		Viewer struct {
			AssignedIssues struct {
				Nodes []core.Issue `json:"nodes"`
			} `json:"assignedIssues"`
		} `json:"viewer"`
	}

	vars := map[string]any{"filter": filter, "first": pageSize(first)}
	if err := c.do(ctx, "viewer.assignedIssues", assignedIssuesQuery, vars, &payload); err != nil {
		return nil, err
	}
	return payload.Viewer.AssignedIssues.Nodes, nil
}

// Issue fetches one issue by id or identifier (e.g. ENG-123).
func (c *Client) Issue(ctx context.Context, id string) (*core.Issue, error) {
	var payload struct {
		Issue *core.Issue `json:"issue"`
	}

	if err := c.do(ctx, "issue", issueQuery, map[string]any{"id": id}, &payload); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.notFound() {
			return nil, fmt.Errorf("issue %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	if payload.Issue == nil {
		return nil, fmt.Errorf("issue %s: %w", id, ErrNotFound)
	}
	return payload.Issue, nil
}

// Viewer returns the user owning the API key.
func (c *Client) Viewer(ctx context.Context) (*core.User, error) {
	var payload struct {
		Viewer core.User `json:"viewer"`
	}

	if err := c.do(ctx, "viewer", viewerQuery, nil, &payload); err != nil {
		return nil, err
	}
	return &payload.Viewer, nil
}

// Organization returns the workspace of the API key.
func (c *Client) Organization(ctx context.Context) (*core.Organization, error) {
	var payload struct {
		Organization core.Organization `json:"organization"`
	}

	if err := c.do(ctx, "organization", organizationQuery, nil, &payload); err != nil {
		return nil, err
	}
	return &payload.Organization, nil
}

// Teams lists teams with their workflow states.
func (c *Client) Teams(ctx context.Context) ([]core.Team, error) {
	var payload struct {
		Teams struct {
			Nodes []core.Team `json:"nodes"`
		} `json:"teams"`
	}

	if err := c.do(ctx, "teams", teamsQuery, map[string]any{"first": 250}, &payload); err != nil {
		return nil, err
	}
	return payload.Teams.Nodes, nil
}

// Team fetches one team with its workflow states.
func (c *Client) Team(ctx context.Context, id string) (*core.Team, error) {
	var payload struct {
		Team *core.Team `json:"team"`
	}

	if err := c.do(ctx, "team", teamQuery, map[string]any{"id": id}, &payload); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.notFound() {
			return nil, fmt.Errorf("team %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	if payload.Team == nil {
		return nil, fmt.Errorf("team %s: %w", id, ErrNotFound)
	}
	return payload.Team, nil
}

func (c *Client) do(ctx context.Context, operation, query string, variables map[string]any, out any) error {
	if c == nil {
		return errors.New("linear client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("linear api key is required")
	}

	if c.Limiter != nil {
		if err := c.Limiter.Admit(ctx); err != nil {
			metrics.RecordUpstreamRequest(operation, "rate_limited")
			metrics.RecordRateLimitDenied(operation)
			return err
		}
	}

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("encode %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", strings.TrimSpace(c.APIKey))
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(operation, "transport_error")
		return fmt.Errorf("linear %s request: %w", operation, err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordUpstreamRequest(operation, "transport_error")
		return fmt.Errorf("read linear %s response: %w", operation, err)
	}

	var decoded graphQLResponse
	decodeErr := json.Unmarshal(raw, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordUpstreamRequest(operation, "http_error")
		apiErr := &APIError{Operation: operation, StatusCode: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Messages = errorMessages(decoded.Errors)
		}
		if len(apiErr.Messages) == 0 {
			if text := strings.TrimSpace(truncate(string(raw), maxErrorBody)); text != "" {
				apiErr.Messages = []string{text}
			}
		}
		return apiErr
	}

	if decodeErr != nil {
		metrics.RecordUpstreamRequest(operation, "decode_error")
		return fmt.Errorf("decode linear %s response: %w", operation, decodeErr)
	}
	if len(decoded.Errors) > 0 {
		metrics.RecordUpstreamRequest(operation, "graphql_error")
		return &APIError{Operation: operation, StatusCode: resp.StatusCode, Messages: errorMessages(decoded.Errors)}
	}

	metrics.RecordUpstreamRequest(operation, "success")
	if out == nil || len(decoded.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(decoded.Data, out); err != nil {
		return fmt.Errorf("decode linear %s data: %w", operation, err)
	}
	return nil
}

func (c *Client) baseURL() string {
	if c != nil && strings.TrimSpace(c.BaseURL) != "" {
		return strings.TrimSpace(c.BaseURL)
	}
	return DefaultBaseURL
}

func pageSize(first int) int {
	if first <= 0 {
		return defaultPageSize
	}
	return first
}

func errorMessages(errs []graphQLError) []string {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		if msg := strings.TrimSpace(e.Message); msg != "" {
			messages = append(messages, msg)
		}
	}
	return messages
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit]
}
