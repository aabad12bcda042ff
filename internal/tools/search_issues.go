package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/linearmcp/linear-mcp/internal/core"
	"github.com/linearmcp/linear-mcp/internal/core/query"
	apperrors "github.com/linearmcp/linear-mcp/internal/errors"
	"github.com/linearmcp/linear-mcp/internal/observability"
	"github.com/linearmcp/linear-mcp/internal/output"
)

const searchIssuesName = "search-issues"

type searchIssuesResponse struct {
	Message string               `json:"message"`
	Total   int                  `json:"total"`
	Issues  []output.ShapedIssue `json:"issues"`
}

func searchIssuesTool() mcp.Tool {
	return mcp.NewTool(searchIssuesName,
		mcp.WithDescription(`Search Linear issues. Supports key:value filters such as `+
			`assignee:@me, priority:high, state:"In Progress", team:Mobile and label:bug; `+
			`remaining words match title or description. Completed and canceled issues are `+
			`excluded unless a state is given.`),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		mcp.WithString("teamId", mcp.Description("Accepted for compatibility; use team: in the query")),
		mcp.WithString("status", mcp.Description("Accepted for compatibility; use state: in the query")),
		mcp.WithString("assigneeId", mcp.Description("Accepted for compatibility; use assignee:@me in the query")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// searchIssues only lets the query string drive filtering; teamId, status and
// assigneeId are accepted and ignored.
func (r *Registry) searchIssues(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	if _, ok := req.GetArguments()["query"]; !ok {
		return nil, apperrors.NewValidationError("query is required")
	}
	// An empty query is allowed and lists open issues.
	raw := optionalString(req, "query")

	compiled, issues, err := Search(ctx, r.deps.Client, raw, r.deps.SearchLimit)
	if err != nil {
		return nil, err
	}

	if observability.ServerLogger != nil {
		observability.ServerLogger.Debug("Search completed",
			zap.String("query", raw),
			zap.Bool("my_issues", compiled.IsMyIssues),
			zap.Int("results", len(issues)))
	}

	shaped := output.ShapeIssues(issues)
	return searchIssuesResponse{
		Message: fmt.Sprintf("Found %d issues", len(shaped)),
		Total:   len(shaped),
		Issues:  shaped,
	}, nil
}

// Search compiles raw and runs it. Queries with assignee:@me go to the
// viewer's assigned issues without the priority constraint; all others
// search with priority merged into the filter.
func Search(ctx context.Context, client LinearAPI, raw string, limit int) (query.Compiled, []core.Issue, error) {
	compiled := query.Compile(raw)

	var (
		issues []core.Issue
		err    error
	)
	if compiled.IsMyIssues {
		issues, err = client.AssignedIssues(ctx, compiled.Filter, limit)
	} else {
		issues, err = client.SearchIssues(ctx, compiled.SearchFilter(), limit)
	}
	return compiled, issues, err
}
