package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/linearmcp/linear-mcp/internal/core"
	apperrors "github.com/linearmcp/linear-mcp/internal/errors"
	"github.com/linearmcp/linear-mcp/internal/output"
)

const createIssueName = "create-issue"

type createIssueResponse struct {
	Success bool               `json:"success"`
	Issue   output.ShapedIssue `json:"issue"`
}

func createIssueTool() mcp.Tool {
	return mcp.NewTool(createIssueName,
		mcp.WithDescription("Create a new Linear issue"),
		mcp.WithString("title", mcp.Required(), mcp.Description("Issue title")),
		mcp.WithString("teamId", mcp.Required(), mcp.Description("Team ID")),
		mcp.WithString("description", mcp.Description("Issue description (markdown)")),
		mcp.WithNumber("priority", mcp.Description("Priority: 0 none, 1 urgent, 2 high, 3 medium, 4 low"), mcp.Min(0), mcp.Max(4)),
		mcp.WithString("stateId", mcp.Description("Workflow state ID")),
		mcp.WithString("assigneeId", mcp.Description("Assignee user ID")),
		mcp.WithNumber("estimate", mcp.Description("Estimate points")),
		mcp.WithArray("labelIds", mcp.WithStringItems(), mcp.Description("Label IDs")),
	)
}

func (r *Registry) createIssue(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	title, err := requiredString(req, "title")
	if err != nil {
		return nil, err
	}
	teamID, err := requiredString(req, "teamId")
	if err != nil {
		return nil, err
	}

	priority, err := optionalInt(req, "priority")
	if err != nil {
		return nil, err
	}
	if priority != nil && (*priority < 0 || *priority > 4) {
		return nil, apperrors.NewValidationError("priority must be between 0 and 4")
	}

	estimate, err := optionalInt(req, "estimate")
	if err != nil {
		return nil, err
	}

	issue, err := r.deps.Client.CreateIssue(ctx, core.IssueCreateInput{
		TeamID:      teamID,
		Title:       title,
		Description: optionalString(req, "description"),
		Priority:    priority,
		StateID:     optionalString(req, "stateId"),
		AssigneeID:  optionalString(req, "assigneeId"),
		Estimate:    estimate,
		LabelIDs:    optionalStrings(req, "labelIds"),
	})
	if err != nil {
		return nil, err
	}

	return createIssueResponse{Success: true, Issue: output.ShapeIssue(*issue)}, nil
}
