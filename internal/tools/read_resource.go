package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/linearmcp/linear-mcp/internal/core/linear"
	apperrors "github.com/linearmcp/linear-mcp/internal/errors"
	"github.com/linearmcp/linear-mcp/internal/metrics"
	"github.com/linearmcp/linear-mcp/internal/observability"
	"github.com/linearmcp/linear-mcp/internal/output"
)

const (
	readResourceName = "read-resource"

	// ResourceScheme prefixes every resource URI.
	ResourceScheme = "linear://"

	ResourceIssues       = "issues"
	ResourceOrganization = "organization"
	ResourceTeams        = "teams"
)

// ResourceRef is a parsed resource URI. ID is empty for list views.
type ResourceRef struct {
	Type string
	ID   string
}

// ParseResourceURI splits linear://<type>[/<id>]. It only checks the shape;
// unknown types are reported by the reader.
func ParseResourceURI(uri string) (ResourceRef, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), ResourceScheme)
	if !ok {
		return ResourceRef{}, invalidURI(uri)
	}

	parts := strings.Split(rest, "/")
	if len(parts) > 2 || parts[0] == "" {
		return ResourceRef{}, invalidURI(uri)
	}

	ref := ResourceRef{Type: parts[0]}
	if len(parts) == 2 {
		ref.ID = parts[1]
	}
	return ref, nil
}

func invalidURI(uri string) error {
	return apperrors.NewValidationError(fmt.Sprintf("Invalid resource URI: %s", uri))
}

type readResourceResponse struct {
	Data any `json:"data"`
}

func readResourceTool() mcp.Tool {
	return mcp.NewTool(readResourceName,
		mcp.WithDescription("Read a Linear resource: linear://issues, linear://issues/{id}, "+
			"linear://teams, linear://teams/{id} or linear://organization"),
		mcp.WithString("uri", mcp.Required(), mcp.Description("Resource URI")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func (r *Registry) readResource(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	uri, err := requiredString(req, "uri")
	if err != nil {
		return nil, err
	}

	data, err := r.read(ctx, uri)
	if err != nil {
		return nil, err
	}
	return readResourceResponse{Data: data}, nil
}

// read resolves a resource URI to its shaped payload.
func (r *Registry) read(ctx context.Context, uri string) (any, error) {
	ref, err := ParseResourceURI(uri)
	if err != nil {
		return nil, err
	}

	switch ref.Type {
	case ResourceIssues:
		if ref.ID == "" {
			issues, err := r.deps.Client.ListIssues(ctx, r.deps.SearchLimit)
			if err != nil {
				return nil, err
			}
			return output.ShapeIssues(issues), nil
		}
		issue, err := r.deps.Client.Issue(ctx, ref.ID)
		if err != nil {
			if errors.Is(err, linear.ErrNotFound) {
				return nil, apperrors.WrapNotFound(ctx, err, fmt.Sprintf("Issue not found: %s", ref.ID))
			}
			return nil, err
		}
		return output.ShapeIssue(*issue), nil

	case ResourceOrganization:
		return cached(ctx, r, ResourceOrganization, func() (output.ShapedOrganization, error) {
			org, err := r.deps.Client.Organization(ctx)
			if err != nil {
				return output.ShapedOrganization{}, err
			}
			return output.ShapeOrganization(*org), nil
		})

	case ResourceTeams:
		if ref.ID == "" {
			return cached(ctx, r, ResourceTeams, func() ([]output.ShapedTeam, error) {
				teams, err := r.deps.Client.Teams(ctx)
				if err != nil {
					return nil, err
				}
				return output.ShapeTeams(teams), nil
			})
		}
		team, err := r.deps.Client.Team(ctx, ref.ID)
		if err != nil {
			if errors.Is(err, linear.ErrNotFound) {
				return nil, apperrors.WrapNotFound(ctx, err, fmt.Sprintf("Team not found: %s", ref.ID))
			}
			return nil, err
		}
		return output.ShapeTeam(*team), nil

	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("Unknown resource type: %s", ref.Type))
	}
}

// cached serves key from the resource cache when one is configured. Cache
// failures are logged and fall through to the upstream call.
func cached[T any](ctx context.Context, r *Registry, key string, load func() (T, error)) (T, error) {
	cache := r.deps.Cache
	if cache == nil || r.deps.CacheTTL <= 0 {
		return load()
	}

	if payload, ok, err := cache.GetResource(ctx, key); err != nil {
		logCacheError("read", key, err)
	} else if ok {
		var value T
		if err := json.Unmarshal(payload, &value); err == nil {
			metrics.RecordResourceCache(key, true)
			return value, nil
		}
	}
	metrics.RecordResourceCache(key, false)

	value, err := load()
	if err != nil {
		return value, err
	}

	if payload, err := json.Marshal(value); err == nil {
		if err := cache.SetResource(ctx, key, payload, r.deps.CacheTTL); err != nil {
			logCacheError("write", key, err)
		}
	}
	return value, nil
}

func logCacheError(op, key string, err error) {
	if observability.ServerLogger == nil {
		return
	}
	observability.ServerLogger.Warn("Resource cache "+op+" failed",
		zap.String("key", key),
		zap.Error(err))
}

func staticResources() []mcp.Resource {
	return []mcp.Resource{
		mcp.NewResource(ResourceScheme+ResourceOrganization, "Organization",
			mcp.WithResourceDescription("The Linear workspace of the API key"),
			mcp.WithMIMEType("application/json")),
		mcp.NewResource(ResourceScheme+ResourceTeams, "Teams",
			mcp.WithResourceDescription("Teams with their workflow states"),
			mcp.WithMIMEType("application/json")),
		mcp.NewResource(ResourceScheme+ResourceIssues, "Issues",
			mcp.WithResourceDescription("Recently updated issues"),
			mcp.WithMIMEType("application/json")),
	}
}

func resourceTemplates() []mcp.ResourceTemplate {
	return []mcp.ResourceTemplate{
		mcp.NewResourceTemplate(ResourceScheme+ResourceIssues+"/{id}", "Issue",
			mcp.WithTemplateDescription("A single issue by id or identifier"),
			mcp.WithTemplateMIMEType("application/json")),
		mcp.NewResourceTemplate(ResourceScheme+ResourceTeams+"/{id}", "Team",
			mcp.WithTemplateDescription("A single team with its workflow states"),
			mcp.WithTemplateMIMEType("application/json")),
	}
}

// serveResource answers native MCP resource reads with the same payloads the
// read-resource tool returns under "data".
func (r *Registry) serveResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	data, err := r.read(ctx, uri)
	if err != nil {
		env := apperrors.Classify(ctx, err)
		apperrors.ReportToolError("resource", env)
		return nil, errors.New(apperrors.ToolMessage(env))
	}

	text, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode resource %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(text),
		},
	}, nil
}
