// Package tools registers the Linear MCP tools and resources against an
// mcp-go server. Every handler runs behind a boundary that turns failures
// into {error} payloads and attaches the rate governor snapshot.
package tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/linearmcp/linear-mcp/internal/core"
)

// LinearAPI is the subset of the Linear client the tools call.
type LinearAPI interface {
	CreateIssue(ctx context.Context, input core.IssueCreateInput) (*core.Issue, error)
	SearchIssues(ctx context.Context, filter core.IssueFilter, first int) ([]core.Issue, error)
	AssignedIssues(ctx context.Context, filter core.IssueFilter, first int) ([]core.Issue, error)
	ListIssues(ctx context.Context, first int) ([]core.Issue, error)
	Issue(ctx context.Context, id string) (*core.Issue, error)
	Organization(ctx context.Context) (*core.Organization, error)
	Teams(ctx context.Context) ([]core.Team, error)
	Team(ctx context.Context, id string) (*core.Team, error)
}

// UsageReporter supplies the governor snapshot attached to responses.
type UsageReporter interface {
	Metrics() core.UsageMetrics
}

// ResourceCache stores encoded resource payloads between calls.
type ResourceCache interface {
	GetResource(ctx context.Context, key string) ([]byte, bool, error)
	SetResource(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}

// Deps are the collaborators the tool handlers use. Cache is optional.
type Deps struct {
	Client      LinearAPI
	Usage       UsageReporter
	Cache       ResourceCache
	CacheTTL    time.Duration
	SearchLimit int
}

// Registry builds the tool table.
type Registry struct {
	deps Deps
}

// NewRegistry returns a registry over deps. SearchLimit defaults to 50.
func NewRegistry(deps Deps) *Registry {
	if deps.SearchLimit <= 0 {
		deps.SearchLimit = 50
	}
	return &Registry{deps: deps}
}

// Register adds every tool, resource and resource template to s.
func (r *Registry) Register(s *server.MCPServer) {
	s.AddTool(createIssueTool(), r.boundary(createIssueName, r.createIssue))
	s.AddTool(searchIssuesTool(), r.boundary(searchIssuesName, r.searchIssues))
	s.AddTool(readResourceTool(), r.boundary(readResourceName, r.readResource))

	for _, resource := range staticResources() {
		s.AddResource(resource, r.serveResource)
	}
	for _, template := range resourceTemplates() {
		s.AddResourceTemplate(template, r.serveResource)
	}
}

// NewServer returns an mcp-go server with the registry's tools registered.
func NewServer(name, version, instructions string, registry *Registry) *server.MCPServer {
	s := server.NewMCPServer(name, version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	registry.Register(s)
	return s
}
