package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	projectsURI       = "folio://projects"
	projectURIPrefix  = "folio://projects/"
	projectURIPattern = "folio://projects/{slug}"
)

// registerResources adds read-only portfolio data that clients can load
// into their context.
func (s *MCPServer) registerResources(srv *server.MCPServer) {
	srv.AddResource(
		mcp.NewResource(
			projectsURI,
			"Portfolio Projects",
			mcp.WithResourceDescription("All portfolio projects in display order."),
			mcp.WithMIMEType("application/json"),
		),
		s.handleProjectsResource,
	)

	srv.AddResourceTemplate(
		mcp.NewResourceTemplate(
			projectURIPattern,
			"Portfolio Project",
			mcp.WithTemplateDescription("A single project, addressed by slug or ID."),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleProjectResource,
	)
}

func (s *MCPServer) handleProjectsResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return jsonContents(projectsURI, projects)
}

func (s *MCPServer) handleProjectResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	key := strings.TrimPrefix(uri, projectURIPrefix)
	if key == "" || key == uri {
		return nil, fmt.Errorf("invalid project URI %q: expected %s", uri, projectURIPattern)
	}

	p, err := s.store.GetProject(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("project %q: %w", key, err)
	}
	return jsonContents(uri, p)
}

func jsonContents(uri string, v interface{}) ([]mcp.ResourceContents, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}
