package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/folioapp/folio/internal/config"
	"github.com/folioapp/folio/internal/model"
	"github.com/folioapp/folio/internal/service"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// registerTools registers the portfolio tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {
	srv.AddTool(
		mcp.NewTool("folio_list_projects",
			mcp.WithDescription(
				"List portfolio projects in display order. Each project has a title, "+
					"slug, short and long descriptions, technologies, links and category.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithBoolean("featured",
				mcp.Description("Only return featured projects"),
			),
			mcp.WithString("category",
				mcp.Description("Only return projects in this category"),
				mcp.Enum(model.CategoryWeb, model.CategoryMobile, model.CategoryFullStack,
					model.CategoryDesign, model.CategoryOther),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of projects to return (default 20, max 100)"),
			),
		),
		s.handleListProjects,
	)

	srv.AddTool(
		mcp.NewTool("folio_get_project",
			mcp.WithDescription("Get one project by its ID or slug."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("id_or_slug",
				mcp.Required(),
				mcp.Description("Project ID or slug (e.g. \"my-portfolio\")"),
			),
		),
		s.handleGetProject,
	)

	srv.AddTool(
		mcp.NewTool("folio_list_testimonials",
			mcp.WithDescription("List testimonials, featured ones first."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithBoolean("featured",
				mcp.Description("Only return featured testimonials"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of testimonials to return (default 20, max 100)"),
			),
		),
		s.handleListTestimonials,
	)

	srv.AddTool(
		mcp.NewTool("folio_ask",
			mcp.WithDescription(
				"Ask the portfolio assistant a question about the site owner, their "+
					"skills, projects or how to get in touch. Returns the reply and the "+
					"intent it matched.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("message",
				mcp.Required(),
				mcp.Description("The visitor's question"),
			),
		),
		s.handleAsk,
	)
}

// =========================================================================
// Tool handlers
// =========================================================================

func (s *MCPServer) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		s.logger.Error("mcp list projects", "error", err)
		return toolError("Failed to list projects")
	}

	return successJSON(parseListArgs(request).projects(projects))
}

func (s *MCPServer) handleGetProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := requireString(request, "id_or_slug")
	if err != nil {
		return toolError("%v", err)
	}

	p, err := s.store.GetProject(ctx, key)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return toolError("Project %q not found. Use folio_list_projects to see available slugs.", key)
		}
		s.logger.Error("mcp get project", "error", err)
		return toolError("Failed to load project")
	}
	return successJSON(p)
}

func (s *MCPServer) handleListTestimonials(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	testimonials, err := s.store.ListTestimonials(ctx)
	if err != nil {
		s.logger.Error("mcp list testimonials", "error", err)
		return toolError("Failed to list testimonials")
	}

	return successJSON(parseListArgs(request).testimonials(testimonials))
}

func (s *MCPServer) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := requireString(request, "message")
	if err != nil {
		return toolError("%v", err)
	}

	reply, err := s.bot.Reply(message)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			return toolError("Message required")
		}
		return toolError("Failed to answer: %v", err)
	}
	return successJSON(reply)
}
