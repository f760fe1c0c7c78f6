package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/folioapp/folio/internal/model"
)

// listArgs are the filters shared by the list tools.
type listArgs struct {
	featured bool
	category string
	limit    int
}

func parseListArgs(request mcp.CallToolRequest) listArgs {
	return listArgs{
		featured: request.GetBool("featured", false),
		category: request.GetString("category", ""),
		limit:    clamp(request.GetInt("limit", defaultListLimit), 1, maxListLimit),
	}
}

func (a listArgs) projects(all []model.Project) []model.Project {
	out := make([]model.Project, 0, min(len(all), a.limit))
	for _, p := range all {
		if a.featured && !p.Featured {
			continue
		}
		if a.category != "" && p.Category != a.category {
			continue
		}
		out = append(out, p)
		if len(out) == a.limit {
			break
		}
	}
	return out
}

func (a listArgs) testimonials(all []model.Testimonial) []model.Testimonial {
	out := make([]model.Testimonial, 0, min(len(all), a.limit))
	for _, t := range all {
		if a.featured && !t.Featured {
			continue
		}
		out = append(out, t)
		if len(out) == a.limit {
			break
		}
	}
	return out
}

// requireString treats an empty string the same as a missing argument.
func requireString(request mcp.CallToolRequest, key string) (string, error) {
	val, err := request.RequireString(key)
	if err != nil || val == "" {
		return "", fmt.Errorf("missing required parameter %q", key)
	}
	return val, nil
}

func successJSON(data interface{}) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// toolError reports a failure to the agent without ending the session.
func toolError(format string, args ...interface{}) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...)), nil
}

func clamp(val, lo, hi int) int {
	return max(lo, min(val, hi))
}
