// Package mcp exposes the catalog, exercise suggestions and workout
// generation as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Pat-Reen/FitnessChat/pkg/wizard"
)

// New creates an MCP server with all tools and resources registered.
func New(machine *wizard.Machine, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("FitnessChat", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("FitnessChat workout planner. List catalog exercises, get exercise suggestions for a fitness profile, and generate a workout plan in Markdown from chosen exercises. Exercise names must come from the catalog."),
	)

	h := &handlers{machine: machine, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolSuggestExercises, Handler: h.suggestExercises},
		server.ServerTool{Tool: toolBuildWorkout, Handler: h.buildWorkout},
	)

	s.AddResources(
		server.ServerResource{Resource: resCatalog, Handler: h.catalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	machine *wizard.Machine
	log     *slog.Logger
}

var resCatalog = mcp.NewResource(
	"fitchat://catalog",
	"Exercise Catalog",
	mcp.WithResourceDescription("Every muscle group with its exercises"),
	mcp.WithMIMEType("application/json"),
)

func (h *handlers) catalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(h.machine.Catalog().All())
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
