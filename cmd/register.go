package cmd

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/julian/internal/prompts"
	"github.com/teemow/julian/internal/resources"
	"github.com/teemow/julian/internal/server"
	"github.com/teemow/julian/internal/tools/calendar_tools"
	"github.com/teemow/julian/internal/tools/google_tools"
)

// newMCPServer creates the MCP server with every capability julian uses.
func newMCPServer(opts ...mcpserver.ServerOption) *mcpserver.MCPServer {
	opts = append([]mcpserver.ServerOption{
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
		mcpserver.WithPromptCapabilities(false),
		mcpserver.WithRecovery(),
	}, opts...)
	return mcpserver.NewMCPServer("julian", version, opts...)
}

// registerAll registers all MCP tools, resources and prompts.
// Write tools follow the server context's read-only setting.
func registerAll(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	type registration struct {
		name     string
		register func() error
	}

	registrations := []registration{
		{
			name: "Calendar",
			register: func() error {
				return calendar_tools.RegisterCalendarTools(mcpSrv, sc)
			},
		},
		{
			name: "Google",
			register: func() error {
				return google_tools.RegisterGoogleTools(mcpSrv, sc)
			},
		},
		{
			name: "Resources",
			register: func() error {
				return resources.RegisterResources(mcpSrv, sc)
			},
		},
		{
			name: "Prompts",
			register: func() error {
				return prompts.RegisterPrompts(mcpSrv, sc)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return nil
}
