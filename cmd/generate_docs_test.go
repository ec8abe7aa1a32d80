package cmd

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/julian/internal/config"
	"github.com/teemow/julian/internal/server"
)

func TestRegisterAll(t *testing.T) {
	tests := []struct {
		name      string
		readOnly  bool
		wantTools int
	}{
		{name: "write mode", readOnly: false, wantTools: 17},
		{name: "read-only mode", readOnly: true, wantTools: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := server.NewServerContext(context.Background(), config.Default(), server.WithReadOnly(tt.readOnly))
			require.NoError(t, err)
			defer func() { _ = sc.Shutdown() }()

			mcpSrv := newMCPServer()
			require.NoError(t, registerAll(mcpSrv, sc))

			tools := mcpSrv.ListTools()
			assert.Len(t, tools, tt.wantTools)
			assert.Contains(t, tools, "calendar_find_free_slots")
			assert.Contains(t, tools, "google_get_auth_url")

			_, hasWrite := tools["calendar_decline_todays_events"]
			assert.Equal(t, !tt.readOnly, hasWrite)
		})
	}
}

func TestGetCategoryFromToolName(t *testing.T) {
	assert.Equal(t, "Google Calendar Tools", getCategoryFromToolName("calendar_find_free_slots"))
	assert.Equal(t, "Google Account Tools", getCategoryFromToolName("google_get_auth_url"))
	assert.Equal(t, "Other", getCategoryFromToolName("weather"))
}

func TestGenerateToolsMarkdown(t *testing.T) {
	tools := []mcp.Tool{
		mcp.NewTool("calendar_find_free_slots",
			mcp.WithDescription("Find free time slots"),
			mcp.WithNumber("slotDurationMinutes", mcp.Description("Length of each slot in minutes")),
		),
		mcp.NewTool("google_get_auth_url",
			mcp.WithDescription("Get the OAuth URL"),
			mcp.WithString("account", mcp.Required(), mcp.Description("Account name")),
		),
	}

	markdown := generateToolsMarkdown(tools)

	assert.Contains(t, markdown, "# MCP Tools Reference")
	assert.Contains(t, markdown, "- [Google Account Tools](#google-account-tools)")
	assert.Contains(t, markdown, "## Google Calendar Tools")
	assert.Contains(t, markdown, "### calendar_find_free_slots")
	assert.Contains(t, markdown, "- `slotDurationMinutes` (optional): Length of each slot in minutes")
	assert.Contains(t, markdown, "- `account` (required): Account name")
	assert.Contains(t, markdown, "X-Julian-Account")
}
