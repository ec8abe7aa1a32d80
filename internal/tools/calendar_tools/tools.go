package calendar_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/julian/internal/calendar"
	"github.com/teemow/julian/internal/freeslots"
	"github.com/teemow/julian/internal/server"
	"github.com/teemow/julian/internal/tools/common"
)

const serviceCalendar = "calendar"

// accountParam is shared by every tool.
func accountParam() mcp.ToolOption {
	return mcp.WithString("account",
		mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
	)
}

// RegisterCalendarTools registers all Calendar-related tools with the MCP server.
// Tools that modify events are only registered when the server is not read-only.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := RegisterEventTools(s, sc, sc.ReadOnly()); err != nil {
		return fmt.Errorf("failed to register event tools: %w", err)
	}

	if err := RegisterCalendarListTools(s, sc); err != nil {
		return fmt.Errorf("failed to register calendar list tools: %w", err)
	}

	if err := RegisterSchedulingTools(s, sc); err != nil {
		return fmt.Errorf("failed to register scheduling tools: %w", err)
	}

	return nil
}

// handler binds a tool implementation to the server context and instruments it.
func handler(name, operation string, sc *server.ServerContext, fn func(context.Context, mcp.CallToolRequest, *server.ServerContext) (*mcp.CallToolResult, error)) common.ToolHandler {
	return common.InstrumentedToolHandlerWithService(name, serviceCalendar, operation, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return fn(ctx, request, sc)
		})
}

// calendarIDFromArgs returns the calendarId argument or the primary calendar.
func calendarIDFromArgs(request mcp.CallToolRequest) string {
	if id := strings.TrimSpace(request.GetString("calendarId", "")); id != "" {
		return id
	}
	return calendar.PrimaryCalendarID
}

// requiredTime parses a required RFC 3339 argument. Timestamps without an
// offset are rejected.
func requiredTime(request mcp.CallToolRequest, name string) (time.Time, error) {
	value := request.GetString(name, "")
	if value == "" {
		return time.Time{}, fmt.Errorf("%s is required", name)
	}
	t, err := freeslots.ParseInstant(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	return t, nil
}

// clientFor resolves the account's Calendar client, converting failures into
// a tool error result.
func clientFor(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*calendar.Client, string, *mcp.CallToolResult) {
	account := common.GetAccountFromArgs(ctx, request.GetArguments())
	client, err := sc.CalendarClientForAccount(ctx, account)
	if err != nil {
		return nil, account, common.ClientErrorResult(account, err)
	}
	return client, account, nil
}
