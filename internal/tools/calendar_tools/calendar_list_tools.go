package calendar_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/julian/internal/calendar"
	"github.com/teemow/julian/internal/server"
	"github.com/teemow/julian/internal/tools/common"
)

// RegisterCalendarListTools registers calendar list tools with the MCP server
func RegisterCalendarListTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listCalendarsTool := mcp.NewTool("calendar_list_calendars",
		mcp.WithDescription("List all calendars accessible to the user"),
		mcp.WithReadOnlyHintAnnotation(true),
		accountParam(),
	)
	s.AddTool(listCalendarsTool, handler("calendar_list_calendars", "list_calendars", sc, handleListCalendars))

	getCalendarTool := mcp.NewTool("calendar_get_calendar",
		mcp.WithDescription("Get information about a specific calendar"),
		mcp.WithReadOnlyHintAnnotation(true),
		accountParam(),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (default: 'primary')"),
		),
	)
	s.AddTool(getCalendarTool, handler("calendar_get_calendar", "get_calendar", sc, handleGetCalendar))

	return nil
}

func writeCalendar(b *strings.Builder, cal calendar.CalendarInfo, indent string) {
	fmt.Fprintf(b, "%sID: %s\n", indent, cal.ID)
	fmt.Fprintf(b, "%sAccess Role: %s\n", indent, cal.AccessRole)
	if cal.Primary {
		fmt.Fprintf(b, "%s[PRIMARY]\n", indent)
	}
	if cal.Description != "" {
		fmt.Fprintf(b, "%sDescription: %s\n", indent, cal.Description)
	}
	if cal.TimeZone != "" {
		fmt.Fprintf(b, "%sTime Zone: %s\n", indent, cal.TimeZone)
	}
}

func handleListCalendars(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, _, errResult := clientFor(ctx, request, sc)
	if errResult != nil {
		return errResult, nil
	}

	calendars, err := client.ListCalendars(ctx)
	if err != nil {
		return common.OperationErrorResult("list calendars", err), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d calendar(s):\n\n", len(calendars))
	for i, cal := range calendars {
		fmt.Fprintf(&b, "%d. %s\n", i+1, cal.Summary)
		writeCalendar(&b, cal, "   ")
		b.WriteString("\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}

func handleGetCalendar(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, _, errResult := clientFor(ctx, request, sc)
	if errResult != nil {
		return errResult, nil
	}

	cal, err := client.GetCalendar(ctx, calendarIDFromArgs(request))
	if err != nil {
		return common.OperationErrorResult("get calendar", err), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Calendar: %s\n", cal.Summary)
	writeCalendar(&b, *cal, "")
	return mcp.NewToolResultText(b.String()), nil
}
