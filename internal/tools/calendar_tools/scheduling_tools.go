package calendar_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/julian/internal/freeslots"
	"github.com/teemow/julian/internal/scheduling"
	"github.com/teemow/julian/internal/server"
	"github.com/teemow/julian/internal/tools/batch"
	"github.com/teemow/julian/internal/tools/common"
)

// slotSearchParams are shared by both free-slot tools.
func slotSearchParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("slotDurationMinutes",
			mcp.Description("Length of each slot in minutes (default from configuration, usually 60)"),
			mcp.Min(1),
		),
		mcp.WithNumber("horizonDays",
			mcp.Description("Number of days to search, starting tomorrow (default from configuration, usually 14)"),
			mcp.Min(1),
		),
		mcp.WithNumber("businessHoursStart",
			mcp.Description("First business hour of the day, 0-23 (default from configuration, usually 8)"),
			mcp.Min(0),
			mcp.Max(23),
		),
		mcp.WithNumber("businessHoursEnd",
			mcp.Description("Hour at which the business day ends, 1-23 (default from configuration, usually 17)"),
			mcp.Min(1),
			mcp.Max(23),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of slots to return (default: all)"),
			mcp.Min(1),
		),
	}
}

// RegisterSchedulingTools registers availability tools with the MCP server
func RegisterSchedulingTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	freeSlotsOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Find free time slots on the user's primary calendar during business hours (Monday to Friday), " +
			"starting tomorrow. Events the user declined, all-day events and events shown as free do not block time. " +
			"Returns a JSON array of {start, end} pairs."),
		mcp.WithReadOnlyHintAnnotation(true),
		accountParam(),
	}, slotSearchParams()...)
	s.AddTool(mcp.NewTool("calendar_find_free_slots", freeSlotsOpts...),
		handler("calendar_find_free_slots", "find_free_slots", sc, handleFindFreeSlots))

	forUsersOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Find time slots where all given users are free during business hours (Monday to Friday), " +
			"starting tomorrow. Returns a JSON array of {start, end} pairs."),
		mcp.WithReadOnlyHintAnnotation(true),
		accountParam(),
		mcp.WithString("userEmails",
			mcp.Required(),
			mcp.Description("User email (string), comma-separated list or array of emails"),
		),
	}, slotSearchParams()...)
	s.AddTool(mcp.NewTool("calendar_find_free_slots_for_users", forUsersOpts...),
		handler("calendar_find_free_slots_for_users", "freebusy", sc, handleFindFreeSlotsForUsers))

	queryFreeBusyTool := mcp.NewTool("calendar_query_freebusy",
		mcp.WithDescription("Check availability for one or more calendars/attendees in a time range"),
		mcp.WithReadOnlyHintAnnotation(true),
		accountParam(),
		mcp.WithString("timeMin",
			mcp.Required(),
			mcp.Description("Start time for the range (RFC3339 with offset, e.g., '2025-01-01T00:00:00Z')"),
		),
		mcp.WithString("timeMax",
			mcp.Required(),
			mcp.Description("End time for the range (RFC3339 with offset, e.g., '2025-01-31T23:59:59Z')"),
		),
		mcp.WithString("calendars",
			mcp.Required(),
			mcp.Description("Calendar ID or email (string), comma-separated list or array"),
		),
	)
	s.AddTool(queryFreeBusyTool, handler("calendar_query_freebusy", "freebusy", sc, handleQueryFreeBusy))

	return nil
}

// searchOptions reads the optional slot search overrides. Each is only set
// when present, so an explicit 0 reaches validation instead of the default.
func searchOptions(request mcp.CallToolRequest) scheduling.Options {
	args := request.GetArguments()
	var opts scheduling.Options
	if _, ok := args["slotDurationMinutes"]; ok {
		d := time.Duration(request.GetInt("slotDurationMinutes", 0)) * time.Minute
		opts.SlotDuration = &d
	}
	if _, ok := args["horizonDays"]; ok {
		days := request.GetInt("horizonDays", 0)
		opts.HorizonDays = &days
	}
	if _, ok := args["businessHoursStart"]; ok {
		h := request.GetInt("businessHoursStart", 0)
		opts.BusinessStartHour = &h
	}
	if _, ok := args["businessHoursEnd"]; ok {
		h := request.GetInt("businessHoursEnd", 0)
		opts.BusinessEndHour = &h
	}
	return opts
}

func slotsResult(slots []freeslots.Slot, loc *time.Location, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := formatSlots(slots, loc, request.GetInt("maxResults", 0))
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(text), nil
}

func handleFindFreeSlots(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	at, errResult := resolve(ctx, request, sc, "find free slots")
	if errResult != nil {
		return errResult, nil
	}

	slots, err := at.planner.FindFreeSlots(ctx, searchOptions(request))
	if err != nil {
		return common.OperationErrorResult("find free slots", err), nil
	}

	return slotsResult(slots, at.loc, request)
}

func handleFindFreeSlotsForUsers(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	emails, err := batch.ParseStringOrArray(request.GetArguments()["userEmails"], "userEmails")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	at, errResult := resolve(ctx, request, sc, "find free slots")
	if errResult != nil {
		return errResult, nil
	}

	slots, err := at.planner.FindFreeSlotsForUsers(ctx, emails, searchOptions(request))
	if err != nil {
		return common.OperationErrorResult("find free slots", err), nil
	}

	return slotsResult(slots, at.loc, request)
}

func handleQueryFreeBusy(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	timeMin, err := requiredTime(request, "timeMin")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeMax, err := requiredTime(request, "timeMax")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !timeMin.Before(timeMax) {
		return mcp.NewToolResultError("timeMin must be before timeMax"), nil
	}

	calendars, err := batch.ParseStringOrArray(request.GetArguments()["calendars"], "calendars")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	at, errResult := resolve(ctx, request, sc, "query free/busy")
	if errResult != nil {
		return errResult, nil
	}

	infos, err := at.client.QueryFreeBusy(ctx, timeMin, timeMax, calendars)
	if err != nil {
		return common.OperationErrorResult("query free/busy", err), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Free/Busy information for %d calendar(s):\n\n", len(infos))
	for _, info := range infos {
		fmt.Fprintf(&b, "Calendar: %s\n", info.Calendar)
		if len(info.Errors) > 0 {
			fmt.Fprintf(&b, "  Errors: %s\n", strings.Join(info.Errors, ", "))
		}
		if len(info.Busy) == 0 {
			if len(info.Errors) == 0 {
				b.WriteString("  No busy times (completely free)\n")
			}
		} else {
			fmt.Fprintf(&b, "  Busy times (%d):\n", len(info.Busy))
			for _, busy := range info.Busy {
				fmt.Fprintf(&b, "    - %s to %s\n",
					busy.Start.In(at.loc).Format(time.RFC3339), busy.End.In(at.loc).Format(time.RFC3339))
			}
		}
		b.WriteString("\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}
