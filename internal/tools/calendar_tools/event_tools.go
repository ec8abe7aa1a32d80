package calendar_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/julian/internal/calendar"
	"github.com/teemow/julian/internal/logging"
	"github.com/teemow/julian/internal/scheduling"
	"github.com/teemow/julian/internal/server"
	"github.com/teemow/julian/internal/tools/batch"
	"github.com/teemow/julian/internal/tools/common"
)

const defaultUpcomingDays = 7

// RegisterEventTools registers event-related tools with the MCP server.
// Tools that change events are skipped when readOnly is set.
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	getNowTool := mcp.NewTool("calendar_get_now",
		mcp.WithDescription("Get the current date and time in the time zone of the user's primary calendar"),
		mcp.WithReadOnlyHintAnnotation(true),
		accountParam(),
	)
	s.AddTool(getNowTool, handler("calendar_get_now", "get_time", sc, handleGetNow))

	upcomingTool := mcp.NewTool("calendar_list_upcoming_events",
		mcp.WithDescription("List primary calendar events from now until the end of the given number of days"),
		mcp.WithReadOnlyHintAnnotation(true),
		accountParam(),
		mcp.WithNumber("days",
			mcp.Description("Number of days to look ahead, counted from the start of today (default: 7)"),
			mcp.Min(1),
		),
	)
	s.AddTool(upcomingTool, handler("calendar_list_upcoming_events", "list", sc, handleListUpcomingEvents))

	todayTool := mcp.NewTool("calendar_list_todays_events",
		mcp.WithDescription("List today's events on the primary calendar"),
		mcp.WithReadOnlyHintAnnotation(true),
		accountParam(),
	)
	s.AddTool(todayTool, handler("calendar_list_todays_events", "list", sc, handleListTodaysEvents))

	weekTool := mcp.NewTool("calendar_list_weeks_events",
		mcp.WithDescription("List primary calendar events from the start of today until the end of the week (Sunday)"),
		mcp.WithReadOnlyHintAnnotation(true),
		accountParam(),
	)
	s.AddTool(weekTool, handler("calendar_list_weeks_events", "list", sc, handleListWeeksEvents))

	getEventTool := mcp.NewTool("calendar_get_event",
		mcp.WithDescription("Get details of a specific calendar event"),
		mcp.WithReadOnlyHintAnnotation(true),
		accountParam(),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (default: 'primary')"),
		),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to retrieve"),
		),
	)
	s.AddTool(getEventTool, handler("calendar_get_event", "get", sc, handleGetEvent))

	if readOnly {
		return nil
	}

	createEventTool := mcp.NewTool("calendar_create_event",
		mcp.WithDescription("Create a new event on the primary calendar"),
		accountParam(),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Event title"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start time (RFC3339 with offset, e.g., '2025-01-15T14:00:00-08:00')"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("End time (RFC3339 with offset, e.g., '2025-01-15T15:00:00-08:00')"),
		),
		mcp.WithString("description",
			mcp.Description("Event description"),
		),
		mcp.WithString("location",
			mcp.Description("Event location"),
		),
		mcp.WithString("attendees",
			mcp.Description("Attendee email (string), comma-separated list or array of emails"),
		),
		mcp.WithBoolean("addGoogleMeet",
			mcp.Description("Add a Google Meet link to the event"),
		),
	)
	s.AddTool(createEventTool, handler("calendar_create_event", "create", sc, handleCreateEvent))

	addAttendeesTool := mcp.NewTool("calendar_add_attendees",
		mcp.WithDescription("Add guests to an existing event and notify all guests"),
		accountParam(),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event"),
		),
		mcp.WithString("attendees",
			mcp.Required(),
			mcp.Description("Attendee email (string), comma-separated list or array of emails"),
		),
	)
	s.AddTool(addAttendeesTool, handler("calendar_add_attendees", "update", sc, handleAddAttendees))

	rescheduleTool := mcp.NewTool("calendar_reschedule_event",
		mcp.WithDescription("Move an event to a new time and notify all guests"),
		accountParam(),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to move"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("New start time (RFC3339 with offset)"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("New end time (RFC3339 with offset)"),
		),
	)
	s.AddTool(rescheduleTool, handler("calendar_reschedule_event", "update", sc, handleRescheduleEvent))

	declineTool := mcp.NewTool("calendar_decline_event",
		mcp.WithDescription("Decline one or more events with an optional comment"),
		mcp.WithDestructiveHintAnnotation(true),
		accountParam(),
		mcp.WithString("eventIds",
			mcp.Required(),
			mcp.Description("Event ID (string) or array of event IDs to decline"),
		),
		mcp.WithString("comment",
			mcp.Description("Comment sent with the response (default from configuration)"),
		),
	)
	s.AddTool(declineTool, handler("calendar_decline_event", "decline", sc, handleDeclineEvent))

	declineTodayTool := mcp.NewTool("calendar_decline_todays_events",
		mcp.WithDescription("Decline every event today that the user is invited to and has not declined yet"),
		mcp.WithDestructiveHintAnnotation(true),
		accountParam(),
		mcp.WithString("comment",
			mcp.Description("Comment sent with the responses (default from configuration)"),
		),
	)
	s.AddTool(declineTodayTool, handler("calendar_decline_todays_events", "decline", sc, handleDeclineTodaysEvents))

	return nil
}

// accountTools bundles what a handler needs to act for one account.
type accountTools struct {
	account string
	client  *calendar.Client
	planner *scheduling.Planner
	loc     *time.Location
}

// resolve builds the account's client and planner and resolves the
// calendar's time zone, converting failures into a tool error result.
func resolve(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext, operation string) (*accountTools, *mcp.CallToolResult) {
	client, account, errResult := clientFor(ctx, request, sc)
	if errResult != nil {
		return nil, errResult
	}

	planner, err := sc.PlannerForAccount(ctx, account)
	if err != nil {
		return nil, common.ClientErrorResult(account, err)
	}

	loc, err := planner.Location(ctx)
	if err != nil {
		return nil, common.OperationErrorResult(operation, err)
	}

	return &accountTools{account: account, client: client, planner: planner, loc: loc}, nil
}

// userEmailFor returns the account's email, or "" so that the attendee the
// API flags as self is used instead.
func userEmailFor(ctx context.Context, sc *server.ServerContext, account string) string {
	email, err := sc.UserEmail(ctx, account)
	if err != nil {
		sc.Logger().Debug("user email unavailable", logging.Account(account), logging.Err(err))
		return ""
	}
	return email
}

func declineComment(request mcp.CallToolRequest, sc *server.ServerContext) string {
	if comment := strings.TrimSpace(request.GetString("comment", "")); comment != "" {
		return comment
	}
	return sc.Config().Scheduling.DeclineComment
}

func handleGetNow(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	at, errResult := resolve(ctx, request, sc, "get current time")
	if errResult != nil {
		return errResult, nil
	}

	now, err := at.planner.Now(ctx)
	if err != nil {
		return common.OperationErrorResult("get current time", err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s (%s, %s)",
		now.Format(time.RFC3339), now.Location(), now.Weekday())), nil
}

func listEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext, title string, list func(*scheduling.Planner) ([]calendar.EventSummary, error)) (*mcp.CallToolResult, error) {
	at, errResult := resolve(ctx, request, sc, "list events")
	if errResult != nil {
		return errResult, nil
	}

	events, err := list(at.planner)
	if err != nil {
		return common.OperationErrorResult("list events", err), nil
	}

	email, _ := sc.CachedUserEmail(at.account)
	return mcp.NewToolResultText(formatEventList(title, events, at.loc, email)), nil
}

func handleListUpcomingEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	days := request.GetInt("days", defaultUpcomingDays)
	if days <= 0 {
		return mcp.NewToolResultError("days must be a positive number"), nil
	}

	title := fmt.Sprintf("Upcoming events (next %d day(s))", days)
	return listEvents(ctx, request, sc, title, func(p *scheduling.Planner) ([]calendar.EventSummary, error) {
		return p.UpcomingEvents(ctx, days)
	})
}

func handleListTodaysEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	return listEvents(ctx, request, sc, "Today's events", func(p *scheduling.Planner) ([]calendar.EventSummary, error) {
		return p.TodaysEvents(ctx)
	})
}

func handleListWeeksEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	return listEvents(ctx, request, sc, "This week's events", func(p *scheduling.Planner) ([]calendar.EventSummary, error) {
		return p.WeeksEvents(ctx)
	})
}

func handleGetEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	eventID := strings.TrimSpace(request.GetString("eventId", ""))
	if eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}

	at, errResult := resolve(ctx, request, sc, "get event")
	if errResult != nil {
		return errResult, nil
	}

	event, err := at.client.GetEvent(ctx, calendarIDFromArgs(request), eventID)
	if err != nil {
		return common.OperationErrorResult("get event", err), nil
	}

	return mcp.NewToolResultText(formatEvent(event, at.loc)), nil
}

func handleCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	summary := strings.TrimSpace(request.GetString("summary", ""))
	if summary == "" {
		return mcp.NewToolResultError("summary is required"), nil
	}
	start, err := requiredTime(request, "start")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	end, err := requiredTime(request, "end")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !start.Before(end) {
		return mcp.NewToolResultError("start must be before end"), nil
	}

	var attendees []string
	if raw, ok := request.GetArguments()["attendees"]; ok && raw != nil && raw != "" {
		attendees, err = batch.ParseStringOrArray(raw, "attendees")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	at, errResult := resolve(ctx, request, sc, "create event")
	if errResult != nil {
		return errResult, nil
	}
	loc := at.loc

	event, err := at.client.CreateEvent(ctx, calendar.PrimaryCalendarID, calendar.EventInput{
		Summary:                  summary,
		Description:              request.GetString("description", ""),
		Location:                 request.GetString("location", ""),
		Start:                    start.In(loc),
		End:                      end.In(loc),
		TimeZone:                 loc.String(),
		Attendees:                attendees,
		UseDefaultConferenceData: request.GetBool("addGoogleMeet", false),
	})
	if err != nil {
		return common.OperationErrorResult("create event", err), nil
	}

	return mcp.NewToolResultText("Event created successfully.\n\n" + formatEvent(event, loc)), nil
}

func handleAddAttendees(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	eventID := strings.TrimSpace(request.GetString("eventId", ""))
	if eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}
	attendees, err := batch.ParseStringOrArray(request.GetArguments()["attendees"], "attendees")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, errResult := clientFor(ctx, request, sc)
	if errResult != nil {
		return errResult, nil
	}

	event, err := client.AddAttendees(ctx, calendar.PrimaryCalendarID, eventID, attendees)
	if err != nil {
		return common.OperationErrorResult("add attendees", err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Event %s now has %d attendee(s). All guests were notified.",
		event.ID, len(event.Attendees))), nil
}

func handleRescheduleEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	eventID := strings.TrimSpace(request.GetString("eventId", ""))
	if eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}
	start, err := requiredTime(request, "start")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	end, err := requiredTime(request, "end")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	at, errResult := resolve(ctx, request, sc, "reschedule event")
	if errResult != nil {
		return errResult, nil
	}

	event, err := at.client.RescheduleEvent(ctx, calendar.PrimaryCalendarID, eventID, start, end)
	if err != nil {
		return common.OperationErrorResult("reschedule event", err), nil
	}

	return mcp.NewToolResultText("Event rescheduled. All guests were notified.\n\n" + formatEvent(event, at.loc)), nil
}

func handleDeclineEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	eventIDs, err := batch.ParseStringOrArray(request.GetArguments()["eventIds"], "eventIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, account, errResult := clientFor(ctx, request, sc)
	if errResult != nil {
		return errResult, nil
	}

	email := userEmailFor(ctx, sc, account)
	comment := declineComment(request, sc)

	results := batch.ProcessBatch(ctx, eventIDs, func(ctx context.Context, id string) (string, error) {
		if _, err := client.DeclineEvent(ctx, calendar.PrimaryCalendarID, id, email, comment); err != nil {
			return "", err
		}
		return "declined", nil
	})

	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}

func handleDeclineTodaysEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	at, errResult := resolve(ctx, request, sc, "decline today's events")
	if errResult != nil {
		return errResult, nil
	}

	now, err := at.planner.Now(ctx)
	if err != nil {
		return common.OperationErrorResult("decline today's events", err), nil
	}

	today := scheduling.TodayWindow(now)
	declines, err := at.client.DeclineEventsInRange(ctx, calendar.PrimaryCalendarID, today.Start, today.End,
		userEmailFor(ctx, sc, at.account), declineComment(request, sc))
	if err != nil {
		return common.OperationErrorResult("decline today's events", err), nil
	}

	return mcp.NewToolResultText(batch.FormatResults(batch.FromDeclineResults(declines, now.Location()))), nil
}
