package prompts

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/julian/internal/server"
)

const (
	defaultDurationMinutes = 60
	defaultTimeOfDay       = "morning"
	defaultTimeline        = "the next 3 days"
	maxProposedSlots       = 5
	maxSlotsPerDay         = 2
	maxBookingMonths       = 6
)

const readOnlyNotice = "This server is read-only: tools that change events are not available. " +
	"Tell the user which changes you would make instead of making them."

// prompt pairs an MCP prompt with the function rendering its instructions.
type prompt struct {
	prompt mcp.Prompt
	render func(args map[string]string, sc *server.ServerContext) (string, error)
}

func definitions() []prompt {
	return []prompt{
		{
			prompt: mcp.NewPrompt("summarize_day",
				mcp.WithPromptDescription("Summarize the meetings of today or this week"),
				mcp.WithArgument("period",
					mcp.ArgumentDescription("'today' (default) or 'week'"),
				),
			),
			render: renderSummarizeDay,
		},
		{
			prompt: mcp.NewPrompt("find_free_slots",
				mcp.WithPromptDescription("Propose free slots in the user's calendar"),
				mcp.WithArgument("duration_minutes",
					mcp.ArgumentDescription("Slot length in minutes (default: 60)"),
				),
				mcp.WithArgument("time_of_day",
					mcp.ArgumentDescription("morning, afternoon or evening (default: morning)"),
				),
				mcp.WithArgument("timeline",
					mcp.ArgumentDescription("When the slots should be, e.g. 'this week' (default: the next 3 days)"),
				),
			),
			render: renderFindFreeSlots,
		},
		{
			prompt: mcp.NewPrompt("cancel_todays_meetings",
				mcp.WithPromptDescription("Decline all of today's meetings and report what was declined"),
				mcp.WithArgument("comment",
					mcp.ArgumentDescription("Comment sent with each decline"),
				),
			),
			render: renderCancelToday,
		},
		{
			prompt: mcp.NewPrompt("move_meeting",
				mcp.WithPromptDescription("Move a meeting to a time that works for all attendees"),
				mcp.WithArgument("meeting",
					mcp.ArgumentDescription("The meeting to move, e.g. 'the project sync on Thursday'"),
					mcp.RequiredArgument(),
				),
				mcp.WithArgument("timeline",
					mcp.ArgumentDescription("When the meeting should move to (default: the next 3 days)"),
				),
			),
			render: renderMoveMeeting,
		},
		{
			prompt: mcp.NewPrompt("calendar_assistant",
				mcp.WithPromptDescription("General calendar assistant that organizes the user's calendar"),
				mcp.WithArgument("request",
					mcp.ArgumentDescription("What the user wants done"),
				),
			),
			render: renderAssistant,
		},
	}
}

// RegisterPrompts registers all prompts with the MCP server
func RegisterPrompts(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	for _, def := range definitions() {
		def := def
		s.AddPrompt(def.prompt, func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			text, err := def.render(request.Params.Arguments, sc)
			if err != nil {
				return nil, err
			}
			return mcp.NewGetPromptResult(def.prompt.Description, []mcp.PromptMessage{
				mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
			}), nil
		})
	}
	return nil
}

func argOr(args map[string]string, name, fallback string) string {
	if v := strings.TrimSpace(args[name]); v != "" {
		return v
	}
	return fallback
}

func renderSummarizeDay(args map[string]string, _ *server.ServerContext) (string, error) {
	period := strings.ToLower(argOr(args, "period", "today"))

	var tool, scope string
	switch period {
	case "today", "day":
		tool, scope = "calendar_list_todays_events", "today"
	case "week", "this week":
		tool, scope = "calendar_list_weeks_events", "this week"
	default:
		return "", fmt.Errorf("unknown period %q: use 'today' or 'week'", period)
	}

	return fmt.Sprintf(`You are a helpful assistant that summarizes the user's meetings.

Call %s to get the events for %s, then provide a useful summary of:

1. All meetings and events taking place %s, with their times and meeting links
2. Any free time in the calendar
3. Any last minute meetings that were booked after 5pm the day before; flag them

Example:

Summary: You have a busy day ahead with many back-to-back meetings. Remember to take breaks.

Meetings:

1. Meeting with Brad, 9-10am, <link to meeting>
2. Project ABC team huddle, 10:30-11am, <link to meeting>

Late last night Edmund booked a quick huddle at 2pm today. You may not have read the invite.`, tool, scope, scope), nil
}

func renderFindFreeSlots(args map[string]string, sc *server.ServerContext) (string, error) {
	duration := defaultDurationMinutes
	if raw := strings.TrimSpace(args["duration_minutes"]); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d <= 0 {
			return "", fmt.Errorf("duration_minutes must be a positive number, got %q", raw)
		}
		duration = d
	}
	timeOfDay := argOr(args, "time_of_day", defaultTimeOfDay)
	timeline := argOr(args, "timeline", defaultTimeline)
	cfg := sc.Config().Scheduling

	return fmt.Sprintf(`You are a helpful assistant that finds free slots in the user's calendar.

Find %d-minute free slots in the %s within %s.

1. Call calendar_get_now to learn today's date and the user's time zone.
2. Call calendar_list_upcoming_events to spot holidays or out-of-office days; never offer slots on those days.
3. Call calendar_find_free_slots with slotDurationMinutes=%d and a horizonDays value covering %s.
   Business hours are %02d:00 to %02d:00 unless the user asks otherwise; never offer slots outside business hours.

Offer at most %d slots. Prefer earlier slots over later ones, but offer no more than %d slots on the same day.`,
		duration, timeOfDay, timeline, duration, timeline,
		cfg.BusinessStartHour, cfg.BusinessEndHour, maxProposedSlots, maxSlotsPerDay), nil
}

func renderCancelToday(args map[string]string, sc *server.ServerContext) (string, error) {
	comment := argOr(args, "comment", sc.Config().Scheduling.DeclineComment)

	var b strings.Builder
	b.WriteString("You are a calendar assistant that helps the user manage their calendar.\n\n")
	if sc.ReadOnly() {
		b.WriteString(readOnlyNotice + "\n\n")
		b.WriteString("Call calendar_list_todays_events and list the meetings that would be declined.\n")
		return b.String(), nil
	}

	fmt.Fprintf(&b, "Call calendar_decline_todays_events with comment=%q to decline all of today's meetings, ", comment)
	b.WriteString(`then report back every meeting that was declined and any that failed.

Example:

I have declined all the meetings below for today.

Meetings:

1. Meeting with Brad, 9-10am, <link to meeting>
2. Project ABC team huddle, 10:30-11am, <link to meeting>
`)
	return b.String(), nil
}

func renderMoveMeeting(args map[string]string, sc *server.ServerContext) (string, error) {
	meeting := strings.TrimSpace(args["meeting"])
	if meeting == "" {
		return "", fmt.Errorf("meeting is required")
	}
	timeline := argOr(args, "timeline", defaultTimeline)

	var b strings.Builder
	fmt.Fprintf(&b, `You are a helpful assistant tasked to move a meeting to another time.

Meeting: %s
Move it to a time within %s.

1. Call calendar_get_now, then find the event with calendar_list_upcoming_events.
2. Call calendar_find_free_slots_for_users with the user and every attendee to find slots that are free for everyone.
3. Ask the user which slot works best.
4. If the user is the organizer, move the event with calendar_reschedule_event.
5. If the user is not the organizer, decline the event with calendar_decline_event and propose the new time in the comment.
`, meeting, timeline)
	if sc.ReadOnly() {
		b.WriteString("\n" + readOnlyNotice + "\n")
	}
	return b.String(), nil
}

func renderAssistant(args map[string]string, sc *server.ServerContext) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, `You are a helpful calendar agent. You help users organize their calendars using the calendar tools.

Use the summarize_day, find_free_slots, cancel_todays_meetings and move_meeting prompts for those tasks
and give the user their answer unchanged.

When the user wants a meeting with other attendees:

1. Check for free slots with calendar_find_free_slots_for_users.
2. Propose at most 3 slots and ask for confirmation.
3. Create the event with calendar_create_event and add the attendees.

Always call calendar_get_now first. Never book meetings in the past or more than %d months ahead.
`, maxBookingMonths)
	if sc.ReadOnly() {
		b.WriteString("\n" + readOnlyNotice + "\n")
	}
	if request := strings.TrimSpace(args["request"]); request != "" {
		fmt.Fprintf(&b, "\nUser request: %s\n", request)
	}
	return b.String(), nil
}
