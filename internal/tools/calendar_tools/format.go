package calendar_tools

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/teemow/julian/internal/calendar"
	"github.com/teemow/julian/internal/freeslots"
)

// slotJSON is the wire form of a free slot.
type slotJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// formatSlots renders slots as a JSON array of RFC 3339 pairs in loc,
// keeping at most maxResults entries when maxResults is positive.
func formatSlots(slots []freeslots.Slot, loc *time.Location, maxResults int) (string, error) {
	if maxResults > 0 && len(slots) > maxResults {
		slots = slots[:maxResults]
	}

	out := make([]slotJSON, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotJSON{
			Start: s.Start.In(loc).Format(time.RFC3339),
			End:   s.End.In(loc).Format(time.RFC3339),
		})
	}

	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to encode slots: %w", err)
	}
	return string(b), nil
}

func formatWhen(e calendar.EventSummary, loc *time.Location) string {
	if e.AllDay {
		return fmt.Sprintf("%s (all day)", e.Start.Format("2006-01-02"))
	}
	return fmt.Sprintf("%s - %s", e.Start.In(loc).Format(time.RFC3339), e.End.In(loc).Format(time.RFC3339))
}

// formatEventList renders a numbered event listing. userEmail marks the
// user's own response when known.
func formatEventList(title string, events []calendar.EventSummary, loc *time.Location, userEmail string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d event(s)\n\n", title, len(events))

	for i, event := range events {
		summary := event.Summary
		if summary == "" {
			summary = "(No title)"
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, summary)
		fmt.Fprintf(&b, "   ID: %s\n", event.ID)
		fmt.Fprintf(&b, "   When: %s\n", formatWhen(event, loc))
		if event.Location != "" {
			fmt.Fprintf(&b, "   Location: %s\n", event.Location)
		}
		if event.MeetLink != "" {
			fmt.Fprintf(&b, "   Meet: %s\n", event.MeetLink)
		}
		if len(event.Attendees) > 0 {
			fmt.Fprintf(&b, "   Attendees: %d\n", len(event.Attendees))
		}
		if self, ok := event.Self(userEmail); ok && self.ResponseStatus != "" {
			fmt.Fprintf(&b, "   Your response: %s\n", self.ResponseStatus)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func formatEvent(event *calendar.EventSummary, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Event: %s\n", event.Summary)
	fmt.Fprintf(&b, "ID: %s\n", event.ID)
	fmt.Fprintf(&b, "When: %s\n", formatWhen(*event, loc))
	if event.Status != "" {
		fmt.Fprintf(&b, "Status: %s\n", event.Status)
	}
	if event.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", event.Description)
	}
	if event.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", event.Location)
	}
	if event.Organizer != "" {
		fmt.Fprintf(&b, "Organizer: %s\n", event.Organizer)
	}
	if event.MeetLink != "" {
		fmt.Fprintf(&b, "Google Meet: %s\n", event.MeetLink)
	}
	if event.HTMLLink != "" {
		fmt.Fprintf(&b, "Link: %s\n", event.HTMLLink)
	}

	if len(event.Attendees) > 0 {
		fmt.Fprintf(&b, "\nAttendees (%d):\n", len(event.Attendees))
		for _, att := range event.Attendees {
			fmt.Fprintf(&b, "  - %s (%s)", att.Email, att.ResponseStatus)
			if att.DisplayName != "" {
				fmt.Fprintf(&b, " - %s", att.DisplayName)
			}
			if att.Organizer {
				b.WriteString(" [organizer]")
			}
			if att.Optional {
				b.WriteString(" [optional]")
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
