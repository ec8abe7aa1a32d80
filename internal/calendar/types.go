package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

const (
	// PrimaryCalendarID addresses the authenticated user's main calendar
	PrimaryCalendarID = "primary"

	// DefaultDeclineComment is attached to responses sent by julian
	DefaultDeclineComment = "Declined by Julian"

	dateLayout = "2006-01-02"
)

// EventInput represents the input for creating a calendar event
type EventInput struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	TimeZone    string
	Attendees   []string
	AllDay      bool

	// UseDefaultConferenceData adds a Google Meet link
	UseDefaultConferenceData bool
}

// EventSummary represents a simplified calendar event for listing
type EventSummary struct {
	ID          string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Transparent bool // shown as free
	Creator     string
	Organizer   string
	Status      string
	Attendees   []AttendeeInfo
	MeetLink    string
	HTMLLink    string
}

// Self returns the attendee entry for the given email, falling back to the
// entry the API marks as the authenticated user.
func (e EventSummary) Self(email string) (AttendeeInfo, bool) {
	for _, a := range e.Attendees {
		if matchesUser(a.Email, a.Self, email) {
			return a, true
		}
	}
	return AttendeeInfo{}, false
}

// AttendeeInfo represents information about an event attendee
type AttendeeInfo struct {
	Email          string
	DisplayName    string
	ResponseStatus string // "needsAction", "declined", "tentative", "accepted"
	Comment        string
	Optional       bool
	Organizer      bool
	Self           bool
}

// CalendarInfo represents information about a calendar
type CalendarInfo struct {
	ID          string
	Summary     string
	Description string
	TimeZone    string
	Primary     bool
	AccessRole  string // "owner", "writer", "reader", "freeBusyReader"
}

// FreeBusyInfo represents availability information for a calendar
type FreeBusyInfo struct {
	Calendar string
	Busy     []TimeRange
	Errors   []string
}

// TimeRange represents a time range
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// DeclineResult reports the outcome of declining one event
type DeclineResult struct {
	EventID string
	Summary string
	Start   time.Time
	End     time.Time
	Err     error
}

// toEventSummary converts a Google Calendar event to an EventSummary
func toEventSummary(event *calendar.Event) EventSummary {
	if event == nil {
		return EventSummary{}
	}

	summary := EventSummary{
		ID:          event.Id,
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
		Status:      event.Status,
		Transparent: event.Transparency == "transparent",
		HTMLLink:    event.HtmlLink,
	}

	summary.Start, summary.AllDay = parseEventDateTime(event.Start)
	summary.End, _ = parseEventDateTime(event.End)

	if event.Creator != nil {
		summary.Creator = event.Creator.Email
	}
	if event.Organizer != nil {
		summary.Organizer = event.Organizer.Email
	}

	for _, att := range event.Attendees {
		summary.Attendees = append(summary.Attendees, AttendeeInfo{
			Email:          att.Email,
			DisplayName:    att.DisplayName,
			ResponseStatus: att.ResponseStatus,
			Comment:        att.Comment,
			Optional:       att.Optional,
			Organizer:      att.Organizer,
			Self:           att.Self,
		})
	}

	if event.ConferenceData != nil {
		for _, ep := range event.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" {
				summary.MeetLink = ep.Uri
				break
			}
		}
	}

	return summary
}

// parseEventDateTime returns the instant and whether it came from a date-only value.
// Unparseable values yield the zero time.
func parseEventDateTime(dt *calendar.EventDateTime) (time.Time, bool) {
	if dt == nil {
		return time.Time{}, false
	}
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err != nil {
			return time.Time{}, false
		}
		return t, false
	}
	if dt.Date != "" {
		loc := time.UTC
		if dt.TimeZone != "" {
			if l, err := time.LoadLocation(dt.TimeZone); err == nil {
				loc = l
			}
		}
		t, err := time.ParseInLocation(dateLayout, dt.Date, loc)
		if err != nil {
			return time.Time{}, true
		}
		return t, true
	}
	return time.Time{}, false
}

// toCalendarInfo converts a Google Calendar list entry to CalendarInfo
func toCalendarInfo(entry *calendar.CalendarListEntry) CalendarInfo {
	if entry == nil {
		return CalendarInfo{}
	}
	return CalendarInfo{
		ID:          entry.Id,
		Summary:     entry.Summary,
		Description: entry.Description,
		TimeZone:    entry.TimeZone,
		Primary:     entry.Primary,
		AccessRole:  entry.AccessRole,
	}
}
