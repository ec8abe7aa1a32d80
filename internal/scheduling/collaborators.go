package scheduling

import (
	"context"
	"time"

	"github.com/teemow/julian/internal/calendar"
)

// TimeInfo resolves the reference time zone, normally the primary calendar's.
type TimeInfo interface {
	Location(ctx context.Context) (*time.Location, error)
}

// EventSource lists a calendar's events within a range.
type EventSource interface {
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, query string) ([]calendar.EventSummary, error)
}

// FreeBusySource answers batched availability queries.
type FreeBusySource interface {
	QueryFreeBusy(ctx context.Context, timeMin, timeMax time.Time, calendarIDs []string) ([]calendar.FreeBusyInfo, error)
}

// Calendar is everything the Planner needs from a calendar provider.
// *calendar.Client satisfies it.
type Calendar interface {
	TimeInfo
	EventSource
	FreeBusySource
}

var _ Calendar = (*calendar.Client)(nil)
