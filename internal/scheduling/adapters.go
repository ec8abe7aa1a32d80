package scheduling

import (
	"github.com/teemow/julian/internal/calendar"
	"github.com/teemow/julian/internal/freeslots"
)

// EventIntervals turns listed events into busy intervals. All-day events,
// cancelled events, events shown as free and events the user declined are
// skipped, as are events without a concrete start and end.
func EventIntervals(events []calendar.EventSummary, userEmail string) []freeslots.Interval {
	intervals := make([]freeslots.Interval, 0, len(events))
	for _, e := range events {
		if e.AllDay || e.Transparent || e.Status == "cancelled" {
			continue
		}
		if me, ok := e.Self(userEmail); ok && me.ResponseStatus == "declined" {
			continue
		}
		iv := freeslots.Interval{Start: e.Start, End: e.End}
		if !iv.Valid() {
			continue
		}
		intervals = append(intervals, iv)
	}
	return intervals
}

// FreeBusyIntervals unions the busy periods of every calendar in a free/busy
// response. Calendars that reported errors contribute whatever busy data they
// carry; the returned list names them.
func FreeBusyIntervals(infos []calendar.FreeBusyInfo) ([]freeslots.Interval, []string) {
	var (
		intervals []freeslots.Interval
		failed    []string
	)
	for _, info := range infos {
		if len(info.Errors) > 0 {
			failed = append(failed, info.Calendar)
		}
		for _, b := range info.Busy {
			intervals = append(intervals, freeslots.Interval{Start: b.Start, End: b.End})
		}
	}
	return intervals, failed
}
