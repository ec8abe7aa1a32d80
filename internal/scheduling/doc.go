// Package scheduling answers calendar questions relative to the user's "now".
//
// A Planner resolves the reference time zone and current instant from the
// primary calendar, lists events for today, this week, or the coming days,
// and runs free-slot searches. Single-user searches derive busy time from
// the user's own events; multi-user searches union a free/busy query across
// several calendars. Both feed the same freeslots.Find call.
//
// The calendar provider is injected through small interfaces so the package
// can be tested with in-memory fakes.
package scheduling
