package scheduling

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/julian/internal/calendar"
	"github.com/teemow/julian/internal/config"
	"github.com/teemow/julian/internal/freeslots"
	"github.com/teemow/julian/internal/instrumentation"
	"github.com/teemow/julian/internal/logging"
)

// SearchObserver receives one record per free-slot search.
// *instrumentation.Metrics satisfies it.
type SearchObserver interface {
	RecordSlotSearch(ctx context.Context, mode, status string, slots, busy int, duration time.Duration)
}

// Options overrides the configured defaults for one free-slot search.
// Nil pointers, a zero Step and empty WorkingDays keep the default. A set
// pointer is used as given, so an explicit zero fails validation.
type Options struct {
	SlotDuration      *time.Duration
	HorizonDays       *int
	BusinessStartHour *int
	BusinessEndHour   *int
	Step              time.Duration
	WorkingDays       []time.Weekday
}

// Window is a half-open time range used for event listings.
type Window struct {
	Start time.Time
	End   time.Time
}

// Planner answers calendar questions relative to "now" in the user's time zone.
type Planner struct {
	cal       Calendar
	defaults  config.Scheduling
	clock     func() time.Time
	location  *time.Location
	userEmail string
	logger    logging.Logger
	observer  SearchObserver
}

// Option configures a Planner.
type Option func(*Planner)

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(p *Planner) { p.clock = clock }
}

// WithLocation pins the reference zone instead of asking the calendar.
func WithLocation(loc *time.Location) Option {
	return func(p *Planner) { p.location = loc }
}

// WithUserEmail identifies the user's attendee entry on events.
func WithUserEmail(email string) Option {
	return func(p *Planner) { p.userEmail = email }
}

// WithLogger sets the logger used for recoverable problems.
func WithLogger(logger logging.Logger) Option {
	return func(p *Planner) { p.logger = logger }
}

// WithObserver reports every slot search to o.
func WithObserver(o SearchObserver) Option {
	return func(p *Planner) { p.observer = o }
}

// NewPlanner creates a Planner over cal using defaults for unset options.
func NewPlanner(cal Calendar, defaults config.Scheduling, opts ...Option) *Planner {
	p := &Planner{
		cal:      cal,
		defaults: defaults,
		clock:    time.Now,
		logger:   logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Location returns the reference time zone.
func (p *Planner) Location(ctx context.Context) (*time.Location, error) {
	if p.location != nil {
		return p.location, nil
	}
	loc, err := p.cal.Location(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve calendar time zone: %w", err)
	}
	return loc, nil
}

// Now returns the current instant in the reference time zone.
func (p *Planner) Now(ctx context.Context) (time.Time, error) {
	loc, err := p.Location(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return p.clock().In(loc), nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func addDays(t time.Time, days int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+days, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// UpcomingWindow runs from now until midnight days days from today.
func UpcomingWindow(now time.Time, days int) Window {
	return Window{Start: now, End: addDays(startOfDay(now), days)}
}

// TodayWindow covers today's calendar day.
func TodayWindow(now time.Time) Window {
	today := startOfDay(now)
	return Window{Start: today, End: addDays(today, 1)}
}

// WeekWindow runs from the start of today until the start of next Monday.
func WeekWindow(now time.Time) Window {
	today := startOfDay(now)
	sinceMonday := (int(now.Weekday()) + 6) % 7
	return Window{Start: today, End: addDays(today, 7-sinceMonday)}
}

// SearchWindow covers every day a slot search of horizon days can offer:
// from the start of tomorrow until the end of the last horizon day.
func SearchWindow(now time.Time, horizon int) Window {
	today := startOfDay(now)
	return Window{Start: addDays(today, 1), End: addDays(today, horizon+1)}
}

func (p *Planner) listWindow(ctx context.Context, w func(time.Time) Window) ([]calendar.EventSummary, error) {
	now, err := p.Now(ctx)
	if err != nil {
		return nil, err
	}
	win := w(now)
	return p.cal.ListEvents(ctx, calendar.PrimaryCalendarID, win.Start, win.End, "")
}

// UpcomingEvents lists primary calendar events from now until days days from today.
func (p *Planner) UpcomingEvents(ctx context.Context, days int) ([]calendar.EventSummary, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive, got %d", days)
	}
	return p.listWindow(ctx, func(now time.Time) Window { return UpcomingWindow(now, days) })
}

// TodaysEvents lists today's primary calendar events.
func (p *Planner) TodaysEvents(ctx context.Context) ([]calendar.EventSummary, error) {
	return p.listWindow(ctx, TodayWindow)
}

// WeeksEvents lists primary calendar events from today until the end of the week.
func (p *Planner) WeeksEvents(ctx context.Context) ([]calendar.EventSummary, error) {
	return p.listWindow(ctx, WeekWindow)
}

// Request builds the slot request for now, filling unset options from the
// planner's defaults.
func (p *Planner) Request(now time.Time, opts Options) (freeslots.Request, error) {
	return NewRequest(p.defaults, now, opts)
}

// NewRequest builds a validated slot request for now, filling unset options
// from defaults. Day boundaries use now's location.
func NewRequest(defaults config.Scheduling, now time.Time, opts Options) (freeslots.Request, error) {
	days := opts.WorkingDays
	if len(days) == 0 {
		var err error
		days, err = defaults.Weekdays()
		if err != nil {
			return freeslots.Request{}, err
		}
	}

	req := freeslots.Request{
		Now:               now,
		Location:          now.Location(),
		HorizonDays:       defaults.HorizonDays,
		SlotDuration:      defaults.SlotDuration(),
		BusinessStartHour: defaults.BusinessStartHour,
		BusinessEndHour:   defaults.BusinessEndHour,
		Step:              defaults.Step(),
		WorkingDays:       days,
	}
	if opts.SlotDuration != nil {
		req.SlotDuration = *opts.SlotDuration
	}
	if opts.HorizonDays != nil {
		req.HorizonDays = *opts.HorizonDays
	}
	if opts.BusinessStartHour != nil {
		req.BusinessStartHour = *opts.BusinessStartHour
	}
	if opts.BusinessEndHour != nil {
		req.BusinessEndHour = *opts.BusinessEndHour
	}
	if opts.Step != 0 {
		req.Step = opts.Step
	}
	return req, req.Validate()
}

// FindFreeSlots searches the user's primary calendar for free slots.
func (p *Planner) FindFreeSlots(ctx context.Context, opts Options) (slots []freeslots.Slot, err error) {
	now, err := p.Now(ctx)
	if err != nil {
		return nil, err
	}
	req, err := p.Request(now, opts)
	if err != nil {
		return nil, err
	}

	var busy []freeslots.Interval
	ctx, done := p.observe(ctx, instrumentation.SearchModeSingle, req.HorizonDays)
	defer func() { done(ctx, slots, busy, err) }()

	win := SearchWindow(now, req.HorizonDays)
	events, err := p.cal.ListEvents(ctx, calendar.PrimaryCalendarID, win.Start, win.End, "")
	if err != nil {
		return nil, err
	}

	busy = EventIntervals(events, p.userEmail)
	return freeslots.Find(req, busy)
}

// FindFreeSlotsForUsers searches for slots where every listed calendar is free.
// Calendars the free/busy query could not read are logged and contribute no
// busy time.
func (p *Planner) FindFreeSlotsForUsers(ctx context.Context, emails []string, opts Options) (slots []freeslots.Slot, err error) {
	ids := normalizeEmails(emails)
	if len(ids) == 0 {
		return nil, fmt.Errorf("at least one user email is required")
	}

	now, err := p.Now(ctx)
	if err != nil {
		return nil, err
	}
	req, err := p.Request(now, opts)
	if err != nil {
		return nil, err
	}

	var busy []freeslots.Interval
	ctx, done := p.observe(ctx, instrumentation.SearchModeMulti, req.HorizonDays)
	defer func() { done(ctx, slots, busy, err) }()

	win := SearchWindow(now, req.HorizonDays)
	infos, err := p.cal.QueryFreeBusy(ctx, win.Start, win.End, ids)
	if err != nil {
		return nil, err
	}

	busy, failed := FreeBusyIntervals(infos)
	if len(failed) > 0 {
		p.logger.Warn("free/busy unavailable for some calendars",
			"calendars", strings.Join(failed, ","))
	}

	return freeslots.Find(req, busy)
}

// observe starts a slot search span. The returned func ends it and reports
// the outcome to the observer, if any.
func (p *Planner) observe(ctx context.Context, mode string, horizon int) (context.Context, func(context.Context, []freeslots.Slot, []freeslots.Interval, error)) {
	start := time.Now()
	ctx, span := instrumentation.StartSlotSearchSpan(ctx, mode, horizon)
	return ctx, func(ctx context.Context, slots []freeslots.Slot, busy []freeslots.Interval, err error) {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
		}
		span.SetAttributes(attribute.Int(instrumentation.SpanAttrSlotCount, len(slots)))
		instrumentation.EndSpan(span, err)
		if p.observer != nil {
			p.observer.RecordSlotSearch(ctx, mode, status, len(slots), len(busy), time.Since(start))
		}
	}
}

func normalizeEmails(emails []string) []string {
	seen := make(map[string]bool, len(emails))
	var out []string
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}
