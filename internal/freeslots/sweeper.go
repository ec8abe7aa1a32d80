package freeslots

import (
	"time"
)

const (
	// DefaultStep is the distance between consecutive candidate starts.
	DefaultStep = 30 * time.Minute

	DefaultSlotDuration      = 60 * time.Minute
	DefaultHorizonDays       = 14
	DefaultBusinessStartHour = 8
	DefaultBusinessEndHour   = 17
)

// DefaultWorkingDays is the Monday to Friday business week.
var DefaultWorkingDays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
}

// Request holds the constraints for a slot search.
type Request struct {
	// Now is the reference instant. Candidate days start the day after it.
	Now time.Time

	// Location is the reference zone for day boundaries and business hours.
	// If nil, the location of Now is used.
	Location *time.Location

	HorizonDays       int
	SlotDuration      time.Duration
	BusinessStartHour int
	BusinessEndHour   int

	// Step defaults to DefaultStep when zero.
	Step time.Duration

	// WorkingDays defaults to DefaultWorkingDays when empty.
	WorkingDays []time.Weekday
}

// Slot is a free range of exactly Request.SlotDuration.
type Slot struct {
	Start time.Time
	End   time.Time
}

// DefaultRequest returns a request with the standard constraints:
// 60 minute slots over 14 days between 08:00 and 17:00, Monday to Friday.
func DefaultRequest(now time.Time) Request {
	return Request{
		Now:               now,
		Location:          now.Location(),
		HorizonDays:       DefaultHorizonDays,
		SlotDuration:      DefaultSlotDuration,
		BusinessStartHour: DefaultBusinessStartHour,
		BusinessEndHour:   DefaultBusinessEndHour,
		Step:              DefaultStep,
		WorkingDays:       DefaultWorkingDays,
	}
}

func (r Request) location() *time.Location {
	if r.Location != nil {
		return r.Location
	}
	return r.Now.Location()
}

func (r Request) step() time.Duration {
	if r.Step == 0 {
		return DefaultStep
	}
	return r.Step
}

func (r Request) workingDays() map[time.Weekday]bool {
	days := r.WorkingDays
	if len(days) == 0 {
		days = DefaultWorkingDays
	}
	set := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		set[d] = true
	}
	return set
}

// Validate checks the request before any sweep begins.
func (r Request) Validate() error {
	if r.Now.IsZero() {
		return invalid("now", "is not set: %v", ErrNaiveInstant)
	}
	if r.HorizonDays <= 0 {
		return invalid("horizon_days", "must be positive, got %d", r.HorizonDays)
	}
	if r.SlotDuration <= 0 {
		return invalid("slot_duration", "must be positive, got %s", r.SlotDuration)
	}
	if r.BusinessStartHour < 0 || r.BusinessStartHour > 23 {
		return invalid("business_start_hour", "must be within [0,23], got %d", r.BusinessStartHour)
	}
	if r.BusinessEndHour < 0 || r.BusinessEndHour > 23 {
		return invalid("business_end_hour", "must be within [0,23], got %d", r.BusinessEndHour)
	}
	if r.BusinessEndHour <= r.BusinessStartHour {
		return invalid("business_end_hour", "must be after business_start_hour (%d), got %d",
			r.BusinessStartHour, r.BusinessEndHour)
	}
	if r.Step < 0 {
		return invalid("step", "must be positive, got %s", r.Step)
	}
	for _, d := range r.WorkingDays {
		if d < time.Sunday || d > time.Saturday {
			return invalid("working_days", "contains unknown weekday %d", int(d))
		}
	}
	return nil
}

// Find returns every free slot within the request's horizon, ascending by start.
//
// Days run from the day after req.Now for req.HorizonDays calendar days in the
// reference location. Days not in the working-day set yield no candidates. A
// candidate [t, t+SlotDuration) is offered when it fits inside the day's
// business window and overlaps no busy interval. busy need not be merged.
func Find(req Request, busy []Interval) ([]Slot, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	loc := req.location()
	step := req.step()
	working := req.workingDays()
	merged := Merge(busy)

	now := req.Now.In(loc)
	slots := []Slot{}
	for i := 1; i <= req.HorizonDays; i++ {
		day := time.Date(now.Year(), now.Month(), now.Day()+i, 0, 0, 0, 0, loc)
		if !working[day.Weekday()] {
			continue
		}

		windowStart := time.Date(day.Year(), day.Month(), day.Day(), req.BusinessStartHour, 0, 0, 0, loc)
		windowEnd := time.Date(day.Year(), day.Month(), day.Day(), req.BusinessEndHour, 0, 0, 0, loc)

		for start := windowStart; !start.Add(req.SlotDuration).After(windowEnd); start = start.Add(step) {
			end := start.Add(req.SlotDuration)
			if merged.overlaps(start, end) {
				continue
			}
			slots = append(slots, Slot{Start: start, End: end})
		}
	}
	return slots, nil
}

// overlaps relies on the set being sorted to stop early.
func (b BusySet) overlaps(start, end time.Time) bool {
	for _, iv := range b {
		if !iv.Start.Before(end) {
			return false
		}
		if iv.Overlaps(start, end) {
			return true
		}
	}
	return false
}
