package freeslots

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Interval is a half-open busy period [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether both bounds are set and Start is before End.
func (iv Interval) Valid() bool {
	return !iv.Start.IsZero() && !iv.End.IsZero() && iv.Start.Before(iv.End)
}

// Overlaps reports whether iv and [start, end) share any instant.
// Touching endpoints do not overlap.
func (iv Interval) Overlaps(start, end time.Time) bool {
	lo := start
	if iv.Start.After(lo) {
		lo = iv.Start
	}
	hi := end
	if iv.End.Before(hi) {
		hi = iv.End
	}
	return lo.Before(hi)
}

func (iv Interval) String() string {
	return fmt.Sprintf("%s/%s", iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
}

// BusySet is a sorted, pairwise-disjoint list of intervals as produced by Merge.
type BusySet []Interval

// Merge sorts intervals by start and coalesces the overlapping ones.
// Intervals that fail Valid are dropped. Intervals that only touch are kept
// separate. The input slice is not modified.
func Merge(intervals []Interval) BusySet {
	valid := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.Valid() {
			valid = append(valid, iv)
		}
	}
	if len(valid) == 0 {
		return BusySet{}
	}

	sort.Slice(valid, func(i, j int) bool {
		return valid[i].Start.Before(valid[j].Start)
	})

	merged := BusySet{valid[0]}
	for _, next := range valid[1:] {
		cur := &merged[len(merged)-1]
		if next.Start.Before(cur.End) {
			if next.End.After(cur.End) {
				cur.End = next.End
			}
			continue
		}
		merged = append(merged, next)
	}
	return merged
}

// Union merges several busy lists into one BusySet.
func Union(sets ...[]Interval) BusySet {
	var all []Interval
	for _, s := range sets {
		all = append(all, s...)
	}
	return Merge(all)
}

// ParseInterval parses an RFC 3339 start/end pair. Timestamps without a UTC
// offset are rejected with ErrNaiveInstant.
func ParseInterval(start, end string) (Interval, error) {
	s, err := ParseInstant(start)
	if err != nil {
		return Interval{}, fmt.Errorf("start: %w", err)
	}
	e, err := ParseInstant(end)
	if err != nil {
		return Interval{}, fmt.Errorf("end: %w", err)
	}
	return Interval{Start: s, End: e}, nil
}

// ParseInstant parses an RFC 3339 timestamp that must carry "Z" or a numeric offset.
func ParseInstant(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	t, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return t, nil
	}
	if _, naiveErr := time.Parse("2006-01-02T15:04:05", value); naiveErr == nil {
		return time.Time{}, fmt.Errorf("%q: %w", value, ErrNaiveInstant)
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", value, err)
}
