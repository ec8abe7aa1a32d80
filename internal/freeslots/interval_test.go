package freeslots

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 12, 9, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return base.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func iv(sh, sm, eh, em int) Interval {
	return Interval{Start: at(sh, sm), End: at(eh, em)}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		input    []Interval
		expected BusySet
	}{
		{
			name:     "empty input",
			input:    nil,
			expected: BusySet{},
		},
		{
			name:     "single interval",
			input:    []Interval{iv(9, 0, 10, 0)},
			expected: BusySet{iv(9, 0, 10, 0)},
		},
		{
			name:     "overlapping intervals",
			input:    []Interval{iv(9, 0, 10, 30), iv(10, 0, 11, 0)},
			expected: BusySet{iv(9, 0, 11, 0)},
		},
		{
			name:     "unsorted input",
			input:    []Interval{iv(13, 0, 14, 0), iv(9, 0, 10, 0)},
			expected: BusySet{iv(9, 0, 10, 0), iv(13, 0, 14, 0)},
		},
		{
			name:     "containment",
			input:    []Interval{iv(9, 0, 12, 0), iv(10, 0, 11, 0)},
			expected: BusySet{iv(9, 0, 12, 0)},
		},
		{
			name:     "touching intervals stay separate",
			input:    []Interval{iv(9, 0, 10, 0), iv(10, 0, 11, 0)},
			expected: BusySet{iv(9, 0, 10, 0), iv(10, 0, 11, 0)},
		},
		{
			name:     "equal starts",
			input:    []Interval{iv(9, 0, 9, 30), iv(9, 0, 11, 0)},
			expected: BusySet{iv(9, 0, 11, 0)},
		},
		{
			name: "invalid intervals dropped",
			input: []Interval{
				iv(10, 0, 9, 0),
				iv(12, 0, 12, 0),
				{Start: at(8, 0)},
				iv(14, 0, 15, 0),
			},
			expected: BusySet{iv(14, 0, 15, 0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Merge(tt.input))
		})
	}
}

func TestMerge_DoesNotModifyInput(t *testing.T) {
	input := []Interval{iv(13, 0, 14, 0), iv(9, 0, 10, 0)}
	Merge(input)
	assert.Equal(t, iv(13, 0, 14, 0), input[0])
}

func randomIntervals(r *rand.Rand, n int) []Interval {
	out := make([]Interval, n)
	for i := range out {
		start := at(0, r.Intn(24*60))
		out[i] = Interval{Start: start, End: start.Add(time.Duration(r.Intn(180)-10) * time.Minute)}
	}
	return out
}

func covered(set []Interval, t time.Time) int {
	n := 0
	for _, iv := range set {
		if iv.Valid() && !t.Before(iv.Start) && t.Before(iv.End) {
			n++
		}
	}
	return n
}

func TestMerge_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		input := randomIntervals(r, r.Intn(12))
		merged := Merge(input)

		assert.Equal(t, merged, Merge(merged), "merge must be idempotent")

		for i := 1; i < len(merged); i++ {
			assert.True(t, merged[i-1].Start.Before(merged[i].Start), "sorted")
			assert.False(t, merged[i].Start.Before(merged[i-1].End), "disjoint")
		}

		for minute := 0; minute < 27*60; minute += 5 {
			instant := at(0, minute)
			if covered(input, instant) > 0 {
				assert.Equal(t, 1, covered(merged, instant), "instant %s", instant)
			} else {
				assert.Equal(t, 0, covered(merged, instant), "instant %s", instant)
			}
		}
	}
}

func TestUnion(t *testing.T) {
	a := []Interval{iv(10, 0, 11, 0)}
	b := []Interval{iv(10, 30, 12, 0), iv(13, 0, 14, 0)}

	assert.Equal(t, BusySet{iv(10, 0, 12, 0), iv(13, 0, 14, 0)}, Union(a, b))
	assert.Equal(t, BusySet{}, Union())
}

func TestInterval_Overlaps(t *testing.T) {
	busy := iv(10, 0, 11, 0)

	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		expected bool
	}{
		{"before", at(9, 0), at(9, 30), false},
		{"touching end", at(9, 0), at(10, 0), false},
		{"touching start", at(11, 0), at(12, 0), false},
		{"partial", at(9, 30), at(10, 30), true},
		{"inside", at(10, 15), at(10, 45), true},
		{"covering", at(9, 0), at(12, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, busy.Overlaps(tt.start, tt.end))
		})
	}
}

func TestParseInterval(t *testing.T) {
	t.Run("with offsets", func(t *testing.T) {
		got, err := ParseInterval("2025-12-15T10:00:00Z", "2025-12-15T12:00:00+01:00")
		require.NoError(t, err)
		assert.True(t, got.Start.Equal(time.Date(2025, 12, 15, 10, 0, 0, 0, time.UTC)))
		assert.True(t, got.End.Equal(time.Date(2025, 12, 15, 11, 0, 0, 0, time.UTC)))
	})

	t.Run("naive start", func(t *testing.T) {
		_, err := ParseInterval("2025-12-15T10:00:00", "2025-12-15T11:00:00Z")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNaiveInstant)
	})

	t.Run("naive end with fraction", func(t *testing.T) {
		_, err := ParseInterval("2025-12-15T10:00:00Z", "2025-12-15T11:00:00.000")
		assert.ErrorIs(t, err, ErrNaiveInstant)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseInterval("tomorrow", "2025-12-15T11:00:00Z")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNaiveInstant)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParseInstant("  ")
		assert.Error(t, err)
	})
}
