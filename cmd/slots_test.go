package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/julian/internal/freeslots"
)

func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("JULIAN_CONFIG", "")
	t.Setenv("HOME", t.TempDir())
}

func runSlotsCmd(t *testing.T, stdin string, args ...string) ([]slotJSON, error) {
	t.Helper()
	isolateConfig(t)

	cmd := newSlotsCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		return nil, err
	}

	var slots []slotJSON
	require.NoError(t, json.Unmarshal(out.Bytes(), &slots))
	return slots, nil
}

func TestSlotsCmd_Offline(t *testing.T) {
	// Monday noon; the search covers Tuesday only.
	const now = "2025-12-08T12:00:00-08:00"

	t.Run("empty calendar", func(t *testing.T) {
		slots, err := runSlotsCmd(t, "[]", "--busy", "-", "--now", now, "--horizon", "1")
		require.NoError(t, err)
		require.Len(t, slots, 17)
		assert.Equal(t, "2025-12-09T08:00:00-08:00", slots[0].Start)
		assert.Equal(t, "2025-12-09T09:00:00-08:00", slots[0].End)
		assert.Equal(t, "2025-12-09T16:00:00-08:00", slots[16].Start)
	})

	t.Run("busy interval and midnight business start", func(t *testing.T) {
		busy := `[{"start": "2025-12-09T00:30:00-08:00", "end": "2025-12-09T00:45:00-08:00"}]`
		slots, err := runSlotsCmd(t, busy,
			"--busy", "-", "--now", now, "--horizon", "1",
			"--start-hour", "0", "--end-hour", "2", "--step", "60m")
		require.NoError(t, err)
		require.Len(t, slots, 1)
		assert.Equal(t, "2025-12-09T01:00:00-08:00", slots[0].Start)
	})

	t.Run("max results", func(t *testing.T) {
		slots, err := runSlotsCmd(t, "[]", "--busy", "-", "--now", now, "--horizon", "1", "--max", "2")
		require.NoError(t, err)
		assert.Len(t, slots, 2)
	})

	t.Run("weekend only", func(t *testing.T) {
		slots, err := runSlotsCmd(t, "[]", "--busy", "-", "--now", "2025-12-12T12:00:00-08:00", "--horizon", "2")
		require.NoError(t, err)
		assert.Empty(t, slots)
	})

	t.Run("working days override", func(t *testing.T) {
		slots, err := runSlotsCmd(t, "[]",
			"--busy", "-", "--now", "2025-12-12T12:00:00-08:00", "--horizon", "2",
			"--working-days", "sat", "--duration", "9h", "--start-hour", "8", "--end-hour", "17")
		require.NoError(t, err)
		require.Len(t, slots, 1)
		assert.Equal(t, "2025-12-13T08:00:00-08:00", slots[0].Start)
		assert.Equal(t, "2025-12-13T17:00:00-08:00", slots[0].End)
	})

	t.Run("time zone moves day boundaries", func(t *testing.T) {
		slots, err := runSlotsCmd(t, "[]",
			"--busy", "-", "--now", "2025-12-08T20:00:00Z", "--time-zone", "Asia/Tokyo",
			"--horizon", "1", "--max", "1")
		require.NoError(t, err)
		require.Len(t, slots, 1)
		// 20:00Z is already Tuesday in Tokyo, so Wednesday is searched.
		assert.Equal(t, "2025-12-10T08:00:00+09:00", slots[0].Start)
	})
}

func TestSlotsCmd_OfflineErrors(t *testing.T) {
	const now = "2025-12-08T12:00:00-08:00"

	t.Run("naive busy instant", func(t *testing.T) {
		busy := `[{"start": "2025-12-09T10:00:00", "end": "2025-12-09T11:00:00-08:00"}]`
		_, err := runSlotsCmd(t, busy, "--busy", "-", "--now", now)
		require.Error(t, err)
		assert.ErrorIs(t, err, freeslots.ErrNaiveInstant)
	})

	t.Run("naive now", func(t *testing.T) {
		_, err := runSlotsCmd(t, "[]", "--busy", "-", "--now", "2025-12-08T12:00:00")
		require.Error(t, err)
		assert.ErrorIs(t, err, freeslots.ErrNaiveInstant)
	})

	t.Run("invalid hours", func(t *testing.T) {
		_, err := runSlotsCmd(t, "[]", "--busy", "-", "--now", now, "--start-hour", "12", "--end-hour", "9")
		require.Error(t, err)
		assert.ErrorIs(t, err, freeslots.ErrInvalidRequest)
	})

	t.Run("explicit zero horizon", func(t *testing.T) {
		_, err := runSlotsCmd(t, "[]", "--busy", "-", "--now", now, "--horizon", "0")
		require.Error(t, err)
		assert.ErrorIs(t, err, freeslots.ErrInvalidRequest)
		assert.Contains(t, err.Error(), "horizon_days")
	})

	t.Run("explicit zero duration", func(t *testing.T) {
		_, err := runSlotsCmd(t, "[]", "--busy", "-", "--now", now, "--duration", "0")
		require.Error(t, err)
		assert.ErrorIs(t, err, freeslots.ErrInvalidRequest)
		assert.Contains(t, err.Error(), "slot_duration")
	})

	t.Run("unknown weekday", func(t *testing.T) {
		_, err := runSlotsCmd(t, "[]", "--busy", "-", "--now", now, "--working-days", "funday")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown weekday")
	})

	t.Run("malformed busy file", func(t *testing.T) {
		_, err := runSlotsCmd(t, "{not json", "--busy", "-", "--now", now)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode busy intervals")
	})
}

func TestWriteSlots_EmptyIsArray(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeSlots(&out, nil, 0))
	assert.Equal(t, "[]\n", out.String())
}
