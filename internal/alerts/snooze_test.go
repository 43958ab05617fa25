package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"precipwatch/internal/types"
)

type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time { return c.now }

func TestSnoozeFixedOffsets(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	mgr, err := NewSnoozeManager(&stubClock{now: now}, "UTC")
	require.NoError(t, err)

	tests := []struct {
		option types.SnoozeOption
		want   time.Time
	}{
		{types.SnoozeOneHour, now.Add(time.Hour)},
		{types.SnoozeThreeHours, now.Add(3 * time.Hour)},
		{types.SnoozeOneDay, now.Add(24 * time.Hour)},
		{types.SnoozeOneWeek, now.Add(7 * 24 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(string(tt.option), func(t *testing.T) {
			until, err := mgr.Until(tt.option)
			require.NoError(t, err)
			assert.Equal(t, tt.want, until)
		})
	}
}

func TestSnoozeTomorrowMorningIsCalendarArithmetic(t *testing.T) {
	// 23:00 local: "tomorrow at 08:00" is nine hours away, not 24.
	loc, err := time.LoadLocation("Europe/Zurich")
	require.NoError(t, err)

	local := time.Date(2026, 1, 15, 23, 0, 0, 0, loc)
	mgr, err := NewSnoozeManager(&stubClock{now: local.UTC()}, "Europe/Zurich")
	require.NoError(t, err)

	until, err := mgr.Until(types.SnoozeTomorrowMorning)
	require.NoError(t, err)

	want := time.Date(2026, 1, 16, 8, 0, 0, 0, loc)
	assert.Equal(t, want.UTC(), until)
	assert.Equal(t, 9*time.Hour, until.Sub(local.UTC()))
}

func TestSnoozeTomorrowMorningEarlyInDay(t *testing.T) {
	// Snoozing at 02:00 still lands on the NEXT day's 08:00, a 30 hour gap.
	loc, err := time.LoadLocation("Europe/Zurich")
	require.NoError(t, err)

	local := time.Date(2026, 1, 15, 2, 0, 0, 0, loc)
	mgr, err := NewSnoozeManager(&stubClock{now: local.UTC()}, "Europe/Zurich")
	require.NoError(t, err)

	until, err := mgr.Until(types.SnoozeTomorrowMorning)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 16, 8, 0, 0, 0, loc).UTC(), until)
}

func TestSnoozeUnknownOption(t *testing.T) {
	mgr, err := NewSnoozeManager(nil, "UTC")
	require.NoError(t, err)

	_, err = mgr.Until("forever")
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeValidationInvalidSnooze, types.CodeOf(err))
}

func TestSnoozeUnknownTimezone(t *testing.T) {
	_, err := NewSnoozeManager(nil, "Mars/Olympus_Mons")
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeValidationInvalidSnooze, types.CodeOf(err))
}

func TestIsSnoozed(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	mgr, err := NewSnoozeManager(&stubClock{now: now}, "UTC")
	require.NoError(t, err)

	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	assert.False(t, mgr.IsSnoozed(&types.Alert{}))
	assert.True(t, mgr.IsSnoozed(&types.Alert{SnoozedUntil: &future}))

	// An expired snooze is inert, nothing clears it eagerly.
	assert.False(t, mgr.IsSnoozed(&types.Alert{SnoozedUntil: &past}))

	// Exactly at the boundary the snooze is over.
	assert.False(t, mgr.IsSnoozed(&types.Alert{SnoozedUntil: &now}))
}
