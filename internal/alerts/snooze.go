package alerts

import (
	"time"

	"precipwatch/internal/types"
)

// SnoozeManager computes and enforces per-alert snooze windows. Snoozing is
// idempotent and overwrite-based: a new snooze unconditionally replaces any
// prior snoozed-until value.
type SnoozeManager struct {
	clock types.Clock
	loc   *time.Location
}

// NewSnoozeManager creates a SnoozeManager. tz names the user's local
// timezone for calendar-based options; empty means the system local zone.
func NewSnoozeManager(clock types.Clock, tz string) (*SnoozeManager, error) {
	if clock == nil {
		clock = types.RealClock{}
	}
	loc := time.Local
	if tz != "" {
		var err error
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeValidationInvalidSnooze, "unknown timezone: "+tz, err)
		}
	}
	return &SnoozeManager{clock: clock, loc: loc}, nil
}

// IsSnoozed reports whether the alert is currently snoozed: snoozed-until is
// set and strictly in the future. An expired snooze is simply inert; nothing
// clears it eagerly.
func (m *SnoozeManager) IsSnoozed(alert *types.Alert) bool {
	return alert.SnoozedUntil != nil && alert.SnoozedUntil.After(m.clock.Now())
}

// Until computes the snoozed-until timestamp for the given option.
//
// "Tomorrow at 08:00" is calendar arithmetic in the user's local zone —
// next local calendar day at a fixed hour — not a flat +24h offset, so
// snoozing at 23:00 yields 08:00 the next morning, nine hours later.
func (m *SnoozeManager) Until(option types.SnoozeOption) (time.Time, error) {
	now := m.clock.Now()

	switch option {
	case types.SnoozeOneHour:
		return now.Add(1 * time.Hour), nil
	case types.SnoozeThreeHours:
		return now.Add(3 * time.Hour), nil
	case types.SnoozeOneDay:
		return now.Add(24 * time.Hour), nil
	case types.SnoozeOneWeek:
		return now.Add(7 * 24 * time.Hour), nil
	case types.SnoozeTomorrowMorning:
		local := now.In(m.loc)
		tomorrow := time.Date(local.Year(), local.Month(), local.Day()+1, 8, 0, 0, 0, m.loc)
		return tomorrow.UTC(), nil
	default:
		return time.Time{}, types.NewAppError(types.ErrCodeValidationInvalidSnooze, "unsupported snooze option: "+string(option), nil)
	}
}
