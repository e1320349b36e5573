// Package recurrence computes the next trigger instant for weekly alarms.
// The calculation is pure: weekday mask, time of day and the current
// moment in, one absolute instant out.
package recurrence

import (
	"time"

	"github.com/talehto/voice-alarm-app/internal/domain/alarm"
)

// SafetyMargin is the minimum distance between now and a returned
// instant. A slot matching the current minute exactly is rejected, which
// guarantees forward progress when a weekly alarm reschedules itself.
const SafetyMargin = 2 * time.Second

// Next returns the first instant strictly after now+margin whose weekday
// bit is set in mask and whose local wall time matches hour:minute.
//
// Each of the next eight calendar days is tested with its own wall-clock
// conversion, never by adding fixed 24-hour spans, so the result stays
// correct across DST transitions. For a non-empty mask one of the first
// seven days always qualifies; the eighth day covers the today's-slot-
// just-passed case. The fallback to tomorrow's slot is defensive and only
// reachable with an empty mask.
func Next(mask alarm.WeekdayMask, hour, minute int, now time.Time, margin time.Duration) time.Time {
	if margin < SafetyMargin {
		margin = SafetyMargin
	}

	earliest := now.Add(margin)

	for i := 0; i <= 7; i++ {
		candidate := slotOnDay(now, i, hour, minute)
		if mask.Has(candidate.Weekday()) && candidate.After(earliest) {
			return candidate
		}
	}

	return slotOnDay(now, 1, hour, minute)
}

// slotOnDay returns hour:minute local wall time on now's day plus offset days.
func slotOnDay(now time.Time, offsetDays, hour, minute int) time.Time {
	day := now.AddDate(0, 0, offsetDays)

	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location())
}
