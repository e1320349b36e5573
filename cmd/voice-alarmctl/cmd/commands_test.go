package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/talehto/voice-alarm-app/internal/domain/alarm"
)

func TestParseWeekdays(t *testing.T) {
	t.Parallel()

	mask, err := parseWeekdays("mon,tue,wed,thu,fri")
	require.NoError(t, err)
	require.Equal(t, alarm.WeekdayMask(0b0111110), mask)

	mask, err = parseWeekdays(" Sun , SAT ")
	require.NoError(t, err)
	require.True(t, mask.Has(time.Sunday))
	require.True(t, mask.Has(time.Saturday))
	require.False(t, mask.Has(time.Monday))

	_, err = parseWeekdays("mon,funday")
	require.Error(t, err)
}

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()

	hour, minute, err := parseTimeOfDay("07:30")
	require.NoError(t, err)
	require.Equal(t, 7, hour)
	require.Equal(t, 30, minute)

	for _, bad := range []string{"7", "24:00", "12:60", "ab:cd", "07:30:00"} {
		_, _, err = parseTimeOfDay(bad)
		require.Error(t, err, bad)
	}
}

func TestBuildAlarm(t *testing.T) {
	resetAddFlags := func() {
		addTitle, addBody, addLanguage = "", "", ""
		addAt, addWeekdays, addTime = "", "", ""
		addDisabled = false
	}

	t.Run("single", func(t *testing.T) {
		resetAddFlags()

		addAt = "2026-09-01T07:30:00+03:00"
		addTitle = "Dentist"

		a, err := buildAlarm()
		require.NoError(t, err)
		require.Equal(t, alarm.KindSingle, a.Kind)
		require.True(t, a.Enabled)

		at := time.UnixMilli(a.SingleAt)
		require.Equal(t, "2026-09-01T07:30:00+03:00", at.Format(time.RFC3339))
	})

	t.Run("weekly", func(t *testing.T) {
		resetAddFlags()

		addWeekdays = "mon,fri"
		addTime = "06:45"
		addDisabled = true

		a, err := buildAlarm()
		require.NoError(t, err)
		require.Equal(t, alarm.KindWeekly, a.Kind)
		require.Equal(t, 6, a.WeeklyHour)
		require.Equal(t, 45, a.WeeklyMinute)
		require.False(t, a.Enabled)
	})

	t.Run("variant flags are exclusive", func(t *testing.T) {
		resetAddFlags()

		addAt = "2026-09-01T07:30:00+03:00"
		addTime = "06:45"

		_, err := buildAlarm()
		require.Error(t, err)
	})

	t.Run("missing trigger", func(t *testing.T) {
		resetAddFlags()

		_, err := buildAlarm()
		require.Error(t, err)
	})
}

func TestFormatAlarm(t *testing.T) {
	t.Parallel()

	a := &alarm.Alarm{
		ID:           3,
		Kind:         alarm.KindWeekly,
		Enabled:      true,
		WeeklyMask:   alarm.WeekdayMask(0).With(time.Monday).With(time.Friday),
		WeeklyHour:   7,
		WeeklyMinute: 5,
	}

	line := formatAlarm(a)
	require.Contains(t, line, "mon,fri at 07:05")
	require.Contains(t, line, `"Alarm"`)
	require.Contains(t, line, "enabled")
}
