package alarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestWeekdayMask verifies the bit layout: bit 0 is Sunday, bit 6 Saturday.
func TestWeekdayMask(t *testing.T) {
	t.Parallel()

	var m WeekdayMask
	require.True(t, m.Empty())

	m = m.With(time.Sunday).With(time.Saturday)
	require.Equal(t, WeekdayMask(0b1000001), m)
	require.True(t, m.Has(time.Sunday))
	require.True(t, m.Has(time.Saturday))
	require.False(t, m.Has(time.Wednesday))

	// Mon-Fri is the mask quoted throughout the docs.
	workdays := WeekdayMask(0b0111110)
	for day := time.Monday; day <= time.Friday; day++ {
		require.True(t, workdays.Has(day))
	}
	require.False(t, workdays.Has(time.Sunday))
	require.False(t, workdays.Has(time.Saturday))
}

// TestValidate covers the exactly-one-variant invariant and range checks.
func TestValidate(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		alarm   Alarm
		wantErr error
	}{
		"single ok": {
			alarm: Alarm{Kind: KindSingle, SingleAt: 1700000000000},
		},
		"weekly ok": {
			alarm: Alarm{Kind: KindWeekly, WeeklyMask: WeekdayMask(1).With(time.Monday), WeeklyHour: 7, WeeklyMinute: 30},
		},
		"single without instant": {
			alarm:   Alarm{Kind: KindSingle},
			wantErr: ErrMissingInstant,
		},
		"weekly without mask": {
			alarm:   Alarm{Kind: KindWeekly, WeeklyHour: 7},
			wantErr: ErrEmptyMask,
		},
		"weekly hour out of range": {
			alarm:   Alarm{Kind: KindWeekly, WeeklyMask: AllWeekdays, WeeklyHour: 24},
			wantErr: ErrTimeOfDayRange,
		},
		"both variants populated": {
			alarm:   Alarm{Kind: KindSingle, SingleAt: 1, WeeklyMask: AllWeekdays},
			wantErr: ErrMixedVariant,
		},
		"unknown kind": {
			alarm:   Alarm{Kind: Kind("hourly")},
			wantErr: ErrUnknownKind,
		},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := tc.alarm.Validate()
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

// TestValidate_Language rejects malformed locale tags and accepts real ones.
func TestValidate_Language(t *testing.T) {
	t.Parallel()

	a := Alarm{Kind: KindSingle, SingleAt: 1, Language: "fi-FI"}
	require.NoError(t, a.Validate())

	a.Language = "not a tag"
	require.Error(t, a.Validate())
}

// TestDisplayDefaults checks the substitution rules for empty texts.
func TestDisplayDefaults(t *testing.T) {
	t.Parallel()

	var a Alarm
	require.Equal(t, DefaultTitle, a.DisplayTitle())
	require.Equal(t, DefaultBody, a.DisplayBody())
	require.Equal(t, DefaultTitle, a.SpokenText())

	a.Title = "Wake up"
	require.Equal(t, "Wake up", a.DisplayTitle())
	require.Equal(t, "Wake up", a.SpokenText())

	a.Body = "Time for work"
	require.Equal(t, "Time for work", a.SpokenText())
}

// TestLanguageTag falls back to Finnish for empty and malformed tags.
func TestLanguageTag(t *testing.T) {
	t.Parallel()

	var a Alarm
	require.Equal(t, "fi-FI", a.LanguageTag().String())

	a.Language = "en-GB"
	require.Equal(t, "en-GB", a.LanguageTag().String())

	a.Language = "???"
	require.Equal(t, "fi-FI", a.LanguageTag().String())
}

// TestFieldsRoundtrip ensures encoding to storage columns and decoding
// back yields the identical logical alarm for both variants.
func TestFieldsRoundtrip(t *testing.T) {
	t.Parallel()

	alarms := []*Alarm{
		{
			ID:       7,
			Kind:     KindSingle,
			Title:    "Dentist",
			Body:     "Leave now",
			Enabled:  true,
			SingleAt: 1735689600000,
			Language: "fi-FI",
		},
		{
			ID:           8,
			Kind:         KindWeekly,
			Enabled:      false,
			WeeklyMask:   WeekdayMask(0b0111110),
			WeeklyHour:   7,
			WeeklyMinute: 30,
			Language:     "en-GB",
		},
	}

	for _, want := range alarms {
		got, err := DecodeFields(want.EncodeFields())
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

// TestDecodeFields_Corrupt rejects rows violating the variant invariant.
func TestDecodeFields_Corrupt(t *testing.T) {
	t.Parallel()

	at := int64(0)
	_, err := DecodeFields(&Fields{ID: 1, Kind: "single", SingleAt: &at})
	require.ErrorIs(t, err, ErrMissingInstant)

	_, err = DecodeFields(&Fields{ID: 2, Kind: "monthly"})
	require.ErrorIs(t, err, ErrUnknownKind)
}

// TestClone returns an independent copy.
func TestClone(t *testing.T) {
	t.Parallel()

	orig := &Alarm{ID: 1, Kind: KindSingle, SingleAt: 42, Title: "a"}
	cloned := orig.Clone()
	cloned.Title = "b"
	require.Equal(t, "a", orig.Title)

	var nilAlarm *Alarm
	require.Nil(t, nilAlarm.Clone())
}
