package alarm

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// Kind distinguishes the two supported alarm variants.
type Kind string

const (
	// KindSingle is a one-shot alarm firing at an absolute instant.
	KindSingle Kind = "single"
	// KindWeekly is a repeating alarm firing on selected weekdays.
	KindWeekly Kind = "weekly"
)

// WeekdayMask is a 7-bit set of weekdays. Bit 0 is Sunday, matching
// time.Weekday, so bit n corresponds to weekday n.
type WeekdayMask uint8

// AllWeekdays covers every day of the week.
const AllWeekdays WeekdayMask = 0x7F

// Has reports whether the given weekday is set.
func (m WeekdayMask) Has(day time.Weekday) bool {
	return m>>uint(day)&1 == 1
}

// With returns a mask with the given weekday added.
func (m WeekdayMask) With(day time.Weekday) WeekdayMask {
	return m | 1<<uint(day)
}

// Empty reports whether no weekday is set.
func (m WeekdayMask) Empty() bool {
	return m&AllWeekdays == 0
}

const (
	// DefaultTitle is shown and spoken when an alarm has no title.
	DefaultTitle = "Alarm"
	// DefaultBody is shown when an alarm has no body text.
	DefaultBody = "Alarm is ringing"
	// DefaultLanguage is the speech locale used when an alarm has none.
	DefaultLanguage = "fi-FI"
)

var (
	// ErrUnknownKind is returned for alarms outside the closed kind set.
	ErrUnknownKind = errors.New("unknown alarm kind")
	// ErrMissingInstant is returned for single alarms without a trigger instant.
	ErrMissingInstant = errors.New("single alarm requires a trigger instant")
	// ErrEmptyMask is returned for weekly alarms with no weekday selected.
	ErrEmptyMask = errors.New("weekly alarm requires at least one weekday")
	// ErrTimeOfDayRange is returned when hour or minute is out of range.
	ErrTimeOfDayRange = errors.New("time of day out of range")
	// ErrMixedVariant is returned when single and weekly fields are both populated.
	ErrMixedVariant = errors.New("single and weekly trigger fields are mutually exclusive")
)

// Alarm is one alarm definition. Exactly one of SingleAt or the weekly
// trigger fields is populated, matching Kind.
type Alarm struct {
	// ID is the stable local identity assigned by the store.
	ID int64
	// Kind selects the single or weekly variant.
	Kind Kind
	// Title is the display headline. May be empty; DefaultTitle substitutes.
	Title string
	// Body is the display and spoken text. May be empty.
	Body string
	// Enabled gates scheduling. A disabled alarm holds no wake-up.
	Enabled bool
	// SingleAt is the trigger instant in epoch milliseconds (KindSingle only).
	SingleAt int64
	// WeeklyMask selects the firing weekdays (KindWeekly only).
	WeeklyMask WeekdayMask
	// WeeklyHour is the local hour of day, 0..23 (KindWeekly only).
	WeeklyHour int
	// WeeklyMinute is the local minute, 0..59 (KindWeekly only).
	WeeklyMinute int
	// Language is the BCP-47 speech locale tag.
	Language string
}

// Validate checks the exactly-one-variant invariant and field ranges.
func (a *Alarm) Validate() error {
	switch a.Kind {
	case KindSingle:
		if a.SingleAt == 0 {
			return ErrMissingInstant
		}

		if !a.WeeklyMask.Empty() {
			return ErrMixedVariant
		}
	case KindWeekly:
		if a.WeeklyMask.Empty() {
			return ErrEmptyMask
		}

		if a.SingleAt != 0 {
			return ErrMixedVariant
		}

		if a.WeeklyHour < 0 || a.WeeklyHour > 23 || a.WeeklyMinute < 0 || a.WeeklyMinute > 59 {
			return ErrTimeOfDayRange
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, a.Kind)
	}

	if a.Language != "" {
		if _, err := language.Parse(a.Language); err != nil {
			return fmt.Errorf("language tag %q: %w", a.Language, err)
		}
	}

	return nil
}

// Clone returns a deep copy of the alarm.
func (a *Alarm) Clone() *Alarm {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// DisplayTitle returns the title with the default substituted when empty.
func (a *Alarm) DisplayTitle() string {
	if a.Title == "" {
		return DefaultTitle
	}

	return a.Title
}

// DisplayBody returns the body with the default substituted when empty.
func (a *Alarm) DisplayBody() string {
	if a.Body == "" {
		return DefaultBody
	}

	return a.Body
}

// SpokenText returns the text submitted to the speech engine:
// body, else title, else the default title.
func (a *Alarm) SpokenText() string {
	if a.Body != "" {
		return a.Body
	}

	if a.Title != "" {
		return a.Title
	}

	return DefaultTitle
}

// LanguageTag parses the alarm's locale, falling back to the default on
// an empty or malformed tag.
func (a *Alarm) LanguageTag() language.Tag {
	if a.Language != "" {
		if tag, err := language.Parse(a.Language); err == nil {
			return tag
		}
	}

	return language.MustParse(DefaultLanguage)
}
