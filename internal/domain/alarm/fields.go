package alarm

import "fmt"

// Fields is the flat column representation the repository persists.
// Nullable trigger columns are modeled as pointers so a decoded record
// reproduces the original variant exactly.
type Fields struct {
	ID           int64
	Kind         string
	Title        string
	Body         string
	Enabled      bool
	SingleAt     *int64
	WeeklyMask   *int64
	WeeklyHour   *int64
	WeeklyMinute *int64
	Language     string
}

// EncodeFields flattens the alarm into its storage columns. Only the
// variant selected by Kind populates its trigger columns.
func (a *Alarm) EncodeFields() *Fields {
	f := &Fields{
		ID:       a.ID,
		Kind:     string(a.Kind),
		Title:    a.Title,
		Body:     a.Body,
		Enabled:  a.Enabled,
		Language: a.Language,
	}

	switch a.Kind {
	case KindSingle:
		at := a.SingleAt
		f.SingleAt = &at
	case KindWeekly:
		mask := int64(a.WeeklyMask)
		hour := int64(a.WeeklyHour)
		minute := int64(a.WeeklyMinute)
		f.WeeklyMask = &mask
		f.WeeklyHour = &hour
		f.WeeklyMinute = &minute
	}

	return f
}

// DecodeFields rebuilds an alarm from its storage columns and validates
// the result, so a corrupt row never reaches the scheduler.
func DecodeFields(f *Fields) (*Alarm, error) {
	a := &Alarm{
		ID:       f.ID,
		Kind:     Kind(f.Kind),
		Title:    f.Title,
		Body:     f.Body,
		Enabled:  f.Enabled,
		Language: f.Language,
	}

	switch a.Kind {
	case KindSingle:
		if f.SingleAt != nil {
			a.SingleAt = *f.SingleAt
		}
	case KindWeekly:
		if f.WeeklyMask != nil {
			a.WeeklyMask = WeekdayMask(*f.WeeklyMask)
		}

		if f.WeeklyHour != nil {
			a.WeeklyHour = int(*f.WeeklyHour)
		}

		if f.WeeklyMinute != nil {
			a.WeeklyMinute = int(*f.WeeklyMinute)
		}
	}

	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("decode alarm %d: %w", f.ID, err)
	}

	return a, nil
}
