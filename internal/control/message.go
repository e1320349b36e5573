package control

import (
	"encoding/json"
	"fmt"

	"github.com/talehto/voice-alarm-app/internal/domain/alarm"
)

// Request types.
const (
	TypeStop       = "stop"
	TypeSchedule   = "schedule"
	TypeSetEnabled = "set_enabled"
	TypeDelete     = "delete"
	TypeList       = "list"
	TypePing       = "ping"
)

// Response types.
const (
	TypeOK    = "ok"
	TypeError = "error"
)

// Message is the wire envelope: a type tag and a type-specific payload.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode wraps a payload in the envelope.
func Encode(typeName string, payload interface{}) ([]byte, error) {
	var (
		data []byte
		err  error
	)

	if payload != nil {
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", typeName, err)
		}
	}

	out, err := json.Marshal(Message{Type: typeName, Data: data})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", typeName, err)
	}

	return out, nil
}

// ScheduleRequest carries an alarm to insert (ID zero) or replace.
type ScheduleRequest struct {
	Alarm WireAlarm `json:"alarm"`
}

// ScheduleResponse returns the stored alarm's id.
type ScheduleResponse struct {
	ID int64 `json:"id"`
}

// SetEnabledRequest flips one alarm's enabled flag.
type SetEnabledRequest struct {
	ID      int64 `json:"id"`
	Enabled bool  `json:"enabled"`
}

// DeleteRequest removes one alarm.
type DeleteRequest struct {
	ID int64 `json:"id"`
}

// ListResponse returns every stored alarm.
type ListResponse struct {
	Alarms []WireAlarm `json:"alarms"`
}

// ErrorResponse carries a failure back to the caller.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WireAlarm is the JSON shape of one alarm definition.
type WireAlarm struct {
	ID           int64  `json:"id"`
	Kind         string `json:"kind"`
	Title        string `json:"title,omitempty"`
	Body         string `json:"body,omitempty"`
	Enabled      bool   `json:"enabled"`
	SingleAt     int64  `json:"single_at,omitempty"`
	WeeklyMask   uint8  `json:"weekly_mask,omitempty"`
	WeeklyHour   int    `json:"weekly_hour,omitempty"`
	WeeklyMinute int    `json:"weekly_minute,omitempty"`
	Language     string `json:"language,omitempty"`
}

// ToWire flattens a domain alarm for transport.
func ToWire(a *alarm.Alarm) WireAlarm {
	return WireAlarm{
		ID:           a.ID,
		Kind:         string(a.Kind),
		Title:        a.Title,
		Body:         a.Body,
		Enabled:      a.Enabled,
		SingleAt:     a.SingleAt,
		WeeklyMask:   uint8(a.WeeklyMask),
		WeeklyHour:   a.WeeklyHour,
		WeeklyMinute: a.WeeklyMinute,
		Language:     a.Language,
	}
}

// ToDomain rebuilds and validates the domain alarm.
func (w WireAlarm) ToDomain() (*alarm.Alarm, error) {
	a := &alarm.Alarm{
		ID:           w.ID,
		Kind:         alarm.Kind(w.Kind),
		Title:        w.Title,
		Body:         w.Body,
		Enabled:      w.Enabled,
		SingleAt:     w.SingleAt,
		WeeklyMask:   alarm.WeekdayMask(w.WeeklyMask),
		WeeklyHour:   w.WeeklyHour,
		WeeklyMinute: w.WeeklyMinute,
		Language:     w.Language,
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}

	return a, nil
}
