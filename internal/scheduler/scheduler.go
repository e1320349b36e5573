package scheduler

import (
	"context"
	"time"

	"github.com/talehto/voice-alarm-app/internal/domain/alarm"
	"github.com/talehto/voice-alarm-app/internal/logger"
	"github.com/talehto/voice-alarm-app/internal/recurrence"
)

// WakeTimer is the wake-up bed the scheduler arms. Re-arming an id must
// atomically replace the prior handle.
type WakeTimer interface {
	Arm(id int64, at time.Time)
	Disarm(id int64)
}

// Scheduler owns the schedule/cancel policy on top of the wake-up bed.
type Scheduler struct {
	// timers is the underlying per-id wake-up bed.
	timers WakeTimer
	// margin rejects triggers in the past or imminent past.
	margin time.Duration
	// now is the clock, injectable for tests.
	now func() time.Time
}

// Option configures the scheduler.
type Option func(*Scheduler)

// WithSafetyMargin overrides the minimum trigger distance. Values below
// the recurrence floor are raised to it.
func WithSafetyMargin(margin time.Duration) Option {
	return func(s *Scheduler) {
		if margin > s.margin {
			s.margin = margin
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// New creates a scheduler on top of the given wake-up bed.
func New(timers WakeTimer, opts ...Option) *Scheduler {
	s := &Scheduler{
		timers: timers,
		margin: recurrence.SafetyMargin,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Schedule arms the wake-up for the alarm. Any existing handle for the
// id is disarmed first, so the call is idempotent. A disabled alarm ends
// up fully disarmed; a trigger inside the safety margin is dropped
// rather than armed unreliably.
func (s *Scheduler) Schedule(ctx context.Context, a *alarm.Alarm) {
	s.timers.Disarm(a.ID)

	if !a.Enabled {
		logger.DebugKV(ctx, "Alarm disabled, left disarmed", "alarm_id", a.ID)

		return
	}

	triggerAt, ok := s.triggerAt(a)
	if !ok {
		logger.WarnKV(ctx, "Alarm has no computable trigger", "alarm_id", a.ID, "kind", a.Kind)

		return
	}

	now := s.now()
	if !triggerAt.After(now.Add(s.margin)) {
		logger.WarnKV(ctx, "Trigger inside safety margin, not armed",
			"alarm_id", a.ID, "trigger_at", triggerAt, "margin", s.margin.String())

		return
	}

	s.timers.Arm(a.ID, triggerAt)
	logger.InfoKV(ctx, "Alarm armed", "alarm_id", a.ID, "kind", a.Kind, "trigger_at", triggerAt)
}

// Cancel disarms the wake-up for id. No-op when none exists. Safe from
// any goroutine, including before any other component has started.
func (s *Scheduler) Cancel(ctx context.Context, id int64) {
	s.timers.Disarm(id)
	logger.DebugKV(ctx, "Alarm disarmed", "alarm_id", id)
}

// triggerAt computes the next absolute trigger for the alarm.
func (s *Scheduler) triggerAt(a *alarm.Alarm) (time.Time, bool) {
	switch a.Kind {
	case alarm.KindSingle:
		if a.SingleAt == 0 {
			return time.Time{}, false
		}

		return time.UnixMilli(a.SingleAt), true
	case alarm.KindWeekly:
		if a.WeeklyMask.Empty() {
			return time.Time{}, false
		}

		return recurrence.Next(a.WeeklyMask, a.WeeklyHour, a.WeeklyMinute, s.now(), s.margin), true
	default:
		return time.Time{}, false
	}
}
