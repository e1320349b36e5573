package waketimer

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/talehto/voice-alarm-app/internal/logger"
)

// FireFunc receives the armed payload when a wake-up elapses. It is
// invoked on the timer's own goroutine and must hand off quickly.
type FireFunc func(payload []byte)

// payload is the wire form delivered to the dispatcher.
type payload struct {
	AlarmID int64 `json:"alarm_id"`
}

// EncodePayload builds the firing payload for an alarm id.
func EncodePayload(id int64) []byte {
	// Marshal of a flat struct cannot fail.
	data, _ := json.Marshal(payload{AlarmID: id})

	return data
}

// Timers owns the pending wake-up handles. All methods are safe for
// concurrent use from any goroutine.
type Timers struct {
	// onFire receives the payload of every elapsed wake-up.
	onFire FireFunc
	// now is the clock, injectable for tests.
	now func() time.Time

	// mu protects handles.
	mu sync.Mutex
	// handles maps alarm id to its single pending timer.
	handles map[int64]*time.Timer
	// closed rejects arming after Close.
	closed bool
}

// Option configures the timer bed.
type Option func(*Timers)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Timers) {
		t.now = now
	}
}

// New creates a timer bed delivering fired payloads to onFire.
func New(onFire FireFunc, opts ...Option) *Timers {
	t := &Timers{
		onFire:  onFire,
		now:     time.Now,
		handles: make(map[int64]*time.Timer),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Arm schedules a wake-up for id at the given absolute instant,
// replacing any previous handle for the same id. An instant already in
// the past fires immediately; rejecting imminent triggers is the
// scheduler's job, not the bed's.
func (t *Timers) Arm(id int64, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}

	if prev, ok := t.handles[id]; ok {
		prev.Stop()
	}

	delay := at.Sub(t.now())
	if delay < 0 {
		delay = 0
	}

	t.handles[id] = time.AfterFunc(delay, func() {
		t.fire(id)
	})
}

// Disarm cancels the pending wake-up for id. No-op when none exists.
func (t *Timers) Disarm(id int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if handle, ok := t.handles[id]; ok {
		handle.Stop()
		delete(t.handles, id)
	}
}

// Close stops every pending handle. The bed accepts no arms afterwards.
func (t *Timers) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true

	for id, handle := range t.handles {
		handle.Stop()
		delete(t.handles, id)
	}
}

// fire removes the elapsed handle and delivers the payload.
func (t *Timers) fire(id int64) {
	t.mu.Lock()

	if _, ok := t.handles[id]; !ok {
		// Disarmed between timer expiry and this callback. Drop.
		t.mu.Unlock()

		return
	}

	delete(t.handles, id)
	closed := t.closed
	t.mu.Unlock()

	if closed {
		return
	}

	logger.DebugKV(context.Background(), "Wake-up elapsed", "alarm_id", id)
	t.onFire(EncodePayload(id))
}
