package platform

import (
	"context"
	"errors"
	"sync"

	"github.com/talehto/voice-alarm-app/internal/logger"
)

// ErrFocusHeld is returned when another owner already holds audio focus.
var ErrFocusHeld = errors.New("audio focus held by another owner")

// AudioFocus is an advisory arbiter over audio output. Holding focus is
// best effort: a denied request is logged and announcement continues,
// it never blocks an alarm from sounding.
type AudioFocus interface {
	Request(ctx context.Context, owner string) (release func(), err error)
}

// FocusArbiter is the in-process AudioFocus implementation. A new
// request preempts the current holder rather than failing, so a later
// alarm always wins the speaker.
type FocusArbiter struct {
	mu     sync.Mutex
	holder string
	gen    uint64 // invalidates stale releases after preemption
}

// NewFocusArbiter creates an unheld arbiter.
func NewFocusArbiter() *FocusArbiter {
	return &FocusArbiter{}
}

// Request takes focus for owner, preempting any current holder. The
// returned release gives focus up only if this grant is still current.
func (a *FocusArbiter) Request(ctx context.Context, owner string) (func(), error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.holder != "" && a.holder != owner {
		logger.DebugKV(ctx, "Audio focus preempted",
			"previous", a.holder,
			"owner", owner)
	}

	a.holder = owner
	a.gen++
	grant := a.gen

	release := func() {
		a.mu.Lock()
		defer a.mu.Unlock()

		if a.gen == grant {
			a.holder = ""
		}
	}

	return release, nil
}

// Holder reports the current focus owner, empty when unheld.
func (a *FocusArbiter) Holder() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.holder
}
