package platform

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/talehto/voice-alarm-app/internal/logger"
)

// DefaultWakeLockCeiling bounds how long a single announcement may keep
// the machine from suspending, even when teardown is never reached.
const DefaultWakeLockCeiling = 10 * time.Minute

// WakeLock keeps the machine awake for the duration of an announcement.
// Acquire returns a release function that is safe to call more than
// once and after the ceiling has already expired the lock.
type WakeLock interface {
	Acquire(ctx context.Context, reason string) (release func(), err error)
}

// InhibitWakeLock holds a suspend inhibitor by keeping a
// systemd-inhibit child process alive. The child sleeps for the ceiling
// duration, so a leaked lock expires on its own.
type InhibitWakeLock struct {
	ceiling time.Duration
}

// NewInhibitWakeLock creates a wake lock with the given ceiling.
// A non-positive ceiling falls back to the default.
func NewInhibitWakeLock(ceiling time.Duration) *InhibitWakeLock {
	if ceiling <= 0 {
		ceiling = DefaultWakeLockCeiling
	}

	return &InhibitWakeLock{ceiling: ceiling}
}

// Acquire starts the inhibitor child. The returned release kills it.
func (w *InhibitWakeLock) Acquire(ctx context.Context, reason string) (func(), error) {
	seconds := fmt.Sprintf("%d", int(w.ceiling.Seconds()))

	cmd := exec.Command(
		"systemd-inhibit",
		"--what=sleep:idle",
		"--who=voice-alarmd",
		"--why="+reason,
		"--mode=block",
		"sleep", seconds,
	)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start suspend inhibitor: %w", err)
	}

	logger.DebugKV(ctx, "Suspend inhibitor acquired",
		"reason", reason,
		"ceiling", w.ceiling)

	// Reap the child whether it expires or gets killed by release.
	waitDone := make(chan struct{})

	go func() {
		_ = cmd.Wait()
		close(waitDone)
	}()

	var once sync.Once

	release := func() {
		once.Do(func() {
			_ = cmd.Process.Kill()
			<-waitDone

			logger.DebugKV(ctx, "Suspend inhibitor released", "reason", reason)
		})
	}

	return release, nil
}
