package daemon

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/talehto/voice-alarm-app/internal/announcer"
	"github.com/talehto/voice-alarm-app/internal/config"
	"github.com/talehto/voice-alarm-app/internal/control"
	"github.com/talehto/voice-alarm-app/internal/dispatcher"
	"github.com/talehto/voice-alarm-app/internal/domain/alarm"
	"github.com/talehto/voice-alarm-app/internal/logger"
	"github.com/talehto/voice-alarm-app/internal/platform"
	"github.com/talehto/voice-alarm-app/internal/repository/alarms"
	"github.com/talehto/voice-alarm-app/internal/scheduler"
	"github.com/talehto/voice-alarm-app/internal/speech"
	"github.com/talehto/voice-alarm-app/internal/waketimer"
)

// watchDebounce coalesces bursts of database file events into one
// re-arm pass.
const watchDebounce = 500 * time.Millisecond

// Options controls the daemon.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// LogLevel provides an optional log level override.
	LogLevel string
}

// Run assembles the daemon and blocks until the context is cancelled.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "voice-alarmd")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	level := cfg.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}

	if lvl, ok := logger.ParseLogLevel(level); ok {
		logger.SetLevel(lvl)
	} else {
		logger.WarnKV(ctx, "Unknown log level, keeping current", "level", level)
	}

	store, err := alarms.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open alarm store: %w", err)
	}

	defer func() {
		_ = store.Close()
	}()

	engine := speech.NewCommandEngine(cfg.SpeechCommand)
	if err = engine.Start(ctx); err != nil {
		return fmt.Errorf("start speech engine: %w", err)
	}

	defer func() {
		_ = engine.Shutdown()
	}()

	// The dispatcher is created after the timer bed it feeds, so the
	// fire callback goes through a late-bound reference.
	var disp *dispatcher.Dispatcher

	timers := waketimer.New(func(payload []byte) {
		disp.OnFire(payload)
	})
	defer timers.Close()

	sched := scheduler.New(timers, scheduler.WithSafetyMargin(cfg.SafetyMargin))

	announce := announcer.New(announcer.Options{
		Store:         store,
		Rescheduler:   sched,
		Engine:        engine,
		WakeLock:      platform.NewInhibitWakeLock(cfg.WakeLockCeiling),
		AudioFocus:    platform.NewFocusArbiter(),
		Probe:         platform.NewPSProbe(),
		StopUICommand: cfg.StopUICommand,
		Repetitions:   cfg.Repetitions,
	})
	announce.SetNotifier(platform.NewNotifySendNotifier(announce.Stop))

	disp = dispatcher.New(announce)

	d := &daemon{
		cfg:      cfg,
		store:    store,
		sched:    sched,
		announce: announce,
		timers:   timers,
	}

	d.rearmAll(ctx)

	watcherDone := d.startWatcher(ctx)

	server := control.NewServer(cfg.SocketPath, d)

	logger.InfoKV(ctx, "Voice alarm daemon started",
		"database", cfg.DatabasePath,
		"socket", cfg.SocketPath)

	err = server.Run(ctx)

	// Shutdown: the control server has returned, the watcher drains on
	// the same context, then the ringing session is silenced.
	<-watcherDone
	d.announce.Stop()
	d.announce.Wait()

	logger.Info(ctx, "Voice alarm daemon stopped")

	return err
}

// daemon implements the control surface over the assembled parts.
type daemon struct {
	cfg      *config.Config
	store    *alarms.Store
	sched    *scheduler.Scheduler
	announce *announcer.Service
	timers   *waketimer.Timers
}

// StopAnnouncement implements control.Handler.
func (d *daemon) StopAnnouncement(ctx context.Context) {
	logger.Info(ctx, "Stop command received")
	d.announce.Stop()
}

// Upsert implements control.Handler: store the alarm and arm it.
func (d *daemon) Upsert(ctx context.Context, a *alarm.Alarm) (int64, error) {
	if a.Language == "" {
		a.Language = d.cfg.DefaultLanguage
	}

	var err error

	if a.ID == 0 {
		a.ID, err = d.store.Insert(ctx, a)
	} else {
		err = d.store.Update(ctx, a)
	}

	if err != nil {
		return 0, err
	}

	d.sched.Schedule(ctx, a)

	return a.ID, nil
}

// SetEnabled implements control.Handler: flip the flag and re-arm or
// disarm accordingly.
func (d *daemon) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	if err := d.store.SetEnabled(ctx, id, enabled); err != nil {
		return err
	}

	a, err := d.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	d.sched.Schedule(ctx, a)

	return nil
}

// Delete implements control.Handler: drop the alarm and its wake-up.
func (d *daemon) Delete(ctx context.Context, id int64) error {
	if err := d.store.Delete(ctx, id); err != nil {
		return err
	}

	d.sched.Cancel(ctx, id)

	return nil
}

// List implements control.Handler.
func (d *daemon) List(ctx context.Context) ([]*alarm.Alarm, error) {
	return d.store.ListAll(ctx)
}

// rearmAll schedules every enabled alarm. Runs at startup and whenever
// the database changes underneath the daemon.
func (d *daemon) rearmAll(ctx context.Context) {
	list, err := d.store.ListEnabled(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Listing enabled alarms failed", "error", err)

		return
	}

	for _, a := range list {
		d.sched.Schedule(ctx, a)
	}

	logger.InfoKV(ctx, "Alarms armed", "count", len(list))
}

// startWatcher re-arms alarms when the database file is modified by
// another process. Watcher failure is logged, not fatal; the daemon's
// own mutations re-arm directly.
func (d *daemon) startWatcher(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.WarnKV(ctx, "Database watcher unavailable", "error", err)
		close(done)

		return done
	}

	// Watch the directory: SQLite replaces journal files next to the
	// database rather than rewriting it in place.
	if err = watcher.Add(filepath.Dir(d.cfg.DatabasePath)); err != nil {
		logger.WarnKV(ctx, "Watching database directory failed", "error", err)
		_ = watcher.Close()
		close(done)

		return done
	}

	go func() {
		defer close(done)
		defer func() {
			_ = watcher.Close()
		}()

		var (
			debounce *time.Timer
			fire     <-chan time.Time
		)

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				if !d.isDatabaseEvent(event) {
					continue
				}

				if debounce == nil {
					debounce = time.NewTimer(watchDebounce)
					fire = debounce.C
				} else {
					debounce.Reset(watchDebounce)
				}

			case <-fire:
				debounce = nil
				fire = nil

				logger.Debug(ctx, "Database changed, re-arming alarms")
				d.rearmAll(ctx)

			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}

				logger.WarnKV(ctx, "Database watcher error", "error", watchErr)
			}
		}
	}()

	return done
}

// isDatabaseEvent reports whether the event touches the database file
// or its SQLite side files.
func (d *daemon) isDatabaseEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}

	base := filepath.Base(d.cfg.DatabasePath)
	name := filepath.Base(event.Name)

	return name == base || name == base+"-wal" || name == base+"-journal"
}
