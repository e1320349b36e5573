package announcer

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talehto/voice-alarm-app/internal/domain/alarm"
	"github.com/talehto/voice-alarm-app/internal/logger"
	"github.com/talehto/voice-alarm-app/internal/platform"
	"github.com/talehto/voice-alarm-app/internal/repository/alarms"
	"github.com/talehto/voice-alarm-app/internal/speech"
)

const (
	// DefaultRepetitions is how many times one alarm is spoken.
	DefaultRepetitions = 5
	// engineInitPolls bounds the wait for speech-engine readiness.
	engineInitPolls = 20
	// engineInitPollInterval is the gap between readiness polls.
	engineInitPollInterval = 100 * time.Millisecond
)

// errUtteranceFailed resolves a future whose utterance failed.
var errUtteranceFailed = errors.New("utterance failed")

// Store is the alarm persistence surface a session needs.
type Store interface {
	GetByID(ctx context.Context, id int64) (*alarm.Alarm, error)
	SetEnabled(ctx context.Context, id int64, enabled bool) error
}

// Rescheduler arms the next occurrence of a completed weekly alarm.
type Rescheduler interface {
	Schedule(ctx context.Context, a *alarm.Alarm)
}

// Options wires the session's collaborators.
type Options struct {
	Store       Store
	Rescheduler Rescheduler
	Engine      speech.Engine
	WakeLock    platform.WakeLock
	Notifier    platform.Notifier
	AudioFocus  platform.AudioFocus
	Probe       platform.ProcessProbe

	// StopUICommand is the command line launched to show the user the
	// dismissal screen. The alarm's title and body are appended as
	// flags. Empty disables launching it.
	StopUICommand []string
	// Repetitions overrides how many times the text is spoken.
	Repetitions int
	// InitPolls and InitPollInterval override the readiness wait, used
	// by tests to keep the failure path fast.
	InitPolls        int
	InitPollInterval time.Duration
	// LaunchStopUI overrides how the stop screen is started.
	LaunchStopUI func(ctx context.Context, argv []string) error
}

// Service owns the single announcement session slot. A new firing
// preempts the running session.
type Service struct {
	opts Options

	mu      sync.Mutex
	state   State
	session *session
}

// New creates an idle announcement service.
func New(opts Options) *Service {
	if opts.Repetitions <= 0 {
		opts.Repetitions = DefaultRepetitions
	}

	if opts.InitPolls <= 0 {
		opts.InitPolls = engineInitPolls
	}

	if opts.InitPollInterval <= 0 {
		opts.InitPollInterval = engineInitPollInterval
	}

	if opts.LaunchStopUI == nil {
		opts.LaunchStopUI = launchExecutable
	}

	return &Service{opts: opts, state: StateIdle}
}

// SetNotifier installs the notifier after construction, so its stop
// action can route back into this service.
func (s *Service) SetNotifier(n platform.Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.opts.Notifier = n
}

// notifier returns the currently installed notifier.
func (s *Service) notifier() platform.Notifier {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.opts.Notifier
}

// State reports the current session phase.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Announce starts a session for the fired alarm, preempting any session
// already running. Implements the dispatcher's starter contract.
func (s *Service) Announce(id int64) {
	s.mu.Lock()

	if s.session != nil {
		s.session.cancel()
	}

	previous := s.session

	ctx, cancel := context.WithCancel(context.Background())
	ctx = logger.WithKV(ctx, "alarm_id", id)

	sess := &session{
		service: s,
		alarmID: id,
		ctx:     ctx,
		cancel:  cancel,
		futures: make(map[string]chan error),
		done:    make(chan struct{}),
	}
	s.session = sess
	s.mu.Unlock()

	go func() {
		// The preempted session finishes its teardown before the new
		// one takes the platform resources.
		if previous != nil {
			<-previous.done
		}

		sess.run()
	}()
}

// Stop ends the running session, abandoning the remaining utterances.
// Resources are released and the alarm is still rescheduled or disabled.
func (s *Service) Stop() {
	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()

	if sess == nil {
		return
	}

	sess.requestStop()
}

// Wait blocks until the current session, if any, has finished.
func (s *Service) Wait() {
	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()

	if sess != nil {
		<-sess.done
	}
}

// setState moves the machine, logging illegal transitions instead of
// performing them.
func (s *Service) setState(ctx context.Context, to State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !canTransition(s.state, to) {
		logger.ErrorKV(ctx, "Illegal announcement state transition",
			"from", s.state.String(),
			"to", to.String())

		return
	}

	s.state = to
}

// launchExecutable starts the stop screen detached from the daemon.
func launchExecutable(_ context.Context, argv []string) error {
	//nolint:gosec // The command comes from the operator's own settings.
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return err
	}

	go func() {
		_ = cmd.Wait()
	}()

	return nil
}

// session is one announcement run for one fired alarm id.
type session struct {
	service *Service
	alarmID int64

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	stopped bool
	futures map[string]chan error // in-flight utterances by id
}

// requestStop marks the session stopped and cancels its context.
func (s *session) requestStop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
}

// stopRequested reports whether Stop arrived.
func (s *session) stopRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stopped
}

// run drives the whole session and always ends in Stopped.
func (s *session) run() {
	defer close(s.done)
	defer s.cancel()

	svc := s.service
	ctx := s.ctx

	svc.setState(ctx, StateLoading)
	logger.InfoKV(ctx, "Alarm fired, loading")

	a, err := svc.opts.Store.GetByID(ctx, s.alarmID)
	if err != nil {
		// A deleted alarm fires into the void: no notification, no sound.
		if errors.Is(err, alarms.ErrNotFound) {
			logger.WarnKV(ctx, "Fired alarm no longer exists")
		} else {
			logger.ErrorKV(ctx, "Loading fired alarm failed", "error", err)
		}

		svc.setState(ctx, StateStopped)
		svc.finish(s)

		return
	}

	svc.setState(ctx, StateAnnouncing)

	teardown := s.takeResources(ctx, a)

	// The slot opens up only after every resource is released, so a
	// preempting session never observes Idle while the notification or
	// wake lock is still held.
	defer func() {
		teardown()
		svc.setState(ctx, StateStopped)
		svc.finish(s)

		logger.InfoKV(ctx, "Announcement finished")
	}()

	if s.waitEngineReady(ctx) && !s.stopRequested() {
		svc.setState(ctx, StateSpeaking)
		s.speak(ctx, a)
	}

	svc.setState(ctx, StateRescheduling)
	s.writeBack(a)
}

// finish clears the session slot and returns the machine to Idle.
func (svc *Service) finish(s *session) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.session == s {
		svc.session = nil

		if svc.state == StateStopped {
			svc.state = StateIdle
		}
	}
}

// takeResources acquires the wake lock, audio focus, notification and
// stop screen. Every failure is logged and skipped; an alarm must sound
// even on a machine missing half its desktop. The returned teardown
// releases whatever was taken, in reverse order.
func (s *session) takeResources(ctx context.Context, a *alarm.Alarm) func() {
	svc := s.service

	var releases []func()

	if svc.opts.WakeLock != nil {
		reason := fmt.Sprintf("alarm %d ringing", a.ID)

		release, err := svc.opts.WakeLock.Acquire(ctx, reason)
		if err != nil {
			logger.WarnKV(ctx, "Wake lock unavailable", "error", err)
		} else {
			releases = append(releases, release)
		}
	}

	if svc.opts.AudioFocus != nil {
		owner := fmt.Sprintf("alarm-%d", a.ID)

		release, err := svc.opts.AudioFocus.Request(ctx, owner)
		if err != nil {
			logger.WarnKV(ctx, "Audio focus denied, announcing anyway", "error", err)
		} else {
			releases = append(releases, release)
		}
	}

	if notifier := svc.notifier(); notifier != nil {
		closeFn, err := notifier.Show(ctx, a.DisplayTitle(), a.DisplayBody())
		if err != nil {
			logger.WarnKV(ctx, "Showing alarm notification failed", "error", err)
		} else {
			releases = append(releases, closeFn)
		}
	}

	s.launchStopUI(ctx, a)

	return func() {
		svc.opts.Engine.Stop()
		s.cancelFutures()

		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
}

// launchStopUI starts the stop screen for the alarm unless one is
// already on screen.
func (s *session) launchStopUI(ctx context.Context, a *alarm.Alarm) {
	svc := s.service

	command := svc.opts.StopUICommand
	if len(command) == 0 {
		return
	}

	if svc.opts.Probe != nil {
		running, err := svc.opts.Probe.Running(command[0])
		if err != nil {
			logger.WarnKV(ctx, "Process probe failed", "error", err)
		} else if running {
			logger.Debug(ctx, "Stop screen already running")

			return
		}
	}

	argv := make([]string, 0, len(command)+4)
	argv = append(argv, command...)
	argv = append(argv, "--title", a.DisplayTitle(), "--body", a.DisplayBody())

	if err := svc.opts.LaunchStopUI(ctx, argv); err != nil {
		logger.WarnKV(ctx, "Launching stop screen failed",
			"command", command[0],
			"error", err)
	}
}

// waitEngineReady polls the speech engine's readiness a bounded number
// of times. Reports false when the engine never becomes ready.
func (s *session) waitEngineReady(ctx context.Context) bool {
	svc := s.service

	for poll := 0; poll < svc.opts.InitPolls; poll++ {
		if svc.opts.Engine.Ready() {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(svc.opts.InitPollInterval):
		}
	}

	logger.ErrorKV(ctx, "Speech engine never became ready",
		"polls", svc.opts.InitPolls)

	return false
}

// speak submits the alarm text the configured number of times, strictly
// one at a time. A failed utterance is logged and the loop moves on; an
// explicit stop abandons the rest.
func (s *session) speak(ctx context.Context, a *alarm.Alarm) {
	svc := s.service
	svc.opts.Engine.SetListener(s)

	text := a.SpokenText()
	lang := a.LanguageTag().String()

	for i := 0; i < svc.opts.Repetitions; i++ {
		if s.stopRequested() || ctx.Err() != nil {
			logger.InfoKV(ctx, "Speech loop abandoned",
				"spoken", i,
				"planned", svc.opts.Repetitions)

			return
		}

		utteranceID := uuid.NewString()
		future := s.addFuture(utteranceID)

		if err := svc.opts.Engine.Speak(text, lang, utteranceID); err != nil {
			logger.WarnKV(ctx, "Utterance submission failed",
				"utterance", i,
				"error", err)
			s.removeFuture(utteranceID)

			continue
		}

		select {
		case err := <-future:
			if err != nil {
				logger.WarnKV(ctx, "Utterance failed",
					"utterance", i,
					"error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// writeBack arms the weekly alarm's next occurrence or retires the
// single alarm. Runs on a fresh context so a preempted session still
// leaves the store consistent.
func (s *session) writeBack(a *alarm.Alarm) {
	svc := s.service

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ctx = logger.WithKV(ctx, "alarm_id", a.ID)

	switch a.Kind {
	case alarm.KindWeekly:
		svc.opts.Rescheduler.Schedule(ctx, a)
	case alarm.KindSingle:
		if err := svc.opts.Store.SetEnabled(ctx, a.ID, false); err != nil {
			logger.ErrorKV(ctx, "Retiring single alarm failed", "error", err)
		}
	}
}

// addFuture registers a pending utterance.
func (s *session) addFuture(utteranceID string) chan error {
	s.mu.Lock()
	defer s.mu.Unlock()

	future := make(chan error, 1)
	s.futures[utteranceID] = future

	return future
}

// removeFuture drops a registration without resolving it.
func (s *session) removeFuture(utteranceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.futures, utteranceID)
}

// resolveFuture completes a pending utterance exactly once. Callbacks
// for unknown ids are ignored, they belong to an earlier session.
func (s *session) resolveFuture(utteranceID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	future, ok := s.futures[utteranceID]
	if !ok {
		return
	}

	delete(s.futures, utteranceID)
	future <- err
}

// cancelFutures resolves everything still pending at teardown.
func (s *session) cancelFutures() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, future := range s.futures {
		delete(s.futures, id)
		future <- context.Canceled
	}
}

// UtteranceDone implements speech.Listener.
func (s *session) UtteranceDone(utteranceID string) {
	s.resolveFuture(utteranceID, nil)
}

// UtteranceError implements speech.Listener.
func (s *session) UtteranceError(utteranceID string) {
	s.resolveFuture(utteranceID, errUtteranceFailed)
}
