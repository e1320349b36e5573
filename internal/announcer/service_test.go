package announcer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/talehto/voice-alarm-app/internal/domain/alarm"
	"github.com/talehto/voice-alarm-app/internal/platform"
	"github.com/talehto/voice-alarm-app/internal/repository/alarms"
	"github.com/talehto/voice-alarm-app/internal/speech"
)

// fakeStore serves alarms from memory.
type fakeStore struct {
	mu       sync.Mutex
	alarms   map[int64]*alarm.Alarm
	disabled []int64
}

func newFakeStore(list ...*alarm.Alarm) *fakeStore {
	store := &fakeStore{alarms: make(map[int64]*alarm.Alarm)}
	for _, a := range list {
		store.alarms[a.ID] = a
	}

	return store
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*alarm.Alarm, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.alarms[id]
	if !ok {
		return nil, alarms.ErrNotFound
	}

	return a.Clone(), nil
}

func (f *fakeStore) SetEnabled(_ context.Context, id int64, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.alarms[id]
	if !ok {
		return alarms.ErrNotFound
	}

	a.Enabled = enabled

	if !enabled {
		f.disabled = append(f.disabled, id)
	}

	return nil
}

func (f *fakeStore) disabledIDs() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]int64, len(f.disabled))
	copy(out, f.disabled)

	return out
}

// fakeRescheduler records schedule calls.
type fakeRescheduler struct {
	mu  sync.Mutex
	ids []int64
}

func (f *fakeRescheduler) Schedule(_ context.Context, a *alarm.Alarm) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ids = append(f.ids, a.ID)
}

func (f *fakeRescheduler) scheduled() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]int64, len(f.ids))
	copy(out, f.ids)

	return out
}

// gatedEngine holds each utterance open until the test releases it,
// so tests can stop the session mid-loop deterministically.
type gatedEngine struct {
	mu       sync.Mutex
	listener speech.Listener
	started  chan string // receives each utterance id as it starts
	release  chan error  // test sends one result per started utterance
	spoken   int
}

func newGatedEngine() *gatedEngine {
	return &gatedEngine{
		started: make(chan string, 16),
		release: make(chan error, 16),
	}
}

func (g *gatedEngine) Start(context.Context) error { return nil }
func (g *gatedEngine) Ready() bool                 { return true }
func (g *gatedEngine) Stop()                       {}
func (g *gatedEngine) Shutdown() error             { return nil }

func (g *gatedEngine) SetListener(l speech.Listener) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.listener = l
}

func (g *gatedEngine) Speak(_, _ string, utteranceID string) error {
	g.mu.Lock()
	g.spoken++
	listener := g.listener
	g.mu.Unlock()

	g.started <- utteranceID

	go func() {
		if err := <-g.release; err != nil {
			listener.UtteranceError(utteranceID)

			return
		}

		listener.UtteranceDone(utteranceID)
	}()

	return nil
}

func (g *gatedEngine) spokenCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.spoken
}

func testWeekly(id int64) *alarm.Alarm {
	return &alarm.Alarm{
		ID:           id,
		Kind:         alarm.KindWeekly,
		Title:        "Morning run",
		Body:         "Time to get up",
		Enabled:      true,
		WeeklyMask:   alarm.AllWeekdays,
		WeeklyHour:   7,
		WeeklyMinute: 30,
	}
}

func testSingle(id int64) *alarm.Alarm {
	return &alarm.Alarm{
		ID:       id,
		Kind:     alarm.KindSingle,
		Title:    "Dentist",
		Enabled:  true,
		SingleAt: 1_767_000_000_000,
	}
}

type harness struct {
	service     *Service
	store       *fakeStore
	rescheduler *fakeRescheduler
	engine      *speech.FakeEngine
	wakeLock    *platform.FakeWakeLock
	notifier    *platform.FakeNotifier
	focus       *platform.FocusArbiter
	probe       *platform.FakeProbe

	mu       sync.Mutex
	launched [][]string
}

func newHarness(t *testing.T, engine speech.Engine, list ...*alarm.Alarm) *harness {
	t.Helper()

	h := &harness{
		store:       newFakeStore(list...),
		rescheduler: &fakeRescheduler{},
		wakeLock:    &platform.FakeWakeLock{},
		notifier:    &platform.FakeNotifier{},
		focus:       platform.NewFocusArbiter(),
		probe:       &platform.FakeProbe{},
	}

	fake, ok := engine.(*speech.FakeEngine)
	if ok {
		h.engine = fake
		require.NoError(t, fake.Start(context.Background()))
	}

	h.service = New(Options{
		Store:            h.store,
		Rescheduler:      h.rescheduler,
		Engine:           engine,
		WakeLock:         h.wakeLock,
		Notifier:         h.notifier,
		AudioFocus:       h.focus,
		Probe:            h.probe,
		StopUICommand:    []string{"voice-alarm-stop"},
		InitPolls:        3,
		InitPollInterval: time.Millisecond,
		LaunchStopUI: func(_ context.Context, argv []string) error {
			h.mu.Lock()
			defer h.mu.Unlock()

			h.launched = append(h.launched, argv)

			return nil
		},
	})

	return h
}

func (h *harness) launches() [][]string {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([][]string, len(h.launched))
	copy(out, h.launched)

	return out
}

func TestAnnounce_WeeklyHappyPath(t *testing.T) {
	t.Parallel()

	engine := speech.NewFakeEngine()
	h := newHarness(t, engine, testWeekly(7))

	h.service.Announce(7)
	h.service.Wait()

	// Spoken exactly five times, same text each time.
	texts := engine.SpokenTexts()
	require.Len(t, texts, DefaultRepetitions)

	for _, text := range texts {
		require.Equal(t, "Time to get up", text)
	}

	// Weekly alarms are re-armed, never disabled.
	require.Equal(t, []int64{7}, h.rescheduler.scheduled())
	require.Empty(t, h.store.disabledIDs())

	// Every resource taken was given back.
	require.Equal(t, 1, h.wakeLock.Acquired)
	require.Equal(t, 0, h.wakeLock.Held())
	require.Equal(t, 1, h.notifier.Shown)
	require.Equal(t, 0, h.notifier.Visible())
	require.Empty(t, h.focus.Holder())
	require.Len(t, h.launches(), 1)

	require.Equal(t, StateIdle, h.service.State())
}

func TestAnnounce_SingleAlarmRetires(t *testing.T) {
	t.Parallel()

	engine := speech.NewFakeEngine()
	h := newHarness(t, engine, testSingle(3))

	h.service.Announce(3)
	h.service.Wait()

	// Body is empty so the title is spoken.
	texts := engine.SpokenTexts()
	require.Len(t, texts, DefaultRepetitions)
	require.Equal(t, "Dentist", texts[0])

	require.Equal(t, []int64{3}, h.store.disabledIDs())
	require.Empty(t, h.rescheduler.scheduled())
}

func TestAnnounce_FailedUtteranceDoesNotAbortLoop(t *testing.T) {
	t.Parallel()

	engine := speech.NewFakeEngine()
	engine.ScriptResult("Time to get up", speech.FakeResult{Fail: true})

	h := newHarness(t, engine, testWeekly(7))

	h.service.Announce(7)
	h.service.Wait()

	// All five are still attempted even though every one fails.
	require.Len(t, engine.SpokenTexts(), DefaultRepetitions)
	require.Equal(t, []int64{7}, h.rescheduler.scheduled())
}

func TestAnnounce_StopAbandonsRemainingUtterances(t *testing.T) {
	t.Parallel()

	engine := newGatedEngine()
	h := newHarness(t, engine, testWeekly(7))

	h.service.Announce(7)

	// Let the first utterance start, then stop while it plays.
	select {
	case <-engine.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first utterance never started")
	}

	h.service.Stop()
	engine.release <- nil

	h.service.Wait()

	require.Equal(t, 1, engine.spokenCount())

	// Stop still releases resources and re-arms the weekly alarm.
	require.Equal(t, 0, h.wakeLock.Held())
	require.Equal(t, 0, h.notifier.Visible())
	require.Equal(t, []int64{7}, h.rescheduler.scheduled())
	require.Equal(t, StateIdle, h.service.State())
}

func TestAnnounce_MissingAlarmGoesStraightToStopped(t *testing.T) {
	t.Parallel()

	engine := speech.NewFakeEngine()
	h := newHarness(t, engine) // empty store

	h.service.Announce(99)
	h.service.Wait()

	require.Empty(t, engine.SpokenTexts())
	require.Equal(t, 0, h.notifier.Shown)
	require.Equal(t, 0, h.wakeLock.Acquired)
	require.Equal(t, StateIdle, h.service.State())
}

func TestAnnounce_EngineNeverReady(t *testing.T) {
	t.Parallel()

	engine := &speech.FakeEngine{} // stays not ready
	h := newHarness(t, engine, testWeekly(7))
	require.NoError(t, engine.Start(context.Background()))

	h.service.Announce(7)
	h.service.Wait()

	require.Empty(t, engine.SpokenTexts())

	// Resources were taken for the announcement and given back.
	require.Equal(t, 1, h.wakeLock.Acquired)
	require.Equal(t, 0, h.wakeLock.Held())
	require.Equal(t, []int64{7}, h.rescheduler.scheduled())
	require.Equal(t, StateIdle, h.service.State())
}

func TestAnnounce_StopUINotRelaunchedWhenRunning(t *testing.T) {
	t.Parallel()

	engine := speech.NewFakeEngine()
	h := newHarness(t, engine, testWeekly(7))
	h.probe.IsRunning = true

	h.service.Announce(7)
	h.service.Wait()

	require.Empty(t, h.launches())
}

func TestAnnounce_StopScreenShowsAlarmText(t *testing.T) {
	t.Parallel()

	engine := speech.NewFakeEngine()
	h := newHarness(t, engine, testWeekly(7))

	h.service.Announce(7)
	h.service.Wait()

	// The stop screen is told what is ringing instead of falling back
	// to its built-in defaults.
	launches := h.launches()
	require.Len(t, launches, 1)
	require.Equal(t, []string{
		"voice-alarm-stop",
		"--title", "Morning run",
		"--body", "Time to get up",
	}, launches[0])

	// The probe is asked about the bare executable, not the flags.
	require.Equal(t, []string{"voice-alarm-stop"}, h.probe.Queries)
}

func TestAnnounce_UtterancesRunStrictlySequentially(t *testing.T) {
	t.Parallel()

	engine := newGatedEngine()
	h := newHarness(t, engine, testWeekly(7))

	h.service.Announce(7)

	for i := 1; i <= DefaultRepetitions; i++ {
		select {
		case <-engine.started:
		case <-time.After(2 * time.Second):
			t.Fatalf("utterance %d never started", i)
		}

		// The next utterance is never submitted while this one is
		// still playing.
		require.Equal(t, i, engine.spokenCount())
		engine.release <- nil
	}

	h.service.Wait()

	require.Equal(t, DefaultRepetitions, engine.spokenCount())
	require.Equal(t, StateIdle, h.service.State())
}

// blockingNotifier holds its close call open until the test releases
// it, exposing the window between teardown and the Idle state.
type blockingNotifier struct {
	shown   chan struct{}
	closing chan struct{}
	release chan struct{}
}

func newBlockingNotifier() *blockingNotifier {
	return &blockingNotifier{
		shown:   make(chan struct{}, 1),
		closing: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (b *blockingNotifier) Show(context.Context, string, string) (func(), error) {
	b.shown <- struct{}{}

	return func() {
		close(b.closing)
		<-b.release
	}, nil
}

func TestAnnounce_IdleOnlyAfterResourcesReleased(t *testing.T) {
	t.Parallel()

	engine := speech.NewFakeEngine()
	h := newHarness(t, engine, testWeekly(7))

	notifier := newBlockingNotifier()
	h.service.SetNotifier(notifier)

	h.service.Announce(7)

	select {
	case <-notifier.shown:
	case <-time.After(2 * time.Second):
		t.Fatal("notification never shown")
	}

	select {
	case <-notifier.closing:
	case <-time.After(2 * time.Second):
		t.Fatal("teardown never reached the notification")
	}

	// The notification is still up, so the machine must not read Idle
	// yet; a preempting session relies on that.
	require.NotEqual(t, StateIdle, h.service.State())

	close(notifier.release)
	h.service.Wait()

	require.Equal(t, StateIdle, h.service.State())
	require.Equal(t, 0, h.wakeLock.Held())
}

func TestAnnounce_PreemptionRunsNewerAlarm(t *testing.T) {
	t.Parallel()

	engine := newGatedEngine()
	h := newHarness(t, engine, testWeekly(7), testSingle(3))

	h.service.Announce(7)

	select {
	case <-engine.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first utterance never started")
	}

	// A second firing preempts the running session.
	h.service.Announce(3)
	engine.release <- nil

	// Release the second session's utterances as they come.
	deadline := time.After(5 * time.Second)

	for done := false; !done; {
		select {
		case <-engine.started:
			engine.release <- nil
		case <-deadline:
			t.Fatal("second session never finished")
		default:
			if h.service.State() == StateIdle && h.store.hasDisabled(3) {
				done = true
			} else {
				time.Sleep(time.Millisecond)
			}
		}
	}

	// The preempted weekly alarm was still re-armed, and the single
	// alarm that replaced it was retired.
	require.Contains(t, h.rescheduler.scheduled(), int64(7))
	require.Equal(t, []int64{3}, h.store.disabledIDs())
	require.Equal(t, 0, h.wakeLock.Held())
}

func (f *fakeStore) hasDisabled(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, d := range f.disabled {
		if d == id {
			return true
		}
	}

	return false
}

func TestStateTransitionTable(t *testing.T) {
	t.Parallel()

	require.True(t, canTransition(StateIdle, StateLoading))
	require.True(t, canTransition(StateLoading, StateStopped))
	require.True(t, canTransition(StateSpeaking, StateRescheduling))
	require.True(t, canTransition(StateStopped, StateIdle))

	require.False(t, canTransition(StateIdle, StateSpeaking))
	require.False(t, canTransition(StateStopped, StateSpeaking))
	require.False(t, canTransition(StateRescheduling, StateSpeaking))
}
