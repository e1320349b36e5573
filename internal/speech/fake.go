package speech

import (
	"context"
	"sync"
)

// FakeResult scripts the outcome of a single fake utterance.
type FakeResult struct {
	// Fail makes the utterance complete with UtteranceError.
	Fail bool
	// SubmitErr is returned synchronously from Speak instead of
	// delivering any callback.
	SubmitErr error
}

// FakeEngine is an instrumented Engine for tests. It records submission
// order and delivers scripted per-utterance outcomes on a separate
// goroutine, mirroring how a real engine reports completion.
type FakeEngine struct {
	// InitiallyReady skips the asynchronous init handshake.
	InitiallyReady bool

	mu        sync.Mutex
	ready     bool
	closed    bool
	listener  Listener
	results   map[string]FakeResult // keyed by spoken text
	Spoken    []string              // texts in submission order
	Languages []string              // language tags in submission order
	Stopped   int                   // Stop call count
	Shutdowns int                   // Shutdown call count
}

// NewFakeEngine returns a fake that is ready as soon as Start runs.
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{InitiallyReady: true}
}

// ScriptResult sets the outcome for utterances whose text equals text.
// Unscripted utterances succeed.
func (f *FakeEngine) ScriptResult(text string, result FakeResult) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.results == nil {
		f.results = make(map[string]FakeResult)
	}

	f.results[text] = result
}

// Start marks the engine ready when InitiallyReady is set; otherwise the
// test flips readiness itself with SetReady.
func (f *FakeEngine) Start(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.InitiallyReady {
		f.ready = true
	}

	return nil
}

// SetReady flips readiness, letting tests model slow or failed init.
func (f *FakeEngine) SetReady(ready bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ready = ready
}

// Ready reports the scripted readiness state.
func (f *FakeEngine) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.ready && !f.closed
}

// SetListener installs the completion callback sink.
func (f *FakeEngine) SetListener(l Listener) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listener = l
}

// Speak records the utterance and schedules its scripted outcome.
func (f *FakeEngine) Speak(text, languageTag, utteranceID string) error {
	f.mu.Lock()

	if f.closed {
		f.mu.Unlock()

		return ErrShutDown
	}

	if !f.ready {
		f.mu.Unlock()

		return ErrNotReady
	}

	listener := f.listener
	if listener == nil {
		f.mu.Unlock()

		return ErrNoListener
	}

	result := f.results[text]
	if result.SubmitErr != nil {
		f.mu.Unlock()

		return result.SubmitErr
	}

	f.Spoken = append(f.Spoken, text)
	f.Languages = append(f.Languages, languageTag)
	f.mu.Unlock()

	go func() {
		if result.Fail {
			listener.UtteranceError(utteranceID)

			return
		}

		listener.UtteranceDone(utteranceID)
	}()

	return nil
}

// Stop counts interruptions.
func (f *FakeEngine) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Stopped++
}

// Shutdown counts releases and rejects further submissions.
func (f *FakeEngine) Shutdown() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	f.Shutdowns++

	return nil
}

// SpokenTexts returns a copy of the submission order.
func (f *FakeEngine) SpokenTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.Spoken))
	copy(out, f.Spoken)

	return out
}
