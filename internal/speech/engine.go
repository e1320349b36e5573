package speech

import (
	"context"
	"errors"
)

// Listener receives asynchronous per-utterance completion callbacks.
// Callbacks arrive on engine-owned goroutines; implementations must be
// safe for concurrent use and must tolerate ids they no longer track.
type Listener interface {
	// UtteranceDone reports a fully played utterance.
	UtteranceDone(utteranceID string)
	// UtteranceError reports an utterance that failed to synthesize or play.
	UtteranceError(utteranceID string)
}

// Engine is the speech-synthesis contract consumed by the announcement
// service. Initialization is asynchronous: Start kicks it off and Ready
// flips once the engine can accept utterances.
type Engine interface {
	// Start begins asynchronous initialization.
	Start(ctx context.Context) error
	// Ready reports whether initialization has completed successfully.
	Ready() bool
	// SetListener installs the completion callback sink. Must be called
	// before the first Speak.
	SetListener(l Listener)
	// Speak submits one utterance. The returned error covers submission
	// only; the outcome arrives through the listener.
	Speak(text, languageTag, utteranceID string) error
	// Stop interrupts the utterance currently playing, if any.
	Stop()
	// Shutdown releases the engine. No callbacks are delivered afterwards.
	Shutdown() error
}

var (
	// ErrNotReady is returned by Speak before initialization completes.
	ErrNotReady = errors.New("speech engine not ready")
	// ErrNoListener is returned by Speak when no listener is installed.
	ErrNoListener = errors.New("no utterance listener installed")
	// ErrShutDown is returned once the engine has been shut down.
	ErrShutDown = errors.New("speech engine shut down")
)
