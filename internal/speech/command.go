package speech

import (
	"context"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/talehto/voice-alarm-app/internal/logger"
)

// CommandEngine synthesizes speech by running an external command that
// writes WAV to stdout (espeak-ng by default) and playing the result
// through the audio device. One utterance runs at a time; the caller is
// responsible for sequencing.
type CommandEngine struct {
	// argv is the synthesis command template. The placeholders {text}
	// and {lang} are substituted per utterance.
	argv []string

	// ready flips once the audio device is initialized.
	ready atomic.Bool
	// closed rejects submissions after Shutdown.
	closed atomic.Bool

	// mu protects listener, player and the current utterance handle.
	mu       sync.Mutex
	listener Listener
	player   *Player
	cancel   context.CancelFunc // cancels the in-flight synthesis command
}

// NewCommandEngine creates an engine around the given synthesis argv.
func NewCommandEngine(argv []string) *CommandEngine {
	return &CommandEngine{argv: argv}
}

// Start initializes the audio device asynchronously. Initialization
// failure leaves the engine permanently not ready; the announcement
// loop treats that as a recovered condition, not a crash.
func (e *CommandEngine) Start(ctx context.Context) error {
	go func() {
		player, err := NewPlayer()
		if err != nil {
			logger.ErrorKV(ctx, "Audio device initialization failed", "error", err)

			return
		}

		e.mu.Lock()
		e.player = player
		e.mu.Unlock()

		e.ready.Store(true)
		logger.Debug(ctx, "Speech engine ready")
	}()

	return nil
}

// Ready reports whether the audio device is initialized.
func (e *CommandEngine) Ready() bool {
	return e.ready.Load() && !e.closed.Load()
}

// SetListener installs the completion callback sink.
func (e *CommandEngine) SetListener(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.listener = l
}

// Speak submits one utterance. The outcome is reported asynchronously
// through the listener, keyed by utteranceID.
func (e *CommandEngine) Speak(text, languageTag, utteranceID string) error {
	if e.closed.Load() {
		return ErrShutDown
	}

	if !e.ready.Load() {
		return ErrNotReady
	}

	e.mu.Lock()
	listener := e.listener
	player := e.player

	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.mu.Unlock()

	if listener == nil {
		cancel()

		return ErrNoListener
	}

	go e.run(runCtx, player, listener, text, languageTag, utteranceID)

	return nil
}

// run synthesizes and plays a single utterance.
func (e *CommandEngine) run(ctx context.Context, player *Player, listener Listener, text, languageTag, utteranceID string) {
	argv := expandArgv(e.argv, text, languageTag)

	//nolint:gosec // The synthesis command comes from the operator's own settings.
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	wav, err := cmd.Output()
	if err != nil {
		logger.WarnKV(ctx, "Synthesis command failed", "utterance_id", utteranceID, "error", err)
		listener.UtteranceError(utteranceID)

		return
	}

	if err := player.Play(wav); err != nil {
		logger.WarnKV(ctx, "Playback failed", "utterance_id", utteranceID, "error", err)
		listener.UtteranceError(utteranceID)

		return
	}

	listener.UtteranceDone(utteranceID)
}

// Stop interrupts the in-flight utterance, if any.
func (e *CommandEngine) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	player := e.player
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	if player != nil {
		player.Stop()
	}
}

// Shutdown stops playback and rejects further submissions.
func (e *CommandEngine) Shutdown() error {
	if e.closed.Swap(true) {
		return nil
	}

	e.Stop()

	return nil
}

// expandArgv substitutes the {text} and {lang} placeholders.
func expandArgv(template []string, text, languageTag string) []string {
	argv := make([]string, len(template))
	for i, arg := range template {
		arg = strings.ReplaceAll(arg, "{text}", text)
		arg = strings.ReplaceAll(arg, "{lang}", languageTag)
		argv[i] = arg
	}

	return argv
}
