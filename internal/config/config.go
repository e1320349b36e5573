package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds settings shared by the voice-alarm binaries.
type Config struct {
	// DatabasePath is the path to the SQLite file holding alarm definitions.
	DatabasePath string `yaml:"database_path" env:"VOICEALARM_DATABASE"`
	// SocketPath is the unix socket the daemon serves control commands on.
	SocketPath string `yaml:"socket_path" env:"VOICEALARM_SOCKET"`
	// SpeechCommand is the synthesis program producing WAV on stdout.
	// The placeholders {text} and {lang} are substituted per utterance.
	SpeechCommand []string `yaml:"speech_command" env:"VOICEALARM_SPEECH_COMMAND" envSeparator:" "`
	// DefaultLanguage is the BCP-47 tag used when an alarm has none.
	DefaultLanguage string `yaml:"default_language" env:"VOICEALARM_LANGUAGE"`
	// SafetyMargin is the minimum distance to the future a wake-up may be
	// armed at. Triggers closer than this are rejected.
	SafetyMargin time.Duration `yaml:"safety_margin" env:"VOICEALARM_SAFETY_MARGIN"`
	// WakeLockCeiling bounds how long the announcement wake lock is held
	// even if the speech engine hangs.
	WakeLockCeiling time.Duration `yaml:"wake_lock_ceiling" env:"VOICEALARM_WAKE_LOCK_CEILING"`
	// StopUITimeout is how long the Stop screen stays up without user action.
	StopUITimeout time.Duration `yaml:"stop_ui_timeout" env:"VOICEALARM_STOP_UI_TIMEOUT"`
	// Repetitions is how many times an announcement is spoken.
	Repetitions int `yaml:"repetitions" env:"VOICEALARM_REPETITIONS"`
	// StopUICommand is the command line launched to present the Stop
	// screen, so a terminal-emulator wrapper can be configured. The
	// ringing alarm's title and body are appended as flags.
	StopUICommand []string `yaml:"stop_ui_command" env:"VOICEALARM_STOP_UI_COMMAND" envSeparator:" "`
	// LogLevel is the minimum level emitted by the daemon ("debug".."fatal").
	LogLevel string `yaml:"log_level" env:"VOICEALARM_LOG_LEVEL"`
}

const (
	// DefaultConfigFilename is the default filename for daemon settings.
	DefaultConfigFilename = "voice-alarm-settings.yaml"

	// DefaultDatabaseFilename is the default filename for the alarm database.
	DefaultDatabaseFilename = "voice-alarm.db"

	// DefaultSocketFilename is the default control socket filename.
	DefaultSocketFilename = "voice-alarmd.sock"

	// DefaultLanguage is the fallback speech locale.
	DefaultLanguage = "fi-FI"

	// DefaultSafetyMargin rejects wake-ups armed in the imminent past.
	DefaultSafetyMargin = 2 * time.Second

	// DefaultWakeLockCeiling bounds the announcement wake lock.
	DefaultWakeLockCeiling = 10 * time.Minute

	// DefaultStopUITimeout closes an untouched Stop screen.
	DefaultStopUITimeout = 15 * time.Second

	// DefaultRepetitions is how many times the message is spoken per firing.
	DefaultRepetitions = 5

	// DefaultFilePermissions is the permission for files the daemon writes.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errRepetitionsInvalid is returned when the repetition count is not positive.
	errRepetitionsInvalid = errors.New("repetitions must be positive")
	// errSafetyMarginInvalid is returned when the safety margin is too small.
	errSafetyMarginInvalid = errors.New("safety margin must be at least 2s")
)

// Default returns settings with every field at its documented default,
// rooted under the user state directory.
func Default() *Config {
	stateDir := defaultStateDir()

	return &Config{
		DatabasePath:    filepath.Join(stateDir, DefaultDatabaseFilename),
		SocketPath:      filepath.Join(stateDir, DefaultSocketFilename),
		SpeechCommand:   []string{"espeak-ng", "-v", "{lang}", "--stdout", "{text}"},
		DefaultLanguage: DefaultLanguage,
		SafetyMargin:    DefaultSafetyMargin,
		WakeLockCeiling: DefaultWakeLockCeiling,
		StopUITimeout:   DefaultStopUITimeout,
		Repetitions:     DefaultRepetitions,
		StopUICommand:   []string{"voice-alarm-stop"},
		LogLevel:        "info",
	}
}

// Load reads configuration from the provided path, applies environment
// overrides and validates essential fields. A missing file is not an
// error; defaults are used instead.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
		if err = yaml.Unmarshal(contents, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// Keep defaults.
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err = env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills the
// remaining gaps with defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	defaults := Default()

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = defaults.DatabasePath
	}

	if cfg.SocketPath == "" {
		cfg.SocketPath = defaults.SocketPath
	}

	if len(cfg.SpeechCommand) == 0 {
		cfg.SpeechCommand = defaults.SpeechCommand
	}

	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = DefaultLanguage
	}

	if cfg.SafetyMargin == 0 {
		cfg.SafetyMargin = DefaultSafetyMargin
	}

	if cfg.SafetyMargin < DefaultSafetyMargin {
		return errSafetyMarginInvalid
	}

	if cfg.WakeLockCeiling <= 0 {
		cfg.WakeLockCeiling = DefaultWakeLockCeiling
	}

	if cfg.StopUITimeout <= 0 {
		cfg.StopUITimeout = DefaultStopUITimeout
	}

	if cfg.Repetitions == 0 {
		cfg.Repetitions = DefaultRepetitions
	}

	if cfg.Repetitions < 0 {
		return errRepetitionsInvalid
	}

	if len(cfg.StopUICommand) == 0 {
		cfg.StopUICommand = defaults.StopUICommand
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}

	return nil
}

// defaultStateDir returns the per-user directory for daemon state files.
func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "voice-alarm")
	}

	return "."
}
