package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestLoad_MissingFileUsesDefaults ensures a missing settings file falls
// back to documented defaults instead of failing.
func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultLanguage, cfg.DefaultLanguage)
	require.Equal(t, DefaultSafetyMargin, cfg.SafetyMargin)
	require.Equal(t, DefaultRepetitions, cfg.Repetitions)
	require.Equal(t, DefaultStopUITimeout, cfg.StopUITimeout)
}

// TestSaveLoad_Roundtrip verifies settings survive a write/read cycle.
func TestSaveLoad_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")

	want := Default()
	want.DefaultLanguage = "en-GB"
	want.StopUITimeout = 5 * time.Second
	want.Repetitions = 3

	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, want.DefaultLanguage, got.DefaultLanguage)
	require.Equal(t, want.StopUITimeout, got.StopUITimeout)
	require.Equal(t, want.Repetitions, got.Repetitions)
	require.Equal(t, want.SpeechCommand, got.SpeechCommand)
}

// TestLoad_EnvironmentOverride checks VOICEALARM_* variables win over the file.
func TestLoad_EnvironmentOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, Save(path, Default()))

	t.Setenv("VOICEALARM_LANGUAGE", "sv-SE")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "sv-SE", cfg.DefaultLanguage)
}

// TestSaveLoad_StopUICommandWrapper keeps a multi-word stop screen
// command, such as a terminal-emulator wrapper, intact.
func TestSaveLoad_StopUICommandWrapper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")

	want := Default()
	want.StopUICommand = []string{"x-terminal-emulator", "-e", "voice-alarm-stop"}

	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, want.StopUICommand, got.StopUICommand)
}

// TestValidate_RejectsShortSafetyMargin ensures margins below the floor fail.
func TestValidate_RejectsShortSafetyMargin(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.SafetyMargin = 500 * time.Millisecond
	require.Error(t, Validate(cfg))
}

// TestValidate_RejectsNegativeRepetitions ensures negative counts fail.
func TestValidate_RejectsNegativeRepetitions(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Repetitions = -1
	require.Error(t, Validate(cfg))
}

// TestSave_NilConfig returns an error instead of writing an empty file.
func TestSave_NilConfig(t *testing.T) {
	t.Parallel()

	err := Save(filepath.Join(t.TempDir(), "settings.yaml"), nil)
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(t.TempDir(), "settings.yaml"))
	require.Error(t, statErr)
}
