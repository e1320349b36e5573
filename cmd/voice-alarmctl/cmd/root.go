package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/talehto/voice-alarm-app/internal/config"
	"github.com/talehto/voice-alarm-app/internal/control"
	"github.com/talehto/voice-alarm-app/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// rootCmd represents the base command for managing alarms.
	rootCmd = &cobra.Command{
		Use:   "voice-alarmctl",
		Short: "Manage voice alarms through the running daemon.",
		Long: `Manages the alarms of a running voice-alarmd: add, list, enable,
disable and delete alarms, and silence the one currently ringing.

All commands talk to the daemon's control socket; the daemon must be
running.`,
	}
)

// Execute runs the voice-alarmctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newClient builds a control client from the configured socket path.
func newClient() (*control.Client, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	return control.NewClient(cfg.SocketPath), nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")

	rootCmd.AddCommand(addCmd, listCmd, enableCmd, disableCmd, deleteCmd, stopCmd, pingCmd)
}
