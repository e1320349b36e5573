package cmd

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/talehto/voice-alarm-app/internal/config"
	"github.com/talehto/voice-alarm-app/internal/control"
	"github.com/talehto/voice-alarm-app/internal/domain/alarm"
	"github.com/talehto/voice-alarm-app/internal/stopui"
	"github.com/talehto/voice-alarm-app/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// title and body shown on the stop screen.
	title string
	body  string

	// rootCmd represents the stop screen shown while an alarm rings.
	rootCmd = &cobra.Command{
		Use:   "voice-alarm-stop",
		Short: "Show the stop screen for a ringing alarm.",
		Long: `Shows a full-screen prompt for silencing the ringing alarm.

Pressing enter, space or s sends the stop command to the daemon. An
untouched screen closes itself after the configured timeout without
silencing anything; the alarm keeps ringing.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			client := control.NewClient(cfg.SocketPath)

			model := stopui.New(title, body, cfg.StopUITimeout, func(ctx context.Context) error {
				return client.Stop(ctx)
			})

			final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
			if err != nil {
				return err
			}

			if m, ok := final.(stopui.Model); ok {
				return m.StopError()
			}

			return nil
		},
	}
)

// Execute runs the voice-alarm-stop CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVar(&title, "title", alarm.DefaultTitle, "alarm title to display")
	rootCmd.Flags().StringVar(&body, "body", alarm.DefaultBody, "alarm body to display")
}
