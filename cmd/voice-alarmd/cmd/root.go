package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/talehto/voice-alarm-app/internal/config"
	"github.com/talehto/voice-alarm-app/internal/daemon"
	"github.com/talehto/voice-alarm-app/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel overrides the configured log level.
	logLevel string

	// rootCmd represents the base command for running the alarm daemon.
	rootCmd = &cobra.Command{
		Use:   "voice-alarmd",
		Short: "Run the voice alarm daemon.",
		Long: `Starts the voice alarm daemon that arms wake-up timers for stored
alarms and announces them with synthesized speech when they fire.

Alarms are kept in a SQLite database and managed through the control
socket with voice-alarmctl. A ringing alarm is silenced from the stop
screen, the notification action or "voice-alarmctl stop".`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &daemon.Options{
				ConfigPath: configPath,
				LogLevel:   logLevel,
			}

			return daemon.Run(ctx, options)
		},
	}
)

// Execute runs the voice-alarmd CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "log level override (debug..fatal)")
}
