package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/talehto/voice-alarm-app/internal/config"
	"github.com/talehto/voice-alarm-app/internal/control"
	"github.com/talehto/voice-alarm-app/internal/domain/alarm"
	"github.com/talehto/voice-alarm-app/internal/repository/alarms"
)

var (
	addTitle    string
	addBody     string
	addLanguage string
	addAt       string
	addWeekdays string
	addTime     string
	addDisabled bool

	// addCmd stores a new alarm in the daemon.
	addCmd = &cobra.Command{
		Use:   "add",
		Short: "Add an alarm.",
		Long: `Adds an alarm and arms it immediately.

A single alarm takes an absolute instant:
  voice-alarmctl add --at "2026-09-01T07:30:00+03:00" --title "Dentist"

A weekly alarm takes weekdays and a time of day:
  voice-alarmctl add --weekdays mon,tue,wed,thu,fri --time 07:30 --body "Time to get up"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildAlarm()
			if err != nil {
				return err
			}

			client, err := newClient()
			if err != nil {
				return err
			}

			id, err := client.Schedule(cmd.Context(), a)
			if err != nil {
				return err
			}

			cmd.Printf("Alarm %d added\n", id)

			return nil
		},
	}

	// listCmd prints every stored alarm. When the daemon is down the
	// list is read straight from the database instead.
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List alarms.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			list, err := control.NewClient(cfg.SocketPath).List(cmd.Context())
			if errors.Is(err, control.ErrDaemonUnavailable) {
				list, err = listFromStore(cmd.Context(), cfg.DatabasePath)
			}

			if err != nil {
				return err
			}

			if len(list) == 0 {
				cmd.Println("No alarms")

				return nil
			}

			for _, a := range list {
				cmd.Println(formatAlarm(a))
			}

			return nil
		},
	}

	enableCmd  = newToggleCommand("enable", true)
	disableCmd = newToggleCommand("disable", false)

	// deleteCmd removes one alarm.
	deleteCmd = &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an alarm.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			client, err := newClient()
			if err != nil {
				return err
			}

			if err := client.Delete(cmd.Context(), id); err != nil {
				return err
			}

			cmd.Printf("Alarm %d deleted\n", id)

			return nil
		},
	}

	// stopCmd silences the ringing alarm.
	stopCmd = &cobra.Command{
		Use:   "stop",
		Short: "Silence the ringing alarm.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			return client.Stop(cmd.Context())
		},
	}

	// pingCmd checks that the daemon is answering.
	pingCmd = &cobra.Command{
		Use:   "ping",
		Short: "Check that the daemon is running.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			if err := client.Ping(cmd.Context()); err != nil {
				return err
			}

			cmd.Println("Daemon is running")

			return nil
		},
	}
)

// newToggleCommand builds the enable/disable pair.
func newToggleCommand(use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: strings.ToUpper(use[:1]) + use[1:] + " an alarm.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			client, err := newClient()
			if err != nil {
				return err
			}

			if err := client.SetEnabled(cmd.Context(), id, enabled); err != nil {
				return err
			}

			cmd.Printf("Alarm %d %sd\n", id, use)

			return nil
		},
	}
}

// buildAlarm assembles the alarm from the add command's flags.
func buildAlarm() (*alarm.Alarm, error) {
	a := &alarm.Alarm{
		Title:    addTitle,
		Body:     addBody,
		Language: addLanguage,
		Enabled:  !addDisabled,
	}

	switch {
	case addAt != "" && (addWeekdays != "" || addTime != ""):
		return nil, fmt.Errorf("--at and --weekdays/--time are mutually exclusive")

	case addAt != "":
		at, err := time.Parse(time.RFC3339, addAt)
		if err != nil {
			return nil, fmt.Errorf("parse --at: %w", err)
		}

		a.Kind = alarm.KindSingle
		a.SingleAt = at.UnixMilli()

	case addWeekdays != "" && addTime != "":
		mask, err := parseWeekdays(addWeekdays)
		if err != nil {
			return nil, err
		}

		hour, minute, err := parseTimeOfDay(addTime)
		if err != nil {
			return nil, err
		}

		a.Kind = alarm.KindWeekly
		a.WeeklyMask = mask
		a.WeeklyHour = hour
		a.WeeklyMinute = minute

	default:
		return nil, fmt.Errorf("either --at or both --weekdays and --time are required")
	}

	return a, nil
}

// weekdayNames maps flag tokens to weekdays.
var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// parseWeekdays turns "mon,tue,fri" into a weekday mask.
func parseWeekdays(csv string) (alarm.WeekdayMask, error) {
	var mask alarm.WeekdayMask

	for _, token := range strings.Split(csv, ",") {
		token = strings.ToLower(strings.TrimSpace(token))

		day, ok := weekdayNames[token]
		if !ok {
			return 0, fmt.Errorf("unknown weekday %q", token)
		}

		mask = mask.With(day)
	}

	return mask, nil
}

// parseTimeOfDay parses "HH:MM".
func parseTimeOfDay(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("time of day must be HH:MM, got %q", s)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}

	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}

	return hour, minute, nil
}

// listFromStore reads the alarm list straight from the database, the
// read-only fallback for a stopped daemon.
func listFromStore(ctx context.Context, databasePath string) ([]*alarm.Alarm, error) {
	store, err := alarms.Open(ctx, databasePath)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = store.Close()
	}()

	return store.ListAll(ctx)
}

// parseID parses a positive alarm id argument.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid alarm id %q", s)
	}

	return id, nil
}

// formatAlarm renders one list line.
func formatAlarm(a *alarm.Alarm) string {
	status := "enabled"
	if !a.Enabled {
		status = "disabled"
	}

	var trigger string

	switch a.Kind {
	case alarm.KindSingle:
		trigger = time.UnixMilli(a.SingleAt).Local().Format(time.RFC3339)
	case alarm.KindWeekly:
		var days []string

		for day := time.Sunday; day <= time.Saturday; day++ {
			if a.WeeklyMask.Has(day) {
				days = append(days, strings.ToLower(day.String()[:3]))
			}
		}

		trigger = fmt.Sprintf("%s at %02d:%02d", strings.Join(days, ","), a.WeeklyHour, a.WeeklyMinute)
	}

	return fmt.Sprintf("%4d  %-8s  %-8s  %s  %q", a.ID, a.Kind, status, trigger, a.DisplayTitle())
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	addCmd.Flags().StringVar(&addTitle, "title", "", "alarm title")
	addCmd.Flags().StringVar(&addBody, "body", "", "alarm body, also the spoken text")
	addCmd.Flags().StringVar(&addLanguage, "lang", "", "BCP-47 speech locale, daemon default when empty")
	addCmd.Flags().StringVar(&addAt, "at", "", "absolute trigger instant (RFC 3339), single alarm")
	addCmd.Flags().StringVar(&addWeekdays, "weekdays", "", "comma-separated weekdays (mon,tue,...), weekly alarm")
	addCmd.Flags().StringVar(&addTime, "time", "", "time of day (HH:MM), weekly alarm")
	addCmd.Flags().BoolVar(&addDisabled, "disabled", false, "store the alarm without arming it")
}
