package platform

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"sync"

	"github.com/talehto/voice-alarm-app/internal/logger"
)

// stopActionKey is the action id notify-send reports when the user
// picks the stop button on the notification.
const stopActionKey = "stop"

// Notifier shows the ringing-alarm notification. Show returns a close
// function that withdraws the notification; both the call and the close
// are best effort, an alarm keeps announcing without a notification.
type Notifier interface {
	Show(ctx context.Context, title, body string) (close func(), err error)
}

// NotifySendNotifier posts desktop notifications through notify-send
// with a stop action attached. When the user activates the action the
// configured callback runs, which the daemon wires to the stop command.
type NotifySendNotifier struct {
	onStop func()
}

// NewNotifySendNotifier creates a notifier that invokes onStop when the
// user picks the notification's stop action.
func NewNotifySendNotifier(onStop func()) *NotifySendNotifier {
	return &NotifySendNotifier{onStop: onStop}
}

// Show posts the notification and waits for the action in the
// background. The returned close dismisses it.
func (n *NotifySendNotifier) Show(ctx context.Context, title, body string) (func(), error) {
	waitCtx, cancel := context.WithCancel(context.Background())

	cmd := exec.CommandContext(waitCtx,
		"notify-send",
		"--app-name=voice-alarm",
		"--urgency=critical",
		"--wait",
		"--action="+stopActionKey+"=Stop",
		title, body,
	)

	var out bytes.Buffer

	cmd.Stdout = &out

	if err := cmd.Start(); err != nil {
		cancel()

		return nil, err
	}

	logger.DebugKV(ctx, "Alarm notification shown", "title", title)

	// notify-send --wait blocks until the notification is acted on or
	// dismissed, printing the chosen action id.
	go func() {
		_ = cmd.Wait()

		if strings.TrimSpace(out.String()) == stopActionKey && n.onStop != nil {
			logger.Info(ctx, "Stop requested from notification action")
			n.onStop()
		}
	}()

	var once sync.Once

	closeFn := func() {
		once.Do(cancel)
	}

	return closeFn, nil
}
