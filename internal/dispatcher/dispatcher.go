package dispatcher

import (
	"context"
	"encoding/json"

	"github.com/talehto/voice-alarm-app/internal/logger"
)

// Starter receives the decoded alarm id. The call must not block; the
// announcement service queues the start command internally.
type Starter interface {
	Announce(id int64)
}

// Dispatcher reacts to elapsed wake-ups.
type Dispatcher struct {
	// starter is the announcement service to hand fired ids to.
	starter Starter
}

// New creates a dispatcher handing fired alarms to starter.
func New(starter Starter) *Dispatcher {
	return &Dispatcher{starter: starter}
}

// OnFire decodes the wake-up payload and starts the announcement. A
// payload that does not decode to a positive alarm id is logged and
// dropped: a malformed wake-up must never take the process down.
func (d *Dispatcher) OnFire(payload []byte) {
	ctx := logger.WithName(context.Background(), "dispatcher")

	var decoded struct {
		AlarmID int64 `json:"alarm_id"`
	}

	if err := json.Unmarshal(payload, &decoded); err != nil {
		logger.WarnKV(ctx, "Malformed wake-up payload dropped", "error", err)

		return
	}

	if decoded.AlarmID <= 0 {
		logger.WarnKV(ctx, "Wake-up payload without alarm id dropped", "payload", string(payload))

		return
	}

	logger.InfoKV(ctx, "Alarm fired", "alarm_id", decoded.AlarmID)
	d.starter.Announce(decoded.AlarmID)
}
