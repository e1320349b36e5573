package control

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/talehto/voice-alarm-app/internal/domain/alarm"
)

// DefaultCallTimeout bounds one request-response exchange.
const DefaultCallTimeout = 5 * time.Second

// ErrDaemonUnavailable wraps connection failures to the control socket.
var ErrDaemonUnavailable = errors.New("alarm daemon unavailable")

// Client issues control requests over the unix socket. Each call dials
// a fresh connection; the daemon answers one line per request.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// ClientOption customizes the client.
type ClientOption func(*Client)

// WithCallTimeout overrides the per-call timeout.
func WithCallTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// NewClient creates a control client for the given socket path.
func NewClient(socketPath string, opts ...ClientOption) *Client {
	c := &Client{socketPath: socketPath, timeout: DefaultCallTimeout}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Ping checks that the daemon is answering.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.call(ctx, TypePing, nil)

	return err
}

// Stop silences the ringing alarm, if any.
func (c *Client) Stop(ctx context.Context) error {
	_, err := c.call(ctx, TypeStop, nil)

	return err
}

// Schedule stores and arms the alarm, returning its id.
func (c *Client) Schedule(ctx context.Context, a *alarm.Alarm) (int64, error) {
	data, err := c.call(ctx, TypeSchedule, ScheduleRequest{Alarm: ToWire(a)})
	if err != nil {
		return 0, err
	}

	var resp ScheduleResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, fmt.Errorf("decode schedule response: %w", err)
	}

	return resp.ID, nil
}

// SetEnabled flips one alarm's enabled flag.
func (c *Client) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	_, err := c.call(ctx, TypeSetEnabled, SetEnabledRequest{ID: id, Enabled: enabled})

	return err
}

// Delete removes one alarm.
func (c *Client) Delete(ctx context.Context, id int64) error {
	_, err := c.call(ctx, TypeDelete, DeleteRequest{ID: id})

	return err
}

// List returns every stored alarm.
func (c *Client) List(ctx context.Context) ([]*alarm.Alarm, error) {
	data, err := c.call(ctx, TypeList, nil)
	if err != nil {
		return nil, err
	}

	var resp ListResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode list response: %w", err)
	}

	out := make([]*alarm.Alarm, 0, len(resp.Alarms))

	for _, w := range resp.Alarms {
		a, err := w.ToDomain()
		if err != nil {
			return nil, err
		}

		out = append(out, a)
	}

	return out, nil
}

// call performs one request-response exchange.
func (c *Client) call(ctx context.Context, typeName string, payload interface{}) (json.RawMessage, error) {
	request, err := Encode(typeName, payload)
	if err != nil {
		return nil, err
	}

	dialer := net.Dialer{Timeout: c.timeout}

	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDaemonUnavailable, err)
	}

	defer func() {
		_ = conn.Close()
	}()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	_ = conn.SetDeadline(deadline)

	if _, err := conn.Write(append(request, '\n')); err != nil {
		return nil, fmt.Errorf("send %s request: %w", typeName, err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", typeName, err)
	}

	var msg Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", typeName, err)
	}

	switch msg.Type {
	case TypeOK:
		return msg.Data, nil
	case TypeError:
		var resp ErrorResponse
		if err := json.Unmarshal(msg.Data, &resp); err != nil {
			return nil, fmt.Errorf("decode error response: %w", err)
		}

		return nil, errors.New(resp.Error)
	default:
		return nil, fmt.Errorf("unexpected response type %q", msg.Type)
	}
}
