package control

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/talehto/voice-alarm-app/internal/domain/alarm"
	"github.com/talehto/voice-alarm-app/internal/logger"
)

// Handler is the daemon surface the control server exposes.
type Handler interface {
	// StopAnnouncement silences the ringing alarm, if any.
	StopAnnouncement(ctx context.Context)
	// Upsert stores the alarm (insert when ID is zero) and arms it.
	Upsert(ctx context.Context, a *alarm.Alarm) (int64, error)
	// SetEnabled flips one alarm and re-arms or disarms it.
	SetEnabled(ctx context.Context, id int64, enabled bool) error
	// Delete removes one alarm and disarms it.
	Delete(ctx context.Context, id int64) error
	// List returns every stored alarm.
	List(ctx context.Context) ([]*alarm.Alarm, error)
}

// Server accepts control connections on a unix socket.
type Server struct {
	socketPath string
	handler    Handler
}

// NewServer creates a control server for the given socket path.
func NewServer(socketPath string, handler Handler) *Server {
	return &Server{socketPath: socketPath, handler: handler}
}

// Run listens until the context is cancelled. The socket file is
// removed on the way in (stale from a crash) and on the way out.
func (s *Server) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "control")

	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale control socket: %w", err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen on control socket: %w", err)
	}

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	defer func() {
		_ = os.Remove(s.socketPath)
	}()

	logger.InfoKV(ctx, "Control socket listening", "path", s.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			logger.WarnKV(ctx, "Accepting control connection failed", "error", err)

			continue
		}

		go s.serveConn(ctx, conn)
	}
}

// serveConn handles one connection: one request envelope per line, one
// response envelope per line.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	scanner := bufio.NewScanner(conn)
	writer := bufio.NewWriter(conn)

	for scanner.Scan() {
		response := s.dispatch(ctx, scanner.Bytes())

		out, err := json.Marshal(response)
		if err != nil {
			logger.ErrorKV(ctx, "Encoding control response failed", "error", err)

			return
		}

		out = append(out, '\n')

		if _, err := writer.Write(out); err != nil {
			logger.WarnKV(ctx, "Writing control response failed", "error", err)

			return
		}

		if err := writer.Flush(); err != nil {
			return
		}
	}
}

// dispatch decodes one envelope and runs the matching handler call.
func (s *Server) dispatch(ctx context.Context, line []byte) Message {
	var msg Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return errorMessage(fmt.Errorf("malformed request: %w", err))
	}

	logger.DebugKV(ctx, "Control request", "type", msg.Type)

	switch msg.Type {
	case TypePing:
		return okMessage(nil)

	case TypeStop:
		s.handler.StopAnnouncement(ctx)

		return okMessage(nil)

	case TypeSchedule:
		return s.handleSchedule(ctx, msg.Data)

	case TypeSetEnabled:
		var req SetEnabledRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			return errorMessage(err)
		}

		if err := s.handler.SetEnabled(ctx, req.ID, req.Enabled); err != nil {
			return errorMessage(err)
		}

		return okMessage(nil)

	case TypeDelete:
		var req DeleteRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			return errorMessage(err)
		}

		if err := s.handler.Delete(ctx, req.ID); err != nil {
			return errorMessage(err)
		}

		return okMessage(nil)

	case TypeList:
		list, err := s.handler.List(ctx)
		if err != nil {
			return errorMessage(err)
		}

		wire := make([]WireAlarm, 0, len(list))
		for _, a := range list {
			wire = append(wire, ToWire(a))
		}

		return okMessage(ListResponse{Alarms: wire})

	default:
		return errorMessage(fmt.Errorf("unknown request type %q", msg.Type))
	}
}

func (s *Server) handleSchedule(ctx context.Context, data json.RawMessage) Message {
	var req ScheduleRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return errorMessage(err)
	}

	a, err := req.Alarm.ToDomain()
	if err != nil {
		return errorMessage(err)
	}

	id, err := s.handler.Upsert(ctx, a)
	if err != nil {
		return errorMessage(err)
	}

	return okMessage(ScheduleResponse{ID: id})
}

func okMessage(payload interface{}) Message {
	data, _ := json.Marshal(payload)
	if payload == nil {
		data = nil
	}

	return Message{Type: TypeOK, Data: data}
}

func errorMessage(err error) Message {
	data, _ := json.Marshal(ErrorResponse{Error: err.Error()})

	return Message{Type: TypeError, Data: data}
}
