package ipc

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net"
	"os"

	"github.com/ianremillard/shellbridge/internal/command"
	"github.com/ianremillard/shellbridge/internal/events"
)

// Logger is the minimal logging surface the ipc package depends on.
type Logger interface {
	Printf(format string, args ...any)
}

// OutputTopic and CloseTopic name the events.Bus topics the host publishes
// a PTY session's output and closure under, so Server can subscribe a
// single attach connection to exactly one session's traffic.
func OutputTopic(sessionID string) string { return "pty-output-" + sessionID }
func CloseTopic(sessionID string) string  { return "pty-close-" + sessionID }

// Server accepts connections on a Unix domain socket and dispatches each
// one's requests through a command.Dispatcher, handling attach as a
// streaming upgrade backed by bus.
type Server struct {
	dispatcher *command.Dispatcher
	bus        *events.Bus
	logger     Logger
}

// New constructs a Server over an already-wired Dispatcher and Bus.
func New(dispatcher *command.Dispatcher, bus *events.Bus, logger Logger) *Server {
	return &Server{dispatcher: dispatcher, bus: bus, logger: logger}
}

// Run listens on socketPath until ctx is cancelled, removing any stale
// socket file first.
func (s *Server) Run(ctx context.Context, socketPath string) error {
	os.Remove(socketPath)

	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	s.logger.Printf("ipc: listening on %s", socketPath)

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), 1<<20)
	if !scanner.Scan() {
		return
	}

	var req Request
	if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
		respond(conn, Response{OK: false, Error: "bad request: " + err.Error()})
		return
	}

	switch req.Type {
	case ReqCommand:
		s.handleCommand(ctx, conn, req)
	case ReqAttach:
		s.handleAttach(ctx, conn, req)
	default:
		respond(conn, Response{OK: false, Error: "unknown request type: " + req.Type})
	}
}

func (s *Server) handleCommand(ctx context.Context, conn net.Conn, req Request) {
	env := s.dispatcher.Invoke(ctx, req.Name, req.Payload)
	respond(conn, Response{OK: env.Error == "", Data: env.Data, Error: env.Error})
}

// handleAttach subscribes the connection to one session's output topic and
// relays it unframed, while a reader goroutine decodes client frames into
// WriteTerminal/ResizeTerminal/detach calls against the dispatcher until
// the client detaches or the session closes.
func (s *Server) handleAttach(ctx context.Context, conn net.Conn, req Request) {
	if req.SessionID == "" {
		respond(conn, Response{OK: false, Error: "session_id required"})
		return
	}

	_, evCh := s.bus.Subscribe(OutputTopic(req.SessionID), CloseTopic(req.SessionID))
	respond(conn, Response{OK: true})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			frameType, payload, err := ReadFrame(conn)
			if err != nil {
				return
			}
			switch frameType {
			case AttachFrameData:
				s.dispatcher.Invoke(ctx, "write_terminal", mustPayload(req.SessionID, payload))
			case AttachFrameResize:
				if len(payload) != 4 {
					continue
				}
				cols := binary.BigEndian.Uint16(payload[0:2])
				rows := binary.BigEndian.Uint16(payload[2:4])
				s.dispatcher.Invoke(ctx, "resize_terminal", resizePayload(req.SessionID, rows, cols))
			case AttachFrameDetach:
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case ev, ok := <-evCh:
			if !ok {
				return
			}
			if ev.Topic == CloseTopic(req.SessionID) {
				return
			}
			if data, ok := ev.Payload.(string); ok {
				if _, err := conn.Write([]byte(data)); err != nil {
					return
				}
			}
		}
	}
}

func respond(conn net.Conn, r Response) {
	data, _ := json.Marshal(r)
	data = append(data, '\n')
	conn.Write(data)
}

func mustPayload(sessionID string, data []byte) json.RawMessage {
	raw, _ := json.Marshal(struct {
		SessionID string `json:"session_id"`
		Data      string `json:"data"`
	}{SessionID: sessionID, Data: string(data)})
	return raw
}

func resizePayload(sessionID string, rows, cols uint16) json.RawMessage {
	raw, _ := json.Marshal(struct {
		SessionID string `json:"session_id"`
		Rows      uint16 `json:"rows"`
		Cols      uint16 `json:"cols"`
	}{SessionID: sessionID, Rows: rows, Cols: cols})
	return raw
}
