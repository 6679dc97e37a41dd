package command

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ianremillard/shellbridge/internal/pty"
	"github.com/ianremillard/shellbridge/internal/stream"
)

// Logger is the minimal logging surface the command package depends on.
type Logger interface {
	Printf(format string, args ...any)
}

// Dispatcher is the Command Interface: it owns the terminal registry and
// the stream manager and exposes one method per operation, plus a
// name+JSON entry point (Invoke) for transports that carry payloads as
// raw bytes rather than calling Go methods directly.
type Dispatcher struct {
	terminals *pty.Registry
	streams   *stream.Manager
	extraWSOrigins []string
	logger    Logger
}

// New constructs a Dispatcher over an already-wired terminal registry and
// stream manager.
func New(terminals *pty.Registry, streams *stream.Manager, extraWSOrigins []string, logger Logger) *Dispatcher {
	return &Dispatcher{terminals: terminals, streams: streams, extraWSOrigins: extraWSOrigins, logger: logger}
}

func (d *Dispatcher) SpawnTerminal(req SpawnTerminalRequest) (SpawnTerminalResponse, error) {
	id, err := d.terminals.Spawn(req.SessionID)
	if err != nil {
		return SpawnTerminalResponse{}, err
	}
	return SpawnTerminalResponse{SessionID: id}, nil
}

func (d *Dispatcher) WriteTerminal(req WriteTerminalRequest) error {
	return d.terminals.Write(req.SessionID, []byte(req.Data))
}

func (d *Dispatcher) ResizeTerminal(req ResizeTerminalRequest) error {
	return d.terminals.Resize(req.SessionID, req.Rows, req.Cols)
}

func (d *Dispatcher) KillTerminal(req KillTerminalRequest) error {
	return d.terminals.Kill(req.SessionID)
}

func (d *Dispatcher) ListTerminals() ListTerminalsResponse {
	infos := d.terminals.List()
	out := make([]TerminalSummary, 0, len(infos))
	for _, info := range infos {
		out = append(out, TerminalSummary{SessionID: info.SessionID, IsAlive: info.IsAlive})
	}
	return ListTerminalsResponse{Terminals: out}
}

func (d *Dispatcher) InjectCommand(req InjectCommandRequest) error {
	return d.terminals.Inject(req.SessionID, req.Command)
}

func (d *Dispatcher) InjectCommands(ctx context.Context, req InjectCommandsRequest) error {
	return d.terminals.InjectMany(ctx, req.SessionID, req.Commands)
}

func (d *Dispatcher) ListDisplays() (ListDisplaysResponse, error) {
	displays, err := d.streams.ListDisplays()
	if err != nil {
		return ListDisplaysResponse{}, err
	}
	return ListDisplaysResponse{Displays: displays}, nil
}

func (d *Dispatcher) StartLocalStream(req StartLocalStreamRequest) (StreamStatusResponse, error) {
	status, err := d.streams.Start(stream.Config{
		FPS:       req.FPS,
		Quality:   req.Quality,
		Port:      req.Port,
		DisplayID: req.DisplayID,
	}, d.extraWSOrigins)
	if err != nil {
		return StreamStatusResponse{}, err
	}
	return StreamStatusResponse{Status: status}, nil
}

func (d *Dispatcher) StopLocalStream() error {
	return d.streams.Stop()
}

func (d *Dispatcher) GetStreamStatus() StreamStatusResponse {
	return StreamStatusResponse{Status: d.streams.Status()}
}

// Shutdown tears down every owned subsystem. Called once on process exit.
func (d *Dispatcher) Shutdown(ctx context.Context) {
	d.terminals.Shutdown(ctx)
	_ = d.streams.Shutdown(ctx)
}

// Envelope is the flattened response shape every Invoke call returns: a
// successful call carries Data and an empty Error; a failed call carries
// an empty Data and a single-line, front-end-safe Error string. Go
// callers that want a typed error should call the method directly
// instead of going through Invoke.
type Envelope struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// Invoke dispatches by operation name, recovering from any panic in the
// underlying handler so a single bad request can never take down the
// host process. Names match the Command Interface operation names
// verbatim (spawn_terminal, write_terminal, ...).
func (d *Dispatcher) Invoke(ctx context.Context, name string, payload json.RawMessage) (env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			env = Envelope{Error: flatten(fmt.Errorf("internal error handling %s: %v", name, r))}
		}
	}()

	data, err := d.invoke(ctx, name, payload)
	if err != nil {
		return Envelope{Error: flatten(err)}
	}
	if data == nil {
		return Envelope{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{Error: flatten(err)}
	}
	return Envelope{Data: raw}
}

func (d *Dispatcher) invoke(ctx context.Context, name string, payload json.RawMessage) (any, error) {
	switch name {
	case "spawn_terminal":
		var req SpawnTerminalRequest
		if err := unmarshal(payload, &req); err != nil {
			return nil, err
		}
		return d.SpawnTerminal(req)

	case "write_terminal":
		var req WriteTerminalRequest
		if err := unmarshal(payload, &req); err != nil {
			return nil, err
		}
		return nil, d.WriteTerminal(req)

	case "resize_terminal":
		var req ResizeTerminalRequest
		if err := unmarshal(payload, &req); err != nil {
			return nil, err
		}
		return nil, d.ResizeTerminal(req)

	case "kill_terminal":
		var req KillTerminalRequest
		if err := unmarshal(payload, &req); err != nil {
			return nil, err
		}
		return nil, d.KillTerminal(req)

	case "list_terminals":
		return d.ListTerminals(), nil

	case "inject_command":
		var req InjectCommandRequest
		if err := unmarshal(payload, &req); err != nil {
			return nil, err
		}
		return nil, d.InjectCommand(req)

	case "inject_commands":
		var req InjectCommandsRequest
		if err := unmarshal(payload, &req); err != nil {
			return nil, err
		}
		return nil, d.InjectCommands(ctx, req)

	case "list_displays":
		return d.ListDisplays()

	case "start_local_stream":
		var req StartLocalStreamRequest
		if err := unmarshal(payload, &req); err != nil {
			return nil, err
		}
		return d.StartLocalStream(req)

	case "stop_local_stream":
		return nil, d.StopLocalStream()

	case "get_stream_status":
		return d.GetStreamStatus(), nil

	default:
		return nil, fmt.Errorf("unknown command %q", name)
	}
}

func unmarshal(payload json.RawMessage, dst any) error {
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// flatten renders err as the single-line string the front end receives.
// Structured error types (apperr) already produce a one-line Error(); this
// also guards against any accidental multi-line message reaching the
// wire.
func flatten(err error) string {
	return strings.ReplaceAll(err.Error(), "\n", " ")
}
