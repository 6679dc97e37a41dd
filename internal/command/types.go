// Package command implements the Command Interface: the single boundary
// the front end calls through, covering every PTY and stream operation.
// Each operation has a typed request/response pair; Dispatcher additionally
// exposes a name+JSON entry point for transports (like the Unix-socket IPC
// server) that carry payloads as raw bytes.
package command

import "github.com/ianremillard/shellbridge/internal/stream"

// SpawnTerminalRequest requests a new or existing PTY session. SessionID
// may be empty, in which case the registry mints one.
type SpawnTerminalRequest struct {
	SessionID string `json:"session_id"`
}

type SpawnTerminalResponse struct {
	SessionID string `json:"session_id"`
}

type WriteTerminalRequest struct {
	SessionID string `json:"session_id"`
	Data      string `json:"data"`
}

type ResizeTerminalRequest struct {
	SessionID string `json:"session_id"`
	Rows      uint16 `json:"rows"`
	Cols      uint16 `json:"cols"`
}

type KillTerminalRequest struct {
	SessionID string `json:"session_id"`
}

type ListTerminalsResponse struct {
	Terminals []TerminalSummary `json:"terminals"`
}

type TerminalSummary struct {
	SessionID string `json:"session_id"`
	IsAlive   bool   `json:"is_alive"`
}

type InjectCommandRequest struct {
	SessionID string `json:"session_id"`
	Command   string `json:"command"`
}

type InjectCommandsRequest struct {
	SessionID string   `json:"session_id"`
	Commands  []string `json:"commands"`
}

type ListDisplaysResponse struct {
	Displays []stream.DisplayInfo `json:"displays"`
}

type StartLocalStreamRequest struct {
	FPS       int     `json:"fps"`
	Quality   int     `json:"quality"`
	Port      int     `json:"port"`
	DisplayID *uint32 `json:"display_id,omitempty"`
}

type StreamStatusResponse struct {
	stream.Status
}
