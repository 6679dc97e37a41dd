// Package ipc exposes command.Dispatcher over a Unix domain socket so a
// CLI exerciser can drive the same backend a desktop webview would call
// in-process. Ordinary commands are newline-delimited JSON request/response
// pairs; attach is special and switches the connection into a streaming
// mode once the handshake completes.
package ipc

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ReqCommand carries a Dispatcher.Invoke operation name and its JSON
// payload. ReqAttach upgrades the connection to the streaming protocol
// below for SessionID's output.
const (
	ReqCommand = "command"
	ReqAttach  = "attach"
)

// Request is the single JSON object every exchange opens with; for attach
// it is the handshake that precedes the streaming mode.
type Request struct {
	Type      string `json:"type"`
	Name      string `json:"name,omitempty"`
	Payload   []byte `json:"payload,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// Response wraps a command.Envelope with the transport-level ok flag the
// teacher's daemon protocol also uses.
type Response struct {
	OK    bool   `json:"ok"`
	Data  []byte `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// Attach stream framing: after the JSON handshake, output flows from
// server to client unframed (raw PTY bytes), while client to server input
// is length-prefixed so data, resize and detach can share one connection.
//
//	[1 byte type][4 bytes big-endian length][payload]
const (
	AttachFrameData   byte = 0x00
	AttachFrameResize byte = 0x01
	AttachFrameDetach byte = 0x02
)

// WriteFrame writes one framed attach message to w.
func WriteFrame(w io.Writer, frameType byte, payload []byte) error {
	hdr := make([]byte, 5)
	hdr[0] = frameType
	binary.BigEndian.PutUint32(hdr[1:], uint32(len(payload)))
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	if len(payload) > 0 {
		_, err := w.Write(payload)
		return err
	}
	return nil
}

// ReadFrame reads one framed attach message from r.
func ReadFrame(r io.Reader) (byte, []byte, error) {
	hdr := make([]byte, 5)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return 0, nil, err
	}
	frameType := hdr[0]
	n := binary.BigEndian.Uint32(hdr[1:])
	if n > 1<<20 {
		return 0, nil, fmt.Errorf("attach frame too large: %d bytes", n)
	}
	if n == 0 {
		return frameType, nil, nil
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, err
	}
	return frameType, payload, nil
}
