package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/ianremillard/shellbridge/internal/ipc"
)

// invoke dials the daemon socket, sends a single "command" request, and
// returns the flattened envelope. Each call opens and closes its own
// connection, matching the daemon protocol's one-request-per-connection
// model for non-attach requests.
func invoke(name string, payload any) (ipc.Response, error) {
	conn, err := net.Dial("unix", socketPath())
	if err != nil {
		return ipc.Response{}, fmt.Errorf("cannot connect to shellbridged: %w", err)
	}
	defer conn.Close()

	var raw []byte
	if payload != nil {
		raw, err = json.Marshal(payload)
		if err != nil {
			return ipc.Response{}, err
		}
	}

	req := ipc.Request{Type: ipc.ReqCommand, Name: name, Payload: raw}
	if err := writeJSONLine(conn, req); err != nil {
		return ipc.Response{}, err
	}
	return readJSONLine(conn)
}

// writeJSONLine marshals v as a single newline-terminated JSON object, the
// framing every non-streaming request and response uses.
func writeJSONLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// readJSONLine reads one newline-terminated JSON response.
func readJSONLine(r io.Reader) (ipc.Response, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 4096), 1<<20)
	if !scanner.Scan() {
		return ipc.Response{}, fmt.Errorf("no response from shellbridged")
	}
	var resp ipc.Response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return ipc.Response{}, err
	}
	return resp, nil
}

// mustInvoke calls invoke and decodes resp.Data into out (if non-nil),
// printing a daemon- or transport-level error and exiting on failure.
func mustInvoke(name string, payload any, out any) {
	resp, err := invoke(name, payload)
	if err != nil {
		fatalf("%v", err)
	}
	if !resp.OK {
		fatalf("%s", resp.Error)
	}
	if out != nil && len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, out); err != nil {
			fatalf("decode response: %v", err)
		}
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "shellbridgectl: "+format+"\n", args...)
	os.Exit(1)
}
