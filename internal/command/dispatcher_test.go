package command

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ianremillard/shellbridge/internal/pty"
	"github.com/ianremillard/shellbridge/internal/stream"
)

func testLogger() Logger {
	return log.New(os.Stderr, "command-test: ", 0)
}

type fakeCapturer struct{ width, height int }

func (f fakeCapturer) Displays() ([]stream.DisplayInfo, error) {
	return []stream.DisplayInfo{{ID: 0, Title: "fake", IsPrimary: true}}, nil
}

func (f fakeCapturer) CaptureBGRA(stream.DisplayInfo) (int, int, []byte, error) {
	return f.width, f.height, make([]byte, f.width*f.height*4), nil
}

func newTestDispatcher() *Dispatcher {
	registry := pty.NewRegistry(nil, testLogger())
	manager := stream.NewManager(fakeCapturer{width: 4, height: 4}, testLogger())
	return New(registry, manager, nil, testLogger())
}

func TestInvokeSpawnAndListTerminals(t *testing.T) {
	d := newTestDispatcher()
	defer d.Shutdown(context.Background())

	env := d.Invoke(context.Background(), "spawn_terminal", mustJSON(t, SpawnTerminalRequest{}))
	require.Empty(t, env.Error)

	var spawned SpawnTerminalResponse
	require.NoError(t, json.Unmarshal(env.Data, &spawned))
	assert.NotEmpty(t, spawned.SessionID)

	env = d.Invoke(context.Background(), "list_terminals", nil)
	require.Empty(t, env.Error)

	var listed ListTerminalsResponse
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed.Terminals, 1)
	assert.Equal(t, spawned.SessionID, listed.Terminals[0].SessionID)

	env = d.Invoke(context.Background(), "kill_terminal", mustJSON(t, KillTerminalRequest{SessionID: spawned.SessionID}))
	assert.Empty(t, env.Error)
}

func TestInvokeUnknownCommand(t *testing.T) {
	d := newTestDispatcher()
	env := d.Invoke(context.Background(), "not_a_real_command", nil)
	assert.NotEmpty(t, env.Error)
}

func TestInvokeFlattensNotFoundError(t *testing.T) {
	d := newTestDispatcher()
	env := d.Invoke(context.Background(), "write_terminal", mustJSON(t, WriteTerminalRequest{SessionID: "ghost", Data: "x"}))
	assert.NotEmpty(t, env.Error)
	assert.NotContains(t, env.Error, "\n")
}

func TestInvokeStreamLifecycle(t *testing.T) {
	d := newTestDispatcher()
	defer d.Shutdown(context.Background())

	env := d.Invoke(context.Background(), "start_local_stream", mustJSON(t, StartLocalStreamRequest{FPS: 10, Quality: 80, Port: 9130}))
	require.Empty(t, env.Error)

	var status StreamStatusResponse
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.True(t, status.Active)

	env = d.Invoke(context.Background(), "get_stream_status", nil)
	require.Empty(t, env.Error)
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.True(t, status.Active)

	env = d.Invoke(context.Background(), "stop_local_stream", nil)
	assert.Empty(t, env.Error)
}

func TestInvokeBadPayloadReturnsError(t *testing.T) {
	d := newTestDispatcher()
	env := d.Invoke(context.Background(), "write_terminal", json.RawMessage(`{not valid json`))
	assert.NotEmpty(t, env.Error)
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}
