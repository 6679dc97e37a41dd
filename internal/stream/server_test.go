package stream

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testServerPort = 19321

func dial(t *testing.T, port int, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	url := fmt.Sprintf("ws://127.0.0.1:%d/", port)
	return websocket.DefaultDialer.Dial(url, header)
}

func TestOriginAllowlistRejectsUnknownOrigin(t *testing.T) {
	var clients atomic.Int32
	broadcaster := newFrameBroadcaster()
	srv, err := newWSServer(testServerPort, nil, broadcaster, &clients, capTestLogger())
	require.NoError(t, err)
	defer srv.shutdown()

	conn, resp, err := dial(t, testServerPort, "http://evil.example")
	assert.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}
	if conn != nil {
		conn.Close()
	}

	assert.Equal(t, int32(0), clients.Load())
}

func TestOriginAllowlistAcceptsKnownOrigin(t *testing.T) {
	var clients atomic.Int32
	broadcaster := newFrameBroadcaster()
	srv, err := newWSServer(testServerPort+1, nil, broadcaster, &clients, capTestLogger())
	require.NoError(t, err)
	defer srv.shutdown()

	conn, _, err := dial(t, testServerPort+1, "tauri://localhost")
	require.NoError(t, err)
	defer conn.Close()

	assertEventually(t, func() bool { return clients.Load() == 1 })
}

func TestOriginAllowlistAcceptsExtraOrigin(t *testing.T) {
	var clients atomic.Int32
	broadcaster := newFrameBroadcaster()
	srv, err := newWSServer(testServerPort+2, []string{"http://localhost:3000"}, broadcaster, &clients, capTestLogger())
	require.NoError(t, err)
	defer srv.shutdown()

	conn, _, err := dial(t, testServerPort+2, "http://localhost:3000")
	require.NoError(t, err)
	defer conn.Close()

	assertEventually(t, func() bool { return clients.Load() == 1 })
}

func TestClientDisconnectDecrementsCounter(t *testing.T) {
	var clients atomic.Int32
	broadcaster := newFrameBroadcaster()
	srv, err := newWSServer(testServerPort+3, nil, broadcaster, &clients, capTestLogger())
	require.NoError(t, err)
	defer srv.shutdown()

	conn, _, err := dial(t, testServerPort+3, "tauri://localhost")
	require.NoError(t, err)

	assertEventually(t, func() bool { return clients.Load() == 1 })

	conn.Close()

	assertEventually(t, func() bool { return clients.Load() == 0 })
}

func TestShutdownClosesConnectedClients(t *testing.T) {
	var clients atomic.Int32
	broadcaster := newFrameBroadcaster()
	srv, err := newWSServer(testServerPort+4, nil, broadcaster, &clients, capTestLogger())
	require.NoError(t, err)

	conn, _, err := dial(t, testServerPort+4, "tauri://localhost")
	require.NoError(t, err)
	defer conn.Close()

	assertEventually(t, func() bool { return clients.Load() == 1 })

	srv.shutdown()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, readErr := conn.ReadMessage()
	assert.Error(t, readErr)

	assertEventually(t, func() bool { return clients.Load() == 0 })
}

func TestServeClientExitsOnDone(t *testing.T) {
	var clients atomic.Int32
	broadcaster := newFrameBroadcaster()
	srv, err := newWSServer(testServerPort+5, nil, broadcaster, &clients, capTestLogger())
	require.NoError(t, err)

	conn, _, err := dial(t, testServerPort+5, "tauri://localhost")
	require.NoError(t, err)
	defer conn.Close()

	assertEventually(t, func() bool { return clients.Load() == 1 })

	done := make(chan struct{})
	go func() {
		srv.shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("shutdown did not complete, per-client task likely blocked on <-changed forever")
	}
}

func assertEventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.Fail(t, "condition not met within timeout")
}
