package stream

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// allowedOrigins is the fixed set of front-end origins the local stream
// socket accepts connections from, mirroring the Tauri/Wails webview's
// possible origin strings across platforms.
var allowedOrigins = []string{
	"tauri://localhost",
	"https://tauri.localhost",
	"http://localhost:1420",
}

// noDelayListener wraps a net.Listener so every accepted connection has
// TCP_NODELAY set: frame delivery is latency-sensitive and Nagle's
// algorithm works against the small, frequent writes this server makes.
type noDelayListener struct {
	net.Listener
}

func (l noDelayListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
	}
	return conn, nil
}

// wsServer is the WebSocket server half of a Stream Session: it accepts
// origin-checked upgrades and pushes the broadcaster's latest frame to
// every connected client. http.Server.Shutdown does not know about
// connections that have been hijacked by a websocket upgrade, so wsServer
// tracks them itself and closes each one explicitly on shutdown.
type wsServer struct {
	httpSrv *http.Server
	logger  Logger

	done chan struct{}

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newWSServer(port int, extraOrigins []string, broadcaster *frameBroadcaster, clients *atomic.Int32, logger Logger) (*wsServer, error) {
	origins := make(map[string]bool, len(allowedOrigins)+len(extraOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	for _, o := range extraOrigins {
		origins[o] = true
	}

	s := &wsServer{
		logger: logger,
		done:   make(chan struct{}),
		conns:  make(map[*websocket.Conn]struct{}),
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origins[origin] {
				return true
			}
			logger.Printf("stream: rejected websocket handshake from origin %q", origin)
			return false
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// gorilla has already written the 403/400 response and, on a
			// rejected origin, CheckOrigin already logged the warning above.
			return
		}

		s.addConn(conn)
		clients.Add(1)
		defer func() {
			clients.Add(-1)
			s.removeConn(conn)
		}()

		serveClient(conn, broadcaster, s.done, logger)
	})

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("listen on port %d: %w", port, err)
	}

	s.httpSrv = &http.Server{Handler: mux}
	go func() {
		if err := s.httpSrv.Serve(noDelayListener{ln}); err != nil && err != http.ErrServerClosed {
			logger.Printf("stream: server error: %v", err)
		}
	}()

	return s, nil
}

func (s *wsServer) addConn(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *wsServer) removeConn(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

// shutdown stops accepting new connections and forces every still-open
// client connection closed, so serveClient's select loop (unblocked by
// close(s.done)) and its reader goroutine both return promptly instead of
// leaking a goroutine and a socket per connected client.
func (s *wsServer) shutdown() {
	close(s.done)

	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for conn := range s.conns {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.logger.Printf("stream: graceful shutdown failed: %v", err)
	}
}

// serveClient pushes every new frame to conn until the connection breaks,
// a control/close message arrives, or done is closed because the server
// is shutting down. It never reads application data from the client
// beyond what's needed to detect disconnects.
func serveClient(conn *websocket.Conn, broadcaster *frameBroadcaster, done <-chan struct{}, logger Logger) {
	defer conn.Close()

	// Drain client-originated messages on their own goroutine so reads
	// (which detect close/ping/pong and client disconnects) don't block
	// the frame-push loop below.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	frame, changed := broadcaster.snapshot()
	if frame != nil {
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			return
		}
	}

	for {
		select {
		case <-done:
			return
		case <-closed:
			return
		case <-changed:
			frame, changed = broadcaster.snapshot()
			if frame == nil {
				continue
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}
		}
	}
}
