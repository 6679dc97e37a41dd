package stream

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ianremillard/shellbridge/internal/apperr"
)

// Logger is the minimal logging surface the stream package depends on,
// satisfied by *log.Logger.
type Logger interface {
	Printf(format string, args ...any)
}

// Manager owns the single active Stream Session: validating requests,
// starting and stopping the capture pipeline and WebSocket server
// together, and reporting status. Only one stream may be active at a
// time; Start on an already-active Manager is a conflict, not a restart.
type Manager struct {
	mu       sync.Mutex
	capturer Capturer
	logger   Logger

	active  *session
	clients atomic.Int32
}

type session struct {
	cfg         Config
	display     DisplayInfo
	broadcaster *frameBroadcaster
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	srv         *wsServer
}

// NewManager constructs a Manager. A nil capturer defaults to the
// kbinani/screenshot-backed implementation.
func NewManager(capturer Capturer, logger Logger) *Manager {
	if capturer == nil {
		capturer = newScreenshotCapturer()
	}
	return &Manager{capturer: capturer, logger: logger}
}

// ListDisplays enumerates capture targets.
func (m *Manager) ListDisplays() ([]DisplayInfo, error) {
	return m.capturer.Displays()
}

// validate applies the field-level bounds spec.md assigns to stream
// configuration, returning a ValidationError naming the offending field.
func validate(cfg Config) error {
	if cfg.FPS < 1 || cfg.FPS > 30 {
		return apperr.Validation("fps", "fps must be between 1 and 30, got %d", cfg.FPS)
	}
	if cfg.Quality < 1 || cfg.Quality > 100 {
		return apperr.Validation("quality", "quality must be between 1 and 100, got %d", cfg.Quality)
	}
	if cfg.Port < 9100 || cfg.Port > 9199 {
		return apperr.Validation("port", "port must be between 9100 and 9199, got %d", cfg.Port)
	}
	return nil
}

// Start validates cfg, selects a capture target, and brings up the
// capture pipeline and WebSocket server. It fails with a ConflictError if
// a stream is already active.
func (m *Manager) Start(cfg Config, extraOrigins []string) (Status, error) {
	if err := validate(cfg); err != nil {
		return Status{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return Status{}, apperr.Conflict("a stream is already active on port %d", m.active.cfg.Port)
	}

	targets, err := m.capturer.Displays()
	if err != nil {
		return Status{}, apperr.Platform("failed to enumerate displays", false, err)
	}
	if len(targets) == 0 {
		return Status{}, apperr.Platform("no capture-eligible displays are available", false, nil)
	}
	display := selectTarget(targets, cfg.DisplayID, m.logger)

	// Verify capture permission/availability before committing to a
	// listening socket: a failed first frame here means the user needs
	// to grant screen-recording permission, not that the port is bad.
	if _, _, _, err := m.capturer.CaptureBGRA(display); err != nil {
		return Status{}, apperr.Platform("screen capture is not permitted or not available", true, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	broadcaster := newFrameBroadcaster()

	sess := &session{
		cfg:         cfg,
		display:     display,
		broadcaster: broadcaster,
		cancel:      cancel,
	}

	// Reset before the server can possibly accept its first connection;
	// newWSServer's accept goroutine is live before it returns, so
	// resetting afterwards could race a client's increment back to zero.
	m.clients.Store(0)

	srv, err := newWSServer(cfg.Port, extraOrigins, broadcaster, &m.clients, m.logger)
	if err != nil {
		cancel()
		return Status{}, apperr.Platform("failed to start the local stream server", false, err)
	}
	sess.srv = srv

	sess.wg.Add(1)
	go func() {
		defer sess.wg.Done()
		runCapture(ctx, m.capturer, display, cfg.FPS, broadcaster, m.logger)
	}()

	m.active = sess
	return m.statusLocked(), nil
}

// Stop tears down the active stream, if any, in the order capture-cancel,
// server-shutdown, goroutine-join. Stopping when nothing is active is a
// no-op, matching the idempotent shutdown style the rest of this module
// uses.
func (m *Manager) Stop() error {
	m.mu.Lock()
	sess := m.active
	m.active = nil
	m.mu.Unlock()

	if sess == nil {
		return nil
	}

	sess.cancel()
	sess.srv.shutdown()
	sess.wg.Wait()
	return nil
}

// Status reports whether a stream is active and, if so, its parameters
// and current client count.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked()
}

func (m *Manager) statusLocked() Status {
	if m.active == nil {
		return Status{Active: false}
	}
	return Status{
		Active:    true,
		Port:      m.active.cfg.Port,
		FPS:       m.active.cfg.FPS,
		Quality:   m.active.cfg.Quality,
		Clients:   m.clients.Load(),
		DisplayID: m.active.display.ID,
	}
}

// Shutdown stops any active stream. It exists so the host binary can
// sweep this manager alongside the terminal registry on process exit.
func (m *Manager) Shutdown(_ context.Context) error {
	return m.Stop()
}
