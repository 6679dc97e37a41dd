// Package pty implements the PTY Session Registry, PTY Session, Process-Tree
// Terminator, and Output Fan-out components: multiplexed interactive shell
// sessions whose entire process tree is guaranteed torn down on kill or on
// application exit.
package pty

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ianremillard/shellbridge/internal/apperr"
)

// TerminalInfo is a presentation snapshot of one registry entry.
type TerminalInfo struct {
	SessionID string `json:"session_id"`
	IsAlive   bool   `json:"is_alive"`
}

// Registry owns every live PTY session, keyed by session id, behind a
// single mutex. Mutations that touch a session's input side take that
// session's own writer lock; the locking order is always registry then
// writer, never the reverse.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	sink     EventSink
	logger   Logger
}

// NewRegistry constructs an empty Registry. sink receives every output
// event; logger receives best-effort diagnostics.
func NewRegistry(sink EventSink, logger Logger) *Registry {
	if sink == nil {
		sink = NopSink{}
	}
	return &Registry{
		sessions: make(map[string]*Session),
		sink:     sink,
		logger:   logger,
	}
}

// Spawn creates a new session under id, or, if id already names a live
// session, returns it unchanged — spawning is idempotent so that multiple
// UI views sharing an id never race to create duplicate shells.
func (r *Registry) Spawn(id string) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}

	r.mu.Lock()
	if _, exists := r.sessions[id]; exists {
		r.mu.Unlock()
		return id, nil
	}
	r.mu.Unlock()

	sess, err := spawnSession(id, r.sink, r.logger)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	// Re-check: another goroutine may have spawned id while we were opening
	// the PTY above. The loser's session is torn down immediately so we
	// never leak an extra shell.
	if existing, exists := r.sessions[id]; exists {
		r.mu.Unlock()
		terminateTree(sess, r.logger)
		return existing.id, nil
	}
	r.sessions[id] = sess
	r.mu.Unlock()

	return id, nil
}

// Write appends bytes to a session's input side and flushes before
// returning.
func (r *Registry) Write(id string, data []byte) error {
	sess, err := r.lookup(id)
	if err != nil {
		return err
	}
	return sess.Write(data)
}

// Resize applies a new terminal size to a session's PTY.
func (r *Registry) Resize(id string, rows, cols uint16) error {
	sess, err := r.lookup(id)
	if err != nil {
		return err
	}
	return sess.Resize(rows, cols)
}

// Inject writes command followed by a newline.
func (r *Registry) Inject(id, command string) error {
	sess, err := r.lookup(id)
	if err != nil {
		return err
	}
	return sess.Inject(command)
}

// InjectMany writes each command in order, pausing 100ms between commands
// (but not after the last) so the shell has time to begin executing each
// before the next arrives.
func (r *Registry) InjectMany(ctx context.Context, id string, commands []string) error {
	sess, err := r.lookup(id)
	if err != nil {
		return err
	}
	for i, command := range commands {
		if err := sess.Inject(command); err != nil {
			return err
		}
		if i < len(commands)-1 {
			select {
			case <-time.After(100 * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

// Kill removes id from the registry and terminates its entire process
// tree. Removal happens before termination so a write or resize racing the
// kill observes not-found rather than reaching a session whose terminator
// has already fired.
func (r *Registry) Kill(id string) error {
	r.mu.Lock()
	sess, exists := r.sessions[id]
	if exists {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !exists {
		return apperr.NotFound("session %q", id)
	}

	terminateTree(sess, r.logger)
	return nil
}

// List returns every live session id with its liveness flag.
func (r *Registry) List() []TerminalInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]TerminalInfo, 0, len(r.sessions))
	for id, sess := range r.sessions {
		infos = append(infos, TerminalInfo{SessionID: id, IsAlive: sess.Alive()})
	}
	return infos
}

// Shutdown extracts and terminates every live session synchronously, so
// that no child process outlives the owning application. It is intended
// to run once, on application exit, before the process itself exits.
func (r *Registry) Shutdown(_ context.Context) {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for id, sess := range r.sessions {
		sessions = append(sessions, sess)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, sess := range sessions {
		terminateTree(sess, r.logger)
	}
}

func (r *Registry) lookup(id string) (*Session, error) {
	r.mu.Lock()
	sess, exists := r.sessions[id]
	r.mu.Unlock()
	if !exists {
		return nil, apperr.NotFound("session %q", id)
	}
	return sess, nil
}
