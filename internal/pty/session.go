package pty

import (
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"

	"github.com/ianremillard/shellbridge/internal/apperr"
)

// Session is a single pseudo-terminal: the master handle, a mutex-guarded
// writer so concurrent writes never interleave mid-command, the child
// process, and the reader goroutine draining its output.
type Session struct {
	id  string
	ptm *os.File
	cmd *exec.Cmd
	pid int

	writeMu sync.Mutex

	// waitOnce guarantees cmd.Wait() is called exactly once no matter which
	// of the reader goroutine (natural EOF) or terminateTree (explicit kill)
	// notices the child exit first; the other blocks on it until reaped.
	waitOnce sync.Once

	// readerDone is closed once the reader goroutine has observed EOF (or an
	// error) and the child has been reaped.
	readerDone chan struct{}
}

// reap calls cmd.Wait() exactly once, regardless of how many goroutines
// call reap concurrently; all of them return only once the process has
// been waited on.
func (s *Session) reap(logger Logger) {
	s.waitOnce.Do(func() {
		if err := s.cmd.Wait(); err != nil {
			logger.Printf("pty %s: wait: %v", s.id, err)
		}
	})
}

// spawnSession opens a PTY pair at 24x80, starts the shell named by $SHELL
// (default /bin/bash) attached to its slave side, and starts the reader
// goroutine that fans output out through sink.
func spawnSession(id string, sink EventSink, logger Logger) (*Session, error) {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/bash"
	}

	cmd := exec.Command(shell)
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	if home := os.Getenv("HOME"); home != "" {
		cmd.Dir = home
	}

	ptm, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: 24, Cols: 80})
	if err != nil {
		return nil, apperr.Platform("failed to start shell in a pseudo-terminal", false, err)
	}

	s := &Session{
		id:         id,
		ptm:        ptm,
		cmd:        cmd,
		pid:        cmd.Process.Pid,
		readerDone: make(chan struct{}),
	}

	go s.readLoop(sink, logger)

	return s, nil
}

// Write appends data to the PTY's input side. The write mutex guarantees
// that two concurrent writers never interleave their bytes mid-command.
func (s *Session) Write(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.ptm.Write(data)
	return err
}

// Resize applies a new terminal size to the PTY master.
func (s *Session) Resize(rows, cols uint16) error {
	return pty.Setsize(s.ptm, &pty.Winsize{Rows: rows, Cols: cols})
}

// Inject writes command followed by a newline, as if a user had typed it
// and pressed Enter.
func (s *Session) Inject(command string) error {
	return s.Write([]byte(command + "\n"))
}

// Pid returns the child shell's process id.
func (s *Session) Pid() int {
	return s.pid
}

// Alive reports whether the process is still running, probed with signal 0
// rather than trusting only in-memory bookkeeping, so a session whose
// process died before the reader goroutine observed EOF is still reported
// correctly by ListTerminals.
func (s *Session) Alive() bool {
	select {
	case <-s.readerDone:
		return false
	default:
	}
	return processAlive(s.pid)
}

func (s *Session) String() string {
	return fmt.Sprintf("pty.Session{id=%s pid=%d}", s.id, s.pid)
}

// Logger is the minimal logging surface this package depends on, satisfied
// by *log.Logger.
type Logger interface {
	Printf(format string, args ...any)
}
