//go:build unix

package pty

import (
	"errors"
	"io"
	"syscall"
	"time"
)

// terminateTree is the Process-Tree Terminator. Because a PTY-spawned shell
// is a session leader (pid == pgid), signalling the process group reaches
// every descendant — editors, long-running agents — that the shell itself
// would otherwise leave orphaned. Every step is best-effort: termination
// must always make progress to the final Wait, so errors are logged and
// swallowed rather than returned.
func terminateTree(s *Session, logger Logger) {
	pid := s.pid
	if pid <= 0 {
		if s.cmd.Process != nil {
			if err := s.cmd.Process.Kill(); err != nil {
				logger.Printf("terminate: kill fallback: %v", err)
			}
		}
		s.reap(logger)
		return
	}

	pgid, err := syscall.Getpgid(pid)
	if err != nil {
		pgid = pid
	}

	if err := syscall.Kill(-pgid, syscall.SIGHUP); err != nil {
		logger.Printf("terminate: SIGHUP to pgid %d: %v", pgid, err)
	}

	time.Sleep(100 * time.Millisecond)

	if err := syscall.Kill(-pgid, syscall.SIGKILL); err != nil {
		logger.Printf("terminate: SIGKILL to pgid %d: %v", pgid, err)
	}

	s.reap(logger)
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return syscall.Kill(pid, 0) == nil
}

func isExpectedReadError(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EIO
	}
	return false
}
