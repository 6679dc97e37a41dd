//go:build !unix

package pty

import (
	"errors"
	"io"
)

// terminateTree on non-POSIX platforms has no process-group concept
// available through the standard library, so it kills the child directly
// and waits on it.
func terminateTree(s *Session, logger Logger) {
	if s.cmd.Process != nil {
		if err := s.cmd.Process.Kill(); err != nil {
			logger.Printf("terminate: kill: %v", err)
		}
	}
	s.reap(logger)
}

func processAlive(pid int) bool {
	return pid > 0
}

func isExpectedReadError(err error) bool {
	return errors.Is(err, io.EOF)
}
