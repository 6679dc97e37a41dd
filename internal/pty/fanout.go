package pty

import (
	"strings"
	"time"
)

const readBufSize = 8 * 1024

// readLoop is the Output Fan-out component: it owns the blocking read of
// the PTY master and turns each chunk into a pair of events (raw text for
// terminal renderers, a structured record for automated consumers), in the
// order the bytes were read. It runs until the child closes its output or
// the sink reports the front end is gone.
func (s *Session) readLoop(sink EventSink, logger Logger) {
	defer close(s.readerDone)

	buf := make([]byte, readBufSize)
	for {
		n, err := s.ptm.Read(buf)
		if n > 0 {
			text := strings.ToValidUTF8(string(buf[:n]), "�")

			sink.EmitStructured(StructuredOutputEvent{
				SessionID: s.id,
				Data:      text,
				Timestamp: time.Now(),
			})

			if emitErr := sink.EmitOutput(s.id, text); emitErr != nil {
				logger.Printf("pty %s: output emit failed, stopping reader: %v", s.id, emitErr)
				break
			}
		}
		if err != nil {
			if !isExpectedReadError(err) {
				logger.Printf("pty %s: read error: %v", s.id, err)
			}
			break
		}
	}

	s.reap(logger)
	s.ptm.Close()
	sink.EmitClose(s.id)
}
