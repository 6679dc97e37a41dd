package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ianremillard/shellbridge/internal/ipc"
)

func newAttachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach <session-id>",
		Short: "Attach the local terminal to a session (detach: Ctrl-])",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runAttach(args[0])
		},
	}
}

// runAttach puts the local terminal in raw mode and relays it to sessionID
// over the attach streaming protocol until the server closes the
// connection or the user presses Ctrl-].
func runAttach(sessionID string) {
	conn, err := net.Dial("unix", socketPath())
	if err != nil {
		fatalf("cannot connect to shellbridged: %v", err)
	}

	req := ipc.Request{Type: ipc.ReqAttach, SessionID: sessionID}
	if err := writeJSONLine(conn, req); err != nil {
		fatalf("%v", err)
	}

	resp, err := readJSONLine(conn)
	if err != nil || !resp.OK {
		msg := "attach failed"
		if err != nil {
			msg = err.Error()
		} else if resp.Error != "" {
			msg = resp.Error
		}
		conn.Close()
		fatalf("%s", msg)
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		conn.Close()
		fatalf("cannot set raw mode: %v", err)
	}
	defer term.Restore(fd, oldState)

	fmt.Fprintf(os.Stdout, "\r\n[shellbridgectl] attached to %s  (detach: Ctrl-])\r\n", sessionID)

	done := make(chan struct{}, 1)
	signalDone := func() {
		select {
		case done <- struct{}{}:
		default:
		}
	}

	go func() {
		io.Copy(os.Stdout, conn)
		signalDone()
	}()

	go func() {
		buf := make([]byte, 256)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				for i := 0; i < n; i++ {
					if buf[i] == 0x1D {
						ipc.WriteFrame(conn, ipc.AttachFrameDetach, nil)
						signalDone()
						return
					}
				}
				ipc.WriteFrame(conn, ipc.AttachFrameData, buf[:n])
			}
			if err != nil {
				signalDone()
				return
			}
		}
	}()

	winchCh := make(chan os.Signal, 1)
	signal.Notify(winchCh, syscall.SIGWINCH)
	sendSize := func() {
		if cols, rows, err := term.GetSize(fd); err == nil {
			payload := make([]byte, 4)
			binary.BigEndian.PutUint16(payload[0:2], uint16(cols))
			binary.BigEndian.PutUint16(payload[2:4], uint16(rows))
			ipc.WriteFrame(conn, ipc.AttachFrameResize, payload)
		}
	}
	go func() {
		for range winchCh {
			sendSize()
		}
	}()
	sendSize()

	<-done
	signal.Stop(winchCh)
	conn.Close()

	fmt.Fprintf(os.Stdout, "\n[shellbridgectl] detached from %s\n", sessionID)
}
