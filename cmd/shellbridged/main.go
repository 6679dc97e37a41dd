// shellbridged is the headless host process: it owns the PTY registry and
// the stream manager and exposes them over a Unix domain socket so a CLI
// (or, in the real desktop application, an in-process webview bridge) can
// drive every terminal and streaming operation.
//
// Usage:
//
//	shellbridged [--root <dir>]
//
// shellbridged listens on <root>/shellbridged.sock.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ianremillard/shellbridge/internal/command"
	"github.com/ianremillard/shellbridge/internal/config"
	"github.com/ianremillard/shellbridge/internal/events"
	"github.com/ianremillard/shellbridge/internal/ipc"
	"github.com/ianremillard/shellbridge/internal/pty"
	"github.com/ianremillard/shellbridge/internal/stream"
)

// busSink bridges a PTY session's output events onto the shared
// events.Bus, the role a Tauri/Wails event emitter plays for a real
// front end. EmitOutput's error return is how a reader loop learns
// there's nobody left listening and should stop forwarding.
type busSink struct {
	bus *events.Bus
}

func (s busSink) EmitOutput(sessionID, data string) error {
	err := s.bus.Publish(ipc.OutputTopic(sessionID), data)
	if err == events.ErrClosed {
		return err
	}
	return nil
}

func (s busSink) EmitClose(sessionID string) {
	_ = s.bus.Publish(ipc.CloseTopic(sessionID), nil)
}

func (s busSink) EmitStructured(ev pty.StructuredOutputEvent) {
	_ = s.bus.Publish("terminal-output-captured", ev)
}

func main() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("cannot determine home directory: %v", err)
	}
	defaultRoot := filepath.Join(homeDir, ".shellbridge")
	if env := os.Getenv("SHELLBRIDGE_ROOT"); env != "" {
		defaultRoot = env
	}

	rootDir := flag.String("root", defaultRoot, "shellbridge data directory (env: SHELLBRIDGE_ROOT)")
	configPath := flag.String("config", "", "path to shellbridge.yaml (defaults to <root>/shellbridge.yaml)")
	flag.Parse()

	if err := os.MkdirAll(*rootDir, 0o755); err != nil {
		log.Fatalf("create root dir: %v", err)
	}

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = filepath.Join(*rootDir, "shellbridge.yaml")
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := log.New(os.Stderr, "shellbridged: ", log.LstdFlags)

	bus := events.NewBus()
	defer bus.Close()

	registry := pty.NewRegistry(busSink{bus: bus}, logger)
	manager := stream.NewManager(nil, logger)
	dispatcher := command.New(registry, manager, cfg.Stream.ExtraOrigins, logger)
	server := ipc.New(dispatcher, bus, logger)

	socketPath := filepath.Join(*rootDir, "shellbridged.sock")

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("received %v, shutting down", sig)
		cancel()
	}()

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		dispatcher.Shutdown(shutdownCtx)
		os.Remove(socketPath)
	}()

	if err := server.Run(ctx, socketPath); err != nil {
		logger.Fatalf("ipc server: %v", err)
	}
	<-shutdownDone
}
