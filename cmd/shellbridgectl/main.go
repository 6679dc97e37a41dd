// shellbridgectl is a Command Interface exerciser: a CLI that dials
// shellbridged's Unix socket and issues the same operations a desktop
// front end would call in-process, useful for manual testing and
// scripted smoke checks of the backend alone.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func rootDir() string {
	if env := os.Getenv("SHELLBRIDGE_ROOT"); env != "" {
		return env
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".shellbridge"
	}
	return filepath.Join(homeDir, ".shellbridge")
}

func socketPath() string {
	return filepath.Join(rootDir(), "shellbridged.sock")
}

func main() {
	root := &cobra.Command{
		Use:   "shellbridgectl",
		Short: "Exercise the shellbridge backend over its Unix socket",
	}

	root.AddCommand(
		newSpawnCmd(),
		newWriteCmd(),
		newResizeCmd(),
		newKillCmd(),
		newListCmd(),
		newInjectCmd(),
		newInjectManyCmd(),
		newAttachCmd(),
		newDisplaysCmd(),
		newStreamCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
