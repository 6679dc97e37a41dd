package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ianremillard/shellbridge/internal/command"
)

func newSpawnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spawn [session-id]",
		Short: "Spawn a new PTY session, or return an existing one by id",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			var id string
			if len(args) == 1 {
				id = args[0]
			}
			var resp command.SpawnTerminalResponse
			mustInvoke("spawn_terminal", command.SpawnTerminalRequest{SessionID: id}, &resp)
			fmt.Println(resp.SessionID)
		},
	}
}

func newWriteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "write <session-id> <data>",
		Short: "Write raw bytes to a session's input",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			mustInvoke("write_terminal", command.WriteTerminalRequest{SessionID: args[0], Data: args[1]}, nil)
		},
	}
}

func newResizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resize <session-id> <rows> <cols>",
		Short: "Resize a session's PTY",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			rows, err := strconv.ParseUint(args[1], 10, 16)
			if err != nil {
				fatalf("invalid rows: %v", err)
			}
			cols, err := strconv.ParseUint(args[2], 10, 16)
			if err != nil {
				fatalf("invalid cols: %v", err)
			}
			mustInvoke("resize_terminal", command.ResizeTerminalRequest{
				SessionID: args[0],
				Rows:      uint16(rows),
				Cols:      uint16(cols),
			}, nil)
		},
	}
}

func newKillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kill <session-id>",
		Short: "Kill a session and its entire process tree",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			mustInvoke("kill_terminal", command.KillTerminalRequest{SessionID: args[0]}, nil)
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every live session",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			var resp command.ListTerminalsResponse
			mustInvoke("list_terminals", nil, &resp)
			for _, t := range resp.Terminals {
				fmt.Printf("%s\talive=%v\n", t.SessionID, t.IsAlive)
			}
		},
	}
}

func newInjectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inject <session-id> <command>",
		Short: "Inject a single command followed by a newline",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			mustInvoke("inject_command", command.InjectCommandRequest{SessionID: args[0], Command: args[1]}, nil)
		},
	}
}

func newInjectManyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inject-many <session-id> <command>...",
		Short: "Inject several commands in order, paced 100ms apart",
		Args:  cobra.MinimumNArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			mustInvoke("inject_commands", command.InjectCommandsRequest{SessionID: args[0], Commands: args[1:]}, nil)
		},
	}
}
