package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ianremillard/shellbridge/internal/command"
)

func newDisplaysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "displays",
		Short: "List capture-eligible displays",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			var resp command.ListDisplaysResponse
			mustInvoke("list_displays", nil, &resp)
			for _, d := range resp.Displays {
				fmt.Printf("%d\t%s\tprimary=%v\n", d.ID, d.Title, d.IsPrimary)
			}
		},
	}
}

func newStreamCmd() *cobra.Command {
	stream := &cobra.Command{
		Use:   "stream",
		Short: "Control the local screen-capture stream",
	}
	stream.AddCommand(newStreamStartCmd(), newStreamStopCmd(), newStreamStatusCmd())
	return stream
}

func newStreamStartCmd() *cobra.Command {
	var fps, quality, port int
	var displayID string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the local stream server",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			req := command.StartLocalStreamRequest{FPS: fps, Quality: quality, Port: port}
			if displayID != "" {
				id, err := strconv.ParseUint(displayID, 10, 32)
				if err != nil {
					fatalf("invalid display id: %v", err)
				}
				id32 := uint32(id)
				req.DisplayID = &id32
			}
			var resp command.StreamStatusResponse
			mustInvoke("start_local_stream", req, &resp)
			printStatus(resp)
		},
	}
	cmd.Flags().IntVar(&fps, "fps", 10, "frames per second")
	cmd.Flags().IntVar(&quality, "quality", 80, "advisory quality hint")
	cmd.Flags().IntVar(&port, "port", 9100, "local port to listen on")
	cmd.Flags().StringVar(&displayID, "display", "", "display id to capture (defaults to the primary display)")
	return cmd
}

func newStreamStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the active local stream, if any",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			mustInvoke("stop_local_stream", nil, nil)
		},
	}
}

func newStreamStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report the active stream's status",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			var resp command.StreamStatusResponse
			mustInvoke("get_stream_status", nil, &resp)
			printStatus(resp)
		},
	}
}

func printStatus(resp command.StreamStatusResponse) {
	if !resp.Active {
		fmt.Println("inactive")
		return
	}
	fmt.Printf("active port=%d fps=%d quality=%d clients=%d display=%d\n",
		resp.Port, resp.FPS, resp.Quality, resp.Clients, resp.DisplayID)
}
