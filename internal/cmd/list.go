package cmd

import (
	"fmt"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"hexa/internal/ipc"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "status"},
		Short:   "List connected clients and detached sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList()
		},
	}
}

func runList() error {
	client, err := dialExistingDaemon()
	if err != nil {
		fmt.Println("No daemon running.")
		return nil
	}
	defer client.Close()

	resp, err := client.Call(&ipc.Request{Type: ipc.ReqStatus, Full: true})
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	if resp.Type == ipc.RespError {
		return fmt.Errorf("status: %s", resp.Message)
	}
	printStatus(resp.Status)
	return nil
}

func printStatus(status *ipc.StatusInfo) {
	bold := func(s string) string { return termenv.String(s).Bold().String() }
	dim := func(s string) string { return termenv.String(s).Faint().String() }

	if status == nil || (len(status.Clients) == 0 && len(status.Sessions) == 0) {
		fmt.Println("No attached clients or detached sessions.")
		return
	}

	if len(status.Clients) > 0 {
		fmt.Println(bold("Attached"))
		for _, c := range status.Clients {
			name := c.SessionName
			if name == "" {
				name = dim("(unnamed)")
			}
			fmt.Printf("  %s %s panes\n", name, dim(fmt.Sprintf("%d", len(c.Panes))))
		}
	}

	if len(status.Sessions) > 0 {
		if len(status.Clients) > 0 {
			fmt.Println()
		}
		fmt.Println(bold("Detached"))
		for _, s := range status.Sessions {
			name := s.Name
			if name == "" {
				name = s.SessionID
			}
			fmt.Printf("  %s %s %s panes\n", name, dim(s.SessionID), dim(fmt.Sprintf("%d", len(s.PaneUUIDs))))
		}
	}
}
