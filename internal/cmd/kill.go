package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"hexa/internal/ipc"
)

func newKillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kill <pane-uuid>",
		Short: "Kill a pane's shell process and forget it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKill(args[0])
		},
	}
}

func runKill(uuid string) error {
	client, err := dialExistingDaemon()
	if err != nil {
		return err
	}
	defer client.Close()

	resp, err := client.Call(&ipc.Request{Type: ipc.ReqKillPane, UUID: uuid})
	if err != nil {
		return fmt.Errorf("kill_pane: %w", err)
	}
	if resp.Type == ipc.RespError {
		return fmt.Errorf("kill_pane: %s", resp.Message)
	}
	return nil
}
