package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"hexa/internal/ipc"
)

func newNotifyCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "notify <message>",
		Short: "Send a notification to one pane/session or broadcast to all",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotify(strings.Join(args, " "), target)
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "pane or session uuid to target; broadcasts to every client if omitted")
	return cmd
}

func runNotify(message, target string) error {
	client, err := dialExistingDaemon()
	if err != nil {
		return err
	}
	defer client.Close()

	req := &ipc.Request{Type: ipc.ReqBroadcastNotif, Message: message}
	if target != "" {
		req = &ipc.Request{Type: ipc.ReqTargetedNotif, Message: message, UUID: target}
	}

	resp, err := client.Call(req)
	if err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	if resp.Type == ipc.RespError {
		return fmt.Errorf("notify: %s", resp.Message)
	}
	return nil
}
