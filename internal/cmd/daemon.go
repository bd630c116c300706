package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"hexa/internal/daemon"
)

// newDaemonCmd builds the hidden _daemon subcommand the frontend re-execs
// into (Client.spawnDaemon), per the teacher's cmd/h2/main.go _daemon
// entry point: the process that ends up here is already detached (stdio
// redirected to /dev/null, its own session) by the caller that forked it.
func newDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "_daemon",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon()
		},
	}
}

func runDaemon() error {
	srv, err := daemon.Listen()
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer srv.Close()
	srv.Serve()
	return nil
}
