// Package cmd builds the hexa frontend's cobra command tree: running a
// session bare attaches a fresh one, while attach/list/kill/notify give
// scriptable access to a running daemon without going through the
// interactive event loop.
//
// Grounded on the teacher's internal/cmd/root.go (cobra.Command tree built
// in NewRootCmd, subcommands defined in sibling files) and cmd/h2/main.go's
// thin main wrapper.
package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root cobra command with all subcommands.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hexa",
		Short: "Terminal multiplexer",
		Long:  "hexa is a terminal multiplexer: a session daemon owns PTYs across frontend attach/detach cycles, and this binary is the frontend that renders them.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNewSession()
		},
	}

	rootCmd.AddCommand(
		newAttachCmd(),
		newListCmd(),
		newKillCmd(),
		newNotifyCmd(),
		newDaemonCmd(),
	)

	return rootCmd
}
