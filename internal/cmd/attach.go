package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"hexa/internal/config"
	"hexa/internal/frontend"
	"hexa/internal/ipc"
)

func newAttachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach <session-ref>",
		Short: "Reattach to a detached session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReattach(args[0])
		},
	}
}

// runReattach implements spec.md §4.2/§7 test case 3's reattach sequence:
// register, reattach (which returns the pane-id list and stored mux-state
// blob but no fds), then one adopt_pane per id to pull each fd.
func runReattach(ref string) error {
	client, err := frontend.Connect()
	if err != nil {
		return fmt.Errorf("connect to daemon: %w", err)
	}
	defer client.Close()

	if _, err := client.Call(registerRequest(client)); err != nil {
		return fmt.Errorf("register: %w", err)
	}

	resp, err := client.Call(&ipc.Request{Type: ipc.ReqReattach, SessionRef: ref})
	if err != nil {
		return fmt.Errorf("reattach: %w", err)
	}
	if resp.Type == ipc.RespError {
		return fmt.Errorf("reattach %q: %s", ref, resp.Message)
	}

	stdinFd := int(os.Stdin.Fd())
	cols, rows, err := term.GetSize(stdinFd)
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	app := frontend.NewApp(client, rows, cols)
	app.Keymap = cfg.Keymap
	app.RenderStatusBar = newStatusBarRenderer(app)

	if err := app.AdoptReattachedPanes(resp.Panes, resp.MuxState); err != nil {
		return fmt.Errorf("adopt reattached panes: %w", err)
	}

	oldState, err := term.MakeRaw(stdinFd)
	if err != nil {
		return fmt.Errorf("set raw mode: %w", err)
	}
	defer func() {
		os.Stdout.WriteString("\033[?1000l\033[?1006l")
		term.Restore(stdinFd, oldState)
		os.Stdout.WriteString("\033[?25h\033[0m\r\n")
	}()

	return app.Run(stdinFd)
}
