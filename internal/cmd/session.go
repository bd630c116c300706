package cmd

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"hexa/internal/config"
	"hexa/internal/frontend"
	"hexa/internal/statusbar"
)

// runNewSession connects to (spawning if needed) the daemon, opens a fresh
// pane running the user's shell, and drives the frontend event loop until
// the session ends. Grounded on the teacher's doAttach (raw-mode set/
// restore around the proxy loop), adapted from h2's goroutine-pair stdin/
// daemon proxy to this repo's single poll-driven App.Run.
func runNewSession() error {
	client, err := frontend.Connect()
	if err != nil {
		return fmt.Errorf("connect to daemon: %w", err)
	}
	defer client.Close()

	if _, err := client.Call(registerRequest(client)); err != nil {
		return fmt.Errorf("register: %w", err)
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

	shell := cfg.Prefs.Shell
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	cwd, _ := os.Getwd()
	if err := app.OpenFirstPane(shell, cwd); err != nil {
		return fmt.Errorf("open first pane: %w", err)
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

func newStatusBarRenderer(app *frontend.App) func(width int) string {
	bar := statusbar.New(termenvProfile())
	return func(width int) string {
		bar.Modules = []statusbar.Module{
			{Content: fmt.Sprintf(" hexa | tab %d/%d ", app.ActiveTab+1, len(app.Tabs)), Align: statusbar.AlignLeft, Style: statusbar.Style{Invert: true}},
		}
		return bar.Render(width)
	}
}
