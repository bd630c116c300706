// Command hexad is the session daemon's own CLI surface, distinct from
// the `hexa _daemon` subcommand the frontend auto-spawns on first
// attach: this binary is meant to be run (or daemonized) directly by a
// user or init system, per spec.md §6's "CLI surface (daemon)".
//
// Grounded on the teacher's ForkDaemon (re-exec with Setsid, redirected
// stdio, poll for the socket file) for --daemon's backgrounding, and
// cmd/h2/main.go's thin flag-driven entrypoint shape.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/pflag"

	"hexa/internal/daemon"
	"hexa/internal/frontend"
	"hexa/internal/ipc"
	"hexa/internal/socketpath"
)

// hexadChildEnv signals a re-exec'd hexad process that it is already the
// backgrounded child and should run the server loop directly, rather than
// forking again.
const hexadChildEnv = "HEXAD_DAEMON_CHILD=1"

func main() {
	var (
		daemonFlag bool
		listFlag   bool
		notifyMsg  string
	)

	flags := pflag.NewFlagSet("hexad", pflag.ContinueOnError)
	flags.BoolVarP(&daemonFlag, "daemon", "d", false, "fork into the background and run the session daemon")
	flags.BoolVarP(&listFlag, "list", "l", false, "connect to a running daemon and print status")
	flags.StringVarP(&notifyMsg, "notify", "n", "", "broadcast a notification to every attached client")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: hexad [--daemon|-d] [--list|-l] [--notify|-n MSG] [--help]\n\n")
		fmt.Fprintln(os.Stderr, flags.FlagUsages())
	}

	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	var err error
	switch {
	case os.Getenv("HEXAD_DAEMON_CHILD") == "1":
		err = runForeground()
	case daemonFlag:
		err = daemonizeAndRun()
	case listFlag:
		err = printStatus()
	case notifyMsg != "":
		err = sendNotify(notifyMsg)
	default:
		flags.Usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "hexad: %v\n", err)
		os.Exit(1)
	}
}

// runForeground binds the daemon socket and runs the accept loop. Used
// both as the backgrounded --daemon child and, via an init system that
// doesn't need backgrounding, directly.
func runForeground() error {
	if err := os.Chdir("/"); err != nil {
		return fmt.Errorf("chdir /: %w", err)
	}
	srv, err := daemon.Listen()
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer srv.Close()
	srv.Serve()
	return nil
}

// daemonizeAndRun re-execs hexad with HEXAD_DAEMON_CHILD set, detached
// into its own session with stdio redirected to /dev/null and cwd /, per
// spec.md §6, then returns once the child's socket is listening.
func daemonizeAndRun() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("find executable: %w", err)
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open /dev/null: %w", err)
	}
	defer devNull.Close()

	cmd := exec.Command(exe)
	cmd.Env = append(os.Environ(), hexadChildEnv)
	cmd.Dir = "/"
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull
	cmd.SysProcAttr = daemonSysProcAttr()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	go cmd.Wait()

	sockPath := socketpath.Path()
	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		if _, statErr := os.Stat(sockPath); statErr == nil {
			return nil
		}
	}
	return fmt.Errorf("daemon did not start (socket %s not found)", sockPath)
}

func printStatus() error {
	client, err := frontend.ConnectExisting()
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
	if resp.Status == nil || (len(resp.Status.Clients) == 0 && len(resp.Status.Sessions) == 0) {
		fmt.Println("No attached clients or detached sessions.")
		return nil
	}
	for _, c := range resp.Status.Clients {
		fmt.Printf("client %s: %d panes\n", c.SessionName, len(c.Panes))
	}
	for _, s := range resp.Status.Sessions {
		fmt.Printf("session %s (%s): %d panes\n", s.Name, s.SessionID, len(s.PaneUUIDs))
	}
	return nil
}

func sendNotify(message string) error {
	client, err := frontend.ConnectExisting()
	if err != nil {
		return fmt.Errorf("connect to daemon: %w", err)
	}
	defer client.Close()

	resp, err := client.Call(&ipc.Request{Type: ipc.ReqBroadcastNotif, Message: message})
	if err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	if resp.Type == ipc.RespError {
		return fmt.Errorf("notify: %s", resp.Message)
	}
	return nil
}
