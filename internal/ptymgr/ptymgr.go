// Package ptymgr implements the daemon-side PTY lifecycle: spawning a shell
// inside a new pseudo-terminal, resizing it, and reaping the child when it
// exits. Grounded on the teacher's internal/virtualterminal.VT.StartPTY/
// Resize, generalized so the daemon (not a VT-owning struct) holds the
// master fd and pid directly, per spec.md §4.3.
package ptymgr

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/creack/pty"
	"github.com/google/shlex"
)

// Handle is the daemon's view of a running child: the PTY master and the
// child's pid. Closing Master is the sole action that kills the child (the
// kernel delivers SIGHUP to the session leader on master close).
type Handle struct {
	Master *os.File
	Pid    int
	cmd    *exec.Cmd
}

// Spawn starts shell in a new PTY sized cols x rows. shell may carry
// arguments ("/bin/bash --login"), tokenized with SplitShellCommand. If cwd
// is non-empty the child's working directory is set to it. TERM=xterm-256color
// is added to the inherited environment, per spec.md §4.3.
func Spawn(shell string, cwd string, cols, rows int) (*Handle, error) {
	if shell == "" {
		shell = defaultShell()
	}
	argv := SplitShellCommand(shell)
	if len(argv) == 0 {
		argv = []string{defaultShell()}
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	if cwd != "" {
		cmd.Dir = cwd
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	master, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
	if err != nil {
		return nil, fmt.Errorf("open-pty-failed: %w", err)
	}

	pid := -1
	if cmd.Process != nil {
		pid = cmd.Process.Pid
	}
	return &Handle{Master: master, Pid: pid, cmd: cmd}, nil
}

// SetSize issues the terminal-window-size ioctl on the PTY master.
func (h *Handle) SetSize(cols, rows int) error {
	return pty.Setsize(h.Master, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}

// Read reads from the PTY master.
func (h *Handle) Read(p []byte) (int, error) { return h.Master.Read(p) }

// Write writes to the PTY master.
func (h *Handle) Write(p []byte) (int, error) { return h.Master.Write(p) }

// Close closes the PTY master. The kernel delivers SIGHUP to the child's
// session, which is the only way the daemon ever kills a child directly.
func (h *Handle) Close() error { return h.Master.Close() }

// PollStatus does a non-blocking wait for the child. It returns (exitCode,
// true) once the child has been reaped, or (0, false) if it is still
// running. Safe to call repeatedly; only the first reaping call after exit
// returns true, since Wait4 can only reap a zombie once.
func (h *Handle) PollStatus() (int, bool) {
	if h.cmd == nil || h.cmd.Process == nil {
		return 0, false
	}
	var ws syscall.WaitStatus
	pid, err := syscall.Wait4(h.cmd.Process.Pid, &ws, syscall.WNOHANG, nil)
	if err != nil || pid == 0 {
		return 0, false
	}
	return ws.ExitStatus(), true
}

func defaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}

// SplitShellCommand splits a "shell arg1 arg2" string into argv, honoring
// shell-style quoting (so a launch command can embed a quoted argument with
// spaces). Falls back to the raw string as a single argv entry if it can't
// be lexed (e.g. an unmatched quote).
func SplitShellCommand(s string) []string {
	argv, err := shlex.Split(s)
	if err != nil || len(argv) == 0 {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	return argv
}
