// Package frontend implements the multiplexer process: the IPC client
// that talks to the session daemon, the single-threaded event loop, and
// input decoding.
package frontend

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"os/exec"
	"time"

	"hexa/internal/ipc"
	"hexa/internal/socketpath"
)

// spawnPollAttempts/spawnPollInterval bound how long Connect waits for a
// freshly forked daemon's socket to appear, mirrored from the teacher's
// ForkDaemon/ForkBridge 50x100ms poll loop.
const (
	spawnPollAttempts = 50
	spawnPollInterval = 100 * time.Millisecond
)

// Client owns the daemon connection used by one frontend process: the
// request/response half for control calls, with RecvWithFD used by
// callers that need the daemon to hand back a pane's PTY fd. fd is cached
// at connect time for the event loop's poll set; Call()'s reads and
// unsolicited pushes go through the one shared br so those two paths never
// race over the connection's byte stream, while CallWithFD reads its reply
// with RecvWithFD directly on conn.
type Client struct {
	conn *net.UnixConn
	br   *bufio.Reader
	id   string
	fd   int
}

// Connect dials the daemon socket, spawning the daemon first if it isn't
// already listening. Grounded on the teacher's bridgeservice.ForkBridge /
// session.ForkDaemon: re-exec the current executable with a hidden
// subcommand, then poll for the socket file to appear.
func Connect() (*Client, error) {
	sockPath := socketpath.Path()

	conn, err := dial(sockPath)
	if err != nil {
		if spawnErr := spawnDaemon(sockPath); spawnErr != nil {
			return nil, spawnErr
		}
		conn, err = dial(sockPath)
		if err != nil {
			return nil, fmt.Errorf("connect after spawning daemon: %w", err)
		}
	}

	return newClient(conn), nil
}

// ConnectExisting dials the daemon socket without spawning one, for
// scriptable subcommands (list/kill/notify) that should report "no daemon
// running" rather than starting one just to ask it for status.
func ConnectExisting() (*Client, error) {
	conn, err := dial(socketpath.Path())
	if err != nil {
		return nil, fmt.Errorf("no daemon running: %w", err)
	}
	return newClient(conn), nil
}

// newClient wraps an already-dialed connection, caching its raw fd (best
// effort: a failure just means Fd() reports -1 and the event loop won't be
// able to poll this connection for unsolicited pushes).
func newClient(conn *net.UnixConn) *Client {
	fd, err := ipc.RawFD(conn)
	if err != nil {
		fd = -1
	}
	return &Client{
		conn: conn,
		br:   bufio.NewReader(conn),
		id:   ipc.NewClientID(),
		fd:   fd,
	}
}

func dial(sockPath string) (*net.UnixConn, error) {
	addr, err := net.ResolveUnixAddr("unix", sockPath)
	if err != nil {
		return nil, err
	}
	return net.DialUnix("unix", nil, addr)
}

// spawnDaemon re-execs the current binary with the hidden _daemon
// subcommand and waits for its socket to appear.
func spawnDaemon(sockPath string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("find executable: %w", err)
	}

	cmd := exec.Command(exe, "_daemon")
	cmd.SysProcAttr = daemonSysProcAttr()

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open /dev/null: %w", err)
	}
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	if err := cmd.Start(); err != nil {
		devNull.Close()
		return fmt.Errorf("start daemon: %w", err)
	}
	go func() {
		cmd.Wait()
		devNull.Close()
	}()

	for i := 0; i < spawnPollAttempts; i++ {
		time.Sleep(spawnPollInterval)
		if _, err := os.Stat(sockPath); err == nil {
			return nil
		}
	}
	return fmt.Errorf("daemon did not start (socket %s not found)", sockPath)
}

// ID returns this client's connection id, used as the frontend's
// session_id on register.
func (c *Client) ID() string { return c.id }

// Fd returns the raw descriptor backing the daemon connection, for the
// event loop's poll set, or -1 if it couldn't be obtained at connect time.
func (c *Client) Fd() int { return c.fd }

// TryRecv reads one pushed response off the connection (a notification,
// pane_notification, tab_notification, or a forwarded pop_confirm/
// pop_choose), per spec.md §4.2's prompt forwarding and §4.8's
// notification overlay. Like Call, it reads through the shared br; the
// event loop only invokes this when idle between Call()s, so the two
// never contend over the connection's byte stream.
func (c *Client) TryRecv() (*ipc.Response, error) {
	return ipc.ReadResponse(c.br)
}

// Close closes the daemon connection.
func (c *Client) Close() error { return c.conn.Close() }

// Call sends req and returns the daemon's response, with no fd expected.
func (c *Client) Call(req *ipc.Request) (*ipc.Response, error) {
	if err := ipc.SendRequest(c.conn, req); err != nil {
		return nil, err
	}
	return ipc.ReadResponse(c.br)
}

// CallWithFD sends req and returns the daemon's response along with a
// file descriptor the daemon sent alongside it (e.g. a pane's PTY master),
// per spec.md §6's "pane_created/pane_found/pane_adopted carry one fd"
// contract. The client is a strict one-request-in-flight protocol (a call
// always reads its one response before the next request is sent), so the
// shared bufio.Reader never has bytes buffered past the response that
// Call() just consumed, and it is safe to read this response straight off
// the raw connection with RecvWithFD instead.
func (c *Client) CallWithFD(req *ipc.Request) (*ipc.Response, int, error) {
	if err := ipc.SendRequest(c.conn, req); err != nil {
		return nil, -1, err
	}
	return ipc.RecvWithFD(c.conn, true)
}
