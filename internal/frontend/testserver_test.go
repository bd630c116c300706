package frontend

import (
	"bufio"
	"net"
	"os"
	"testing"

	"hexa/internal/ipc"
)

// fakeDaemon starts a one-connection fake daemon on a temp unix socket and
// returns a Client already dialed against it. handle is invoked once per
// request the client sends; returning fd >= 0 sends the response with
// SendWithFD instead of a plain SendResponse, mirroring how the real daemon
// answers create_pane/adopt_pane/find_sticky.
func fakeDaemon(t *testing.T, handle func(req *ipc.Request) (*ipc.Response, int)) *Client {
	t.Helper()
	sockPath := t.TempDir() + "/fake.sock"
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		uc := conn.(*net.UnixConn)
		br := bufio.NewReader(uc)
		for {
			req, err := ipc.ReadRequest(br)
			if err != nil {
				return
			}
			resp, fd := handle(req)
			if fd >= 0 {
				ipc.SendWithFD(uc, resp, fd)
			} else {
				ipc.SendResponse(uc, resp)
			}
		}
	}()

	addr, err := net.ResolveUnixAddr("unix", sockPath)
	if err != nil {
		t.Fatalf("resolve addr: %v", err)
	}
	conn, err := net.DialUnix("unix", nil, addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return newClient(conn)
}

// devNullFD returns an open fd suitable as a stand-in PTY master fd in tests
// that don't care about its contents, only that it's a valid descriptor.
func devNullFD(t *testing.T) int {
	t.Helper()
	f, err := os.Open(os.DevNull)
	if err != nil {
		t.Fatalf("open %s: %v", os.DevNull, err)
	}
	t.Cleanup(func() { f.Close() })
	return int(f.Fd())
}
