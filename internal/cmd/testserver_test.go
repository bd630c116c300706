package cmd

import (
	"bufio"
	"net"
	"os"
	"path/filepath"
	"testing"

	"hexa/internal/ipc"
	"hexa/internal/socketpath"
)

// useEmptySocketDir points socketpath.Path() at a fresh temp directory with
// nothing listening on it, for tests exercising the "no daemon running"
// path without a real daemon process.
func useEmptySocketDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", dir)
	socketpath.ResetCache()
	t.Cleanup(socketpath.ResetCache)
	return dir
}

// startFakeDaemon listens on socketpath.Path() (redirected to a temp dir for
// the duration of the test) and answers every request accepted on it with
// handle, so commands under test (list/kill/notify) exercise their real
// dialExistingDaemon path against a scripted server instead of a live
// daemon.
func startFakeDaemon(t *testing.T, handle func(req *ipc.Request) (*ipc.Response, int)) {
	t.Helper()
	useEmptySocketDir(t)

	sockPath := socketpath.Path()
	if err := os.MkdirAll(filepath.Dir(sockPath), 0o700); err != nil {
		t.Fatalf("mkdir socket dir: %v", err)
	}
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveFakeConn(conn, handle)
		}
	}()
}

func serveFakeConn(conn net.Conn, handle func(req *ipc.Request) (*ipc.Response, int)) {
	defer conn.Close()
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		return
	}
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
}
