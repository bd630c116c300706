package ipc

import (
	"net"
	"os"
	"testing"

	"golang.org/x/sys/unix"
)

// socketpair returns a connected pair of *net.UnixConn, for exercising
// SendWithFD/RecvWithFD without a real daemon socket.
func socketpair(t *testing.T) (*net.UnixConn, *net.UnixConn) {
	t.Helper()
	ln, err := net.Listen("unix", t.TempDir()+"/test.sock")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	clientCh := make(chan *net.UnixConn, 1)
	go func() {
		c, err := net.Dial("unix", ln.Addr().String())
		if err != nil {
			clientCh <- nil
			return
		}
		clientCh <- c.(*net.UnixConn)
	}()

	serverConn, err := ln.Accept()
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	clientConn := <-clientCh
	if clientConn == nil {
		t.Fatal("dial failed")
	}
	return serverConn.(*net.UnixConn), clientConn
}

func TestSendRecvWithFD(t *testing.T) {
	server, client := socketpair(t)
	defer server.Close()
	defer client.Close()

	f, err := os.CreateTemp(t.TempDir(), "fd")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	defer f.Close()

	resp := &Response{Type: RespPaneCreated, PaneUUID: "fd-test"}
	done := make(chan error, 1)
	go func() {
		done <- SendWithFD(server, resp, int(f.Fd()))
	}()

	got, fd, err := RecvWithFD(client, true)
	if err != nil {
		t.Fatalf("RecvWithFD: %v", err)
	}
	defer unix.Close(fd)
	if err := <-done; err != nil {
		t.Fatalf("SendWithFD: %v", err)
	}
	if got.PaneUUID != "fd-test" {
		t.Errorf("PaneUUID = %q, want %q", got.PaneUUID, "fd-test")
	}
	if fd < 0 {
		t.Error("expected a valid fd, got -1")
	}
}

func TestRecvWithFDMissingFDErrors(t *testing.T) {
	server, client := socketpair(t)
	defer server.Close()
	defer client.Close()

	done := make(chan error, 1)
	go func() {
		done <- SendResponse(server, &Response{Type: RespOK})
	}()

	_, fd, err := RecvWithFD(client, true)
	if sendErr := <-done; sendErr != nil {
		t.Fatalf("SendResponse: %v", sendErr)
	}
	if err != ErrNoFdReceived {
		t.Errorf("err = %v, want ErrNoFdReceived", err)
	}
	if fd != -1 {
		t.Errorf("fd = %d, want -1", fd)
	}
}
