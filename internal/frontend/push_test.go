package frontend

import (
	"bufio"
	"net"
	"testing"
	"time"

	"hexa/internal/ipc"
)

// dialedPair opens a real unix-socket client/server pair (net.Pipe can't be
// used here: Client.conn is typed *net.UnixConn) and returns the frontend's
// Client plus the server-side *net.UnixConn used to push/read on the
// daemon's behalf.
func dialedPair(t *testing.T) (*Client, *net.UnixConn) {
	t.Helper()
	sockPath := t.TempDir() + "/push.sock"
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	accepted := make(chan *net.UnixConn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		accepted <- conn.(*net.UnixConn)
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

	server := <-accepted
	t.Cleanup(func() { server.Close() })

	return newClient(conn), server
}

func TestHandleDaemonPushQueuesPlainNotificationAndAcks(t *testing.T) {
	client, server := dialedPair(t)
	app := NewApp(client, 24, 80)

	if err := ipc.SendResponse(server, &ipc.Response{Type: ipc.RespNotification, Message: "hello"}); err != nil {
		t.Fatalf("SendResponse: %v", err)
	}

	gotReq := make(chan *ipc.Request, 1)
	go func() {
		br := bufio.NewReader(server)
		req, err := ipc.ReadRequest(br)
		if err != nil {
			return
		}
		ipc.SendResponse(server, &ipc.Response{Type: ipc.RespOK})
		gotReq <- req
	}()

	app.handleDaemonPush()

	if n := app.Notifications.Active(); n == nil || n.Text != "hello" {
		t.Fatalf("Notifications.Active() = %+v, want text %q", n, "hello")
	}

	select {
	case req := <-gotReq:
		if req.Type != ipc.ReqPopResponse {
			t.Errorf("req.Type = %q, want %q", req.Type, ipc.ReqPopResponse)
		}
		if req.Confirmed == nil || !*req.Confirmed {
			t.Errorf("req.Confirmed = %v, want true", req.Confirmed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("daemon never received a pop_response for the forwarded notification")
	}
}

func TestHandleDaemonPushChooseSelectsFirstItem(t *testing.T) {
	client, server := dialedPair(t)
	app := NewApp(client, 24, 80)

	if err := ipc.SendResponse(server, &ipc.Response{
		Type:    ipc.RespNotification,
		Message: "pick one",
		Items:   []string{"first", "second"},
	}); err != nil {
		t.Fatalf("SendResponse: %v", err)
	}

	gotReq := make(chan *ipc.Request, 1)
	go func() {
		br := bufio.NewReader(server)
		req, err := ipc.ReadRequest(br)
		if err != nil {
			return
		}
		ipc.SendResponse(server, &ipc.Response{Type: ipc.RespOK})
		gotReq <- req
	}()

	app.handleDaemonPush()

	select {
	case req := <-gotReq:
		if req.Selected != "first" {
			t.Errorf("req.Selected = %q, want %q", req.Selected, "first")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("daemon never received a pop_response for the forwarded choose")
	}
}

func TestHandleDaemonPushIgnoresNonNotificationTypes(t *testing.T) {
	client, server := dialedPair(t)
	app := NewApp(client, 24, 80)

	if err := ipc.SendResponse(server, &ipc.Response{Type: ipc.RespPong}); err != nil {
		t.Fatalf("SendResponse: %v", err)
	}

	app.handleDaemonPush()

	if app.Notifications.Active() != nil {
		t.Error("unrelated response type should not have queued a notification")
	}
}

func TestBuildPollSetIncludesDaemonFd(t *testing.T) {
	client, _ := dialedPair(t)
	app := NewApp(client, 24, 80)

	fds, order := app.buildPollSet(0)
	found := false
	for i, e := range order {
		if e.kind == pollSlotDaemon {
			found = true
			if fds[i].Fd != int32(client.Fd()) {
				t.Errorf("daemon poll fd = %d, want %d", fds[i].Fd, client.Fd())
			}
		}
	}
	if !found {
		t.Error("buildPollSet did not include the daemon connection fd")
	}
}
