package frontend

import (
	"testing"

	"hexa/internal/ipc"
)

func TestClientCallRoundTrip(t *testing.T) {
	client := fakeDaemon(t, func(req *ipc.Request) (*ipc.Response, int) {
		if req.Type != ipc.ReqPing {
			t.Errorf("req.Type = %q, want %q", req.Type, ipc.ReqPing)
		}
		return &ipc.Response{Type: ipc.RespPong}, -1
	})

	resp, err := client.Call(&ipc.Request{Type: ipc.ReqPing})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if resp.Type != ipc.RespPong {
		t.Errorf("resp.Type = %q, want %q", resp.Type, ipc.RespPong)
	}
}

func TestClientCallWithFDRoundTrip(t *testing.T) {
	wantFd := devNullFD(t)
	client := fakeDaemon(t, func(req *ipc.Request) (*ipc.Response, int) {
		return &ipc.Response{Type: ipc.RespPaneCreated, PaneUUID: "pane-1"}, wantFd
	})

	resp, fd, err := client.CallWithFD(&ipc.Request{Type: ipc.ReqCreatePane})
	if err != nil {
		t.Fatalf("CallWithFD: %v", err)
	}
	if resp.PaneUUID != "pane-1" {
		t.Errorf("PaneUUID = %q, want pane-1", resp.PaneUUID)
	}
	if fd < 0 {
		t.Error("expected a valid fd")
	}
}

func TestClientIDIsStableAcrossCalls(t *testing.T) {
	client := fakeDaemon(t, func(req *ipc.Request) (*ipc.Response, int) {
		return &ipc.Response{Type: ipc.RespOK}, -1
	})

	id := client.ID()
	if _, err := client.Call(&ipc.Request{Type: ipc.ReqPing}); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if client.ID() != id {
		t.Error("ID changed across calls")
	}
}
