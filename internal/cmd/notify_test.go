package cmd

import (
	"testing"

	"hexa/internal/ipc"
)

func TestRunNotifyBroadcastsWithoutTarget(t *testing.T) {
	var gotType, gotMsg, gotUUID string
	startFakeDaemon(t, func(req *ipc.Request) (*ipc.Response, int) {
		gotType, gotMsg, gotUUID = req.Type, req.Message, req.UUID
		return &ipc.Response{Type: ipc.RespOK}, -1
	})

	if err := runNotify("hello everyone", ""); err != nil {
		t.Fatalf("runNotify: %v", err)
	}
	if gotType != ipc.ReqBroadcastNotif {
		t.Errorf("req.Type = %q, want %q", gotType, ipc.ReqBroadcastNotif)
	}
	if gotMsg != "hello everyone" {
		t.Errorf("req.Message = %q, want %q", gotMsg, "hello everyone")
	}
	if gotUUID != "" {
		t.Errorf("req.UUID = %q, want empty for a broadcast", gotUUID)
	}
}

func TestRunNotifyTargetsSpecificUUID(t *testing.T) {
	var gotType, gotUUID string
	startFakeDaemon(t, func(req *ipc.Request) (*ipc.Response, int) {
		gotType, gotUUID = req.Type, req.UUID
		return &ipc.Response{Type: ipc.RespOK}, -1
	})

	if err := runNotify("just you", "pane-1"); err != nil {
		t.Fatalf("runNotify: %v", err)
	}
	if gotType != ipc.ReqTargetedNotif {
		t.Errorf("req.Type = %q, want %q", gotType, ipc.ReqTargetedNotif)
	}
	if gotUUID != "pane-1" {
		t.Errorf("req.UUID = %q, want pane-1", gotUUID)
	}
}

func TestRunNotifyWithNoDaemonRunning(t *testing.T) {
	useEmptySocketDir(t)

	if err := runNotify("hi", ""); err == nil {
		t.Fatal("expected an error when no daemon is listening")
	}
}
