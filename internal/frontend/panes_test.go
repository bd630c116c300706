package frontend

import (
	"testing"

	"hexa/internal/ipc"
	"hexa/internal/layout"
)

func TestCreatePaneRegistersPane(t *testing.T) {
	fd := devNullFD(t)
	app := NewApp(fakeDaemon(t, func(req *ipc.Request) (*ipc.Response, int) {
		return &ipc.Response{Type: ipc.RespPaneCreated, PaneUUID: "p1"}, fd
	}), 24, 80)

	p, err := app.CreatePane("/bin/bash", "/tmp")
	if err != nil {
		t.Fatalf("CreatePane: %v", err)
	}
	if p.UUID != "p1" {
		t.Errorf("UUID = %q, want p1", p.UUID)
	}
	if _, ok := app.Panes["p1"]; !ok {
		t.Error("pane not registered in app.Panes")
	}
}

func TestCreatePaneErrorResponse(t *testing.T) {
	app := NewApp(fakeDaemon(t, func(req *ipc.Request) (*ipc.Response, int) {
		return ipc.ErrorResponse("no shells left"), -1
	}), 24, 80)

	if _, err := app.CreatePane("", ""); err == nil {
		t.Fatal("expected error from create_pane")
	}
}

func TestOpenFirstPaneSetsActiveTabRoot(t *testing.T) {
	fd := devNullFD(t)
	app := NewApp(fakeDaemon(t, func(req *ipc.Request) (*ipc.Response, int) {
		return &ipc.Response{Type: ipc.RespPaneCreated, PaneUUID: "root"}, fd
	}), 24, 80)

	if err := app.OpenFirstPane("/bin/bash", ""); err != nil {
		t.Fatalf("OpenFirstPane: %v", err)
	}
	ids := app.activeTab().LeafPaneIDs()
	if len(ids) != 1 || ids[0] != "root" {
		t.Errorf("leaf pane ids = %v, want [root]", ids)
	}
}

func TestSplitFocusedAddsSecondLeaf(t *testing.T) {
	fd := devNullFD(t)
	n := 0
	app := NewApp(fakeDaemon(t, func(req *ipc.Request) (*ipc.Response, int) {
		n++
		return &ipc.Response{Type: ipc.RespPaneCreated, PaneUUID: []string{"root", "split"}[n-1]}, fd
	}), 24, 80)

	if err := app.OpenFirstPane("", ""); err != nil {
		t.Fatalf("OpenFirstPane: %v", err)
	}
	if err := app.SplitFocused(layout.Horizontal, "", ""); err != nil {
		t.Fatalf("SplitFocused: %v", err)
	}
	if len(app.activeTab().LeafPaneIDs()) != 2 {
		t.Errorf("leaf count = %d, want 2", len(app.activeTab().LeafPaneIDs()))
	}
}

func TestNewTabCreatesAndActivatesTab(t *testing.T) {
	fd := devNullFD(t)
	app := NewApp(fakeDaemon(t, func(req *ipc.Request) (*ipc.Response, int) {
		return &ipc.Response{Type: ipc.RespPaneCreated, PaneUUID: "t2-root"}, fd
	}), 24, 80)

	if err := app.NewTab("logs", "", ""); err != nil {
		t.Fatalf("NewTab: %v", err)
	}
	if len(app.Tabs) != 2 {
		t.Fatalf("len(Tabs) = %d, want 2", len(app.Tabs))
	}
	if app.ActiveTab != 1 {
		t.Errorf("ActiveTab = %d, want 1", app.ActiveTab)
	}
	if app.Tabs[1].Name != "logs" {
		t.Errorf("Tabs[1].Name = %q, want logs", app.Tabs[1].Name)
	}
}
