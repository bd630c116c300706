package frontend

import (
	"fmt"

	"hexa/internal/ipc"
	"hexa/internal/layout"
	"hexa/internal/vt"
)

// CreatePane asks the daemon for a new pane and registers it as tracked
// frontend state, sized to the active tab's current bounds. It does not
// place the pane into any tab's layout tree; callers decide tiling.
func (a *App) CreatePane(shell, cwd string) (*Pane, error) {
	resp, fd, err := a.Client.CallWithFD(&ipc.Request{
		Type:  ipc.ReqCreatePane,
		Shell: shell,
		Cwd:   cwd,
	})
	if err != nil {
		return nil, err
	}
	if resp.Type == ipc.RespError {
		return nil, fmt.Errorf("create_pane: %s", resp.Message)
	}

	p := &Pane{UUID: resp.PaneUUID, Fd: fd, Vt: vt.New(a.Rows-1, a.Cols)}
	a.Panes[p.UUID] = p
	return p, nil
}

// OpenFirstPane creates a pane and makes it the active tab's root leaf.
// Used once at startup, before the event loop's first resize/render pass.
func (a *App) OpenFirstPane(shell, cwd string) error {
	p, err := a.CreatePane(shell, cwd)
	if err != nil {
		return err
	}
	a.activeTab().CreateFirst(p.UUID)
	return nil
}

// SplitFocused creates a new pane and splits the focused leaf of the
// active tab, tmux-style: the new pane takes half the space and focus.
func (a *App) SplitFocused(direction layout.Direction, shell, cwd string) error {
	p, err := a.CreatePane(shell, cwd)
	if err != nil {
		return err
	}
	if !a.activeTab().SplitFocused(direction, p.UUID) {
		delete(a.Panes, p.UUID)
		return fmt.Errorf("split focused: no focused pane in active tab")
	}
	a.forceFull = true
	a.needsRender = true
	return nil
}

// NewTab creates a pane and a new tab whose root leaf is that pane,
// making it the active tab.
func (a *App) NewTab(name, shell, cwd string) error {
	p, err := a.CreatePane(shell, cwd)
	if err != nil {
		return err
	}
	tab := layout.NewTab(name)
	tab.CreateFirst(p.UUID)
	a.Tabs = append(a.Tabs, tab)
	a.ActiveTab = len(a.Tabs) - 1
	a.forceFull = true
	a.needsRender = true
	return nil
}
