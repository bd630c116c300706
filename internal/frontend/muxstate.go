package frontend

import (
	"encoding/json"
	"fmt"

	"hexa/internal/ipc"
	"hexa/internal/layout"
	"hexa/internal/vt"
)

// muxStateDoc is this frontend's own serialization of its tab/pane layout,
// written into detach_session's opaque mux_state blob and read back on
// reattach. spec.md §9 leaves the blob's format entirely up to the
// frontend (the daemon only ever stores and returns the bytes verbatim),
// so this is a local decision, not a wire contract: it records pane ids in
// per-tab layout order but not split directions/ratios, so a reattached
// session gets every pane back in the right tab but with splits rebuilt
// left-to-right rather than restored exactly (see DESIGN.md).
type muxStateDoc struct {
	Tabs []muxStateTab `json:"tabs"`
}

type muxStateTab struct {
	Name  string   `json:"name"`
	Panes []string `json:"panes"`
}

// MuxState serializes the current tab/pane layout for detach_session.
func (a *App) MuxState() string {
	doc := muxStateDoc{}
	for _, tab := range a.Tabs {
		doc.Tabs = append(doc.Tabs, muxStateTab{Name: tab.Name, Panes: tab.LeafPaneIDs()})
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// AdoptReattachedPanes rebuilds tabs from a reattach response: muxState (if
// parseable) groups pane ids by tab; ids missing from muxState, or present
// if muxState is empty/invalid, land in one fallback tab. For each pane id
// the daemon returns it calls adopt_pane to fetch its fd, per spec.md's
// reattach -> adopt_pane-per-id sequence.
func (a *App) AdoptReattachedPanes(panes []ipc.PaneInfo, muxState string) error {
	groups := groupByMuxState(panes, muxState)

	a.Tabs = nil
	for i, g := range groups {
		tab := layout.NewTab(g.name)
		for j, id := range g.ids {
			p, err := a.adoptPane(id)
			if err != nil {
				return err
			}
			if j == 0 {
				tab.CreateFirst(p.UUID)
			} else {
				tab.SplitFocused(layout.Horizontal, p.UUID)
			}
		}
		a.Tabs = append(a.Tabs, tab)
		_ = i
	}
	if len(a.Tabs) == 0 {
		a.Tabs = []*layout.Tab{layout.NewTab("main")}
	}
	a.ActiveTab = 0
	a.forceFull = true
	a.needsRender = true
	return nil
}

type paneGroup struct {
	name string
	ids  []string
}

func groupByMuxState(panes []ipc.PaneInfo, muxState string) []paneGroup {
	all := make(map[string]bool, len(panes))
	for _, p := range panes {
		all[p.UUID] = true
	}

	var doc muxStateDoc
	if muxState != "" && json.Unmarshal([]byte(muxState), &doc) == nil && len(doc.Tabs) > 0 {
		var groups []paneGroup
		seen := make(map[string]bool)
		for _, t := range doc.Tabs {
			var ids []string
			for _, id := range t.Panes {
				if all[id] && !seen[id] {
					ids = append(ids, id)
					seen[id] = true
				}
			}
			if len(ids) > 0 {
				groups = append(groups, paneGroup{name: t.Name, ids: ids})
			}
		}
		var leftover []string
		for _, p := range panes {
			if !seen[p.UUID] {
				leftover = append(leftover, p.UUID)
			}
		}
		if len(leftover) > 0 {
			groups = append(groups, paneGroup{name: "main", ids: leftover})
		}
		return groups
	}

	var ids []string
	for _, p := range panes {
		ids = append(ids, p.UUID)
	}
	if len(ids) == 0 {
		return nil
	}
	return []paneGroup{{name: "main", ids: ids}}
}

// adoptPane fetches one reattached pane's fd via adopt_pane and registers
// it as tracked frontend state.
func (a *App) adoptPane(uuid string) (*Pane, error) {
	resp, fd, err := a.Client.CallWithFD(&ipc.Request{Type: ipc.ReqAdoptPane, UUID: uuid})
	if err != nil {
		return nil, err
	}
	if resp.Type == ipc.RespError {
		return nil, fmt.Errorf("adopt_pane %s: %s", uuid, resp.Message)
	}
	p := &Pane{UUID: uuid, Fd: fd, Vt: vt.New(a.Rows-1, a.Cols)}
	a.Panes[uuid] = p
	return p, nil
}
