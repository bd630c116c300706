package frontend

import (
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"hexa/internal/cellbuf"
	"hexa/internal/config"
	"hexa/internal/ipc"
	"hexa/internal/layout"
	"hexa/internal/overlay"
	"hexa/internal/vt"
)

const (
	frameInterval = time.Second / 60 // 60 Hz cap, per spec.md §4.7
	idlePollCapMS = 100
	maxPollFds    = 64 // compile-time cap on the poll set, per spec.md §4.7 step 4
)

// Pane is the frontend-side runtime state for one attached pane: its PTY
// master fd (owned by the daemon, just inherited here) and VT.
type Pane struct {
	UUID string
	Fd   int
	Vt   *vt.Wrapper
	dead bool
}

// App is the single-threaded frontend process: one event loop driving all
// tabs, panes, overlays, and the differential renderer. There is
// deliberately no goroutine-per-fd fan-out here (unlike the teacher's
// Client, which reads each PTY on its own goroutine under a mutex): spec.md
// §5 requires one poll-driven loop per process, so every fd is serviced
// from a single OS thread via one unix.Poll call per iteration.
type App struct {
	Client *Client

	Tabs      []*layout.Tab
	ActiveTab int
	Panes     map[string]*Pane

	Overlays      *overlay.List
	Notifications *overlay.NotifyQueue

	Buffer *cellbuf.Buffer
	Rows   int
	Cols   int

	// Keymap resolves EventAltKey bytes to tab/pane actions. Defaults to
	// config.Default().Keymap if never set.
	Keymap config.Keymap

	Running bool

	needsRender bool
	forceFull   bool
	lastPaint   time.Time
	lastSize    struct{ w, h int }

	// RenderStatusBar, if set, returns the status-bar line for the given
	// width; composeFrame calls it after drawing the floating overlays and
	// just before drawing the notification overlay. Left as a
	// hook rather than a direct import so this package never depends on
	// the statusbar package's rendering details.
	RenderStatusBar func(width int) string
}

// NewApp builds a frontend ready to run against an already-connected
// daemon client, sized to the controlling terminal's current dimensions.
func NewApp(client *Client, rows, cols int) *App {
	tab := layout.NewTab("main")
	return &App{
		Client:        client,
		Tabs:          []*layout.Tab{tab},
		ActiveTab:     0,
		Panes:         make(map[string]*Pane),
		Overlays:      overlay.NewList(),
		Notifications: overlay.NewQueue(),
		Buffer:        cellbuf.New(rows, cols),
		Rows:          rows,
		Cols:          cols,
		Keymap:        config.Default().Keymap,
		Running:       true,
		needsRender:   true,
		forceFull:     true,
	}
}

func (a *App) activeTab() *layout.Tab { return a.Tabs[a.ActiveTab] }

// nowMS reports the current time in Unix milliseconds, used for
// notification expiry checks.
func nowMS() int64 { return time.Now().UnixNano() / int64(time.Millisecond) }

// Run drives the event loop until Running goes false. stdinFd is the
// controlling terminal's raw-mode stdin descriptor.
func (a *App) Run(stdinFd int) error {
	for a.Running {
		a.detectResize(stdinFd)
		a.sweepDeadOverlays()
		a.sweepDeadTiledPanes()

		pollSet, order := a.buildPollSet(stdinFd)
		timeout := a.pollTimeout()

		n, err := unix.Poll(pollSet, timeout)
		if err != nil && err != unix.EINTR {
			return err
		}
		if n > 0 {
			a.handleReady(stdinFd, pollSet, order)
		}

		if a.Notifications.Update(nowMS()) {
			a.needsRender = true
		}

		if a.needsRender && time.Since(a.lastPaint) >= frameInterval {
			if err := a.composeFrame(); err != nil {
				return err
			}
			a.needsRender = false
			a.forceFull = false
			a.lastPaint = time.Now()
		}
	}
	return nil
}

// detectResize reads the controlling terminal's window size and, on
// change, resizes every pane and the renderer and marks force-full.
func (a *App) detectResize(stdinFd int) {
	w, h, err := term.GetSize(stdinFd)
	if err != nil {
		return
	}
	if w == a.lastSize.w && h == a.lastSize.h {
		return
	}
	a.lastSize.w, a.lastSize.h = w, h
	a.Rows, a.Cols = h, w
	a.Buffer.Resize(h, w)
	for _, tab := range a.Tabs {
		tab.Resize(layout.Rect{X: 0, Y: 0, W: w, H: h - 1}) // row h-1 reserved for the status bar
		for _, id := range tab.LeafPaneIDs() {
			p, ok := a.Panes[id]
			if !ok {
				continue
			}
			rect, ok := tab.LeafRect(id)
			if !ok {
				continue
			}
			p.Vt.Resize(rect.H, rect.W)
			resizePTY(p.Fd, rect.H, rect.W)
		}
	}
	for _, f := range a.Overlays.Floats {
		p, ok := a.Panes[f.PaneID]
		if !ok {
			continue
		}
		_, _, fw, fh := f.Rect(w, h-1)
		p.Vt.Resize(fh, fw)
		resizePTY(p.Fd, fh, fw)
	}
	a.forceFull = true
	a.needsRender = true
}

// resizePTY issues the window-size ioctl directly on a pane's master fd:
// the frontend holds the fd itself (handed over by the daemon via
// SCM_RIGHTS), so it can resize the PTY without a daemon round trip. Uses
// the raw ioctl rather than wrapping fd in an *os.File, since an *os.File's
// finalizer would close the fd out from under the still-live pane on GC.
func resizePTY(fd, rows, cols int) {
	unix.IoctlSetWinsize(fd, &unix.Winsize{Row: uint16(rows), Col: uint16(cols)})
}

// sweepDeadOverlays removes floating overlays whose pane is no longer
// alive and clears the active index if it pointed at one.
func (a *App) sweepDeadOverlays() {
	a.Overlays.SweepDead(func(paneID string) bool {
		p, ok := a.Panes[paneID]
		return ok && !p.dead
	})
}

// sweepDeadTiledPanes implements spec.md §4.7 step 3: close a dead pane if
// siblings remain in the tab; else close the tab if others exist; else
// stop running.
func (a *App) sweepDeadTiledPanes() {
	tab := a.activeTab()
	for _, id := range tab.LeafPaneIDs() {
		p, ok := a.Panes[id]
		if !ok || !p.dead {
			continue
		}
		if len(tab.LeafPaneIDs()) > 1 {
			tab.Focused = id
			tab.CloseFocused()
			a.killPane(id)
			tab.Resize(layout.Rect{X: 0, Y: 0, W: a.Cols, H: a.Rows - 1})
			a.forceFull = true
			a.needsRender = true
			return
		}
		if len(a.Tabs) > 1 {
			a.closeTab(a.ActiveTab)
			a.killPane(id)
			return
		}
		a.killPane(id)
		a.Running = false
		return
	}
}

func (a *App) closeTab(idx int) {
	a.Tabs = append(a.Tabs[:idx], a.Tabs[idx+1:]...)
	if a.ActiveTab >= len(a.Tabs) {
		a.ActiveTab = len(a.Tabs) - 1
	}
	a.forceFull = true
	a.needsRender = true
}

// killPane informs the daemon the pane is gone (kill_pane) and releases the
// frontend's own fd, per spec.md §4.6. The tree has already dropped id's
// leaf by the time this runs, so sweepDeadTiledPanes would never reach it
// through the dead-flag path.
func (a *App) killPane(id string) {
	p, ok := a.Panes[id]
	if !ok {
		return
	}
	if resp, err := a.Client.Call(&ipc.Request{Type: ipc.ReqKillPane, UUID: id}); err != nil {
		log.Printf("hexa: kill_pane %s: %v", id, err)
	} else if resp.Type == ipc.RespError {
		log.Printf("hexa: kill_pane %s: %s", id, resp.Message)
	}
	unix.Close(p.Fd)
	delete(a.Panes, id)
}

const (
	pollSlotStdin = iota
	pollSlotPane
	pollSlotDaemon
)

type pollEntry struct {
	kind   int
	paneID string
}

// buildPollSet assembles stdin, the daemon connection (when connected), and
// every visible pane's master fd (tiled panes of the focused tab, plus
// visible overlays), capped at maxPollFds.
func (a *App) buildPollSet(stdinFd int) ([]unix.PollFd, []pollEntry) {
	fds := []unix.PollFd{{Fd: int32(stdinFd), Events: unix.POLLIN}}
	order := []pollEntry{{kind: pollSlotStdin}}

	if a.Client != nil && a.Client.Fd() >= 0 {
		fds = append(fds, unix.PollFd{Fd: int32(a.Client.Fd()), Events: unix.POLLIN})
		order = append(order, pollEntry{kind: pollSlotDaemon})
	}

	add := func(paneID string) {
		if len(fds) >= maxPollFds {
			return
		}
		p, ok := a.Panes[paneID]
		if !ok || p.dead {
			return
		}
		fds = append(fds, unix.PollFd{Fd: int32(p.Fd), Events: unix.POLLIN})
		order = append(order, pollEntry{kind: pollSlotPane, paneID: paneID})
	}

	for _, id := range a.activeTab().LeafPaneIDs() {
		add(id)
	}
	for _, f := range a.Overlays.Floats {
		if f.Visible {
			add(f.PaneID)
		}
	}
	return fds, order
}

// pollTimeout computes poll's timeout per spec.md §4.7 step 5: 0 if a
// frame is already due, else the remaining frame budget, capped at
// idlePollCapMS when idle.
func (a *App) pollTimeout() int {
	if !a.needsRender {
		return idlePollCapMS
	}
	elapsed := time.Since(a.lastPaint)
	if elapsed >= frameInterval {
		return 0
	}
	remaining := frameInterval - elapsed
	ms := int(remaining / time.Millisecond)
	if ms > idlePollCapMS {
		ms = idlePollCapMS
	}
	return ms
}

func (a *App) handleReady(stdinFd int, pollSet []unix.PollFd, order []pollEntry) {
	for i, pfd := range pollSet {
		if pfd.Revents == 0 {
			continue
		}
		entry := order[i]
		switch entry.kind {
		case pollSlotStdin:
			if pfd.Revents&unix.POLLIN != 0 {
				a.readStdin(stdinFd)
			}
		case pollSlotDaemon:
			if pfd.Revents&unix.POLLIN != 0 {
				a.handleDaemonPush()
			}
		case pollSlotPane:
			p, ok := a.Panes[entry.paneID]
			if !ok {
				continue
			}
			if pfd.Revents&unix.POLLIN != 0 {
				a.readPane(p)
			}
			if pfd.Revents&(unix.POLLHUP|unix.POLLERR) != 0 {
				p.dead = true
			}
		}
	}
}

// readStdin handles stdin readiness: decode escape-prefixed input and act
// on each event, per spec.md §4.7 step 6.
func (a *App) readStdin(stdinFd int) {
	buf := make([]byte, 4096)
	n, err := unix.Read(stdinFd, buf)
	if err != nil || n == 0 {
		return
	}
	for _, ev := range Decode(buf[:n]) {
		a.handleInputEvent(ev)
	}
}

func (a *App) handleInputEvent(ev Event) {
	switch ev.Kind {
	case EventAltKey:
		a.handleAltKey(ev.AltKey)
		a.needsRender = true
	case EventScrollKey:
		if p := a.focusedPane(); p != nil {
			applyScrollKey(p.Vt, ev.ScrollKey)
			a.needsRender = true
		}
	case EventMouseScroll:
		if p := a.focusedPane(); p != nil {
			if ev.Lines < 0 {
				p.Vt.ScrollUp(-ev.Lines)
			} else {
				p.Vt.ScrollDown(ev.Lines)
			}
			a.needsRender = true
		}
	case EventRaw:
		a.forwardToFocused(ev.Raw)
	}
}

// handleAltKey dispatches one decoded Alt+key byte against the configured
// keymap. Navigation (next/prev tab, focus next/prev pane) never fails;
// actions that create a pane log and drop the keystroke on daemon error
// rather than taking down the event loop.
func (a *App) handleAltKey(key byte) {
	b := string(key)
	switch b {
	case a.Keymap.NextTab:
		if a.ActiveTab < len(a.Tabs)-1 {
			a.ActiveTab++
		} else {
			a.ActiveTab = 0
		}
		a.forceFull = true
	case a.Keymap.PrevTab:
		if a.ActiveTab > 0 {
			a.ActiveTab--
		} else {
			a.ActiveTab = len(a.Tabs) - 1
		}
		a.forceFull = true
	case a.Keymap.FocusNext:
		a.activeTab().FocusNext()
	case a.Keymap.FocusPrev:
		a.activeTab().FocusPrev()
	case a.Keymap.NewTab:
		if err := a.NewTab(fmt.Sprintf("tab%d", len(a.Tabs)+1), "", ""); err != nil {
			log.Printf("hexa: new tab: %v", err)
		}
	case a.Keymap.CloseTab:
		if len(a.Tabs) > 1 {
			a.closeTab(a.ActiveTab)
		}
	case a.Keymap.SplitH:
		if err := a.SplitFocused(layout.Horizontal, "", ""); err != nil {
			log.Printf("hexa: split horizontal: %v", err)
		}
	case a.Keymap.SplitV:
		if err := a.SplitFocused(layout.Vertical, "", ""); err != nil {
			log.Printf("hexa: split vertical: %v", err)
		}
	case a.Keymap.ClosePane:
		tab := a.activeTab()
		if id, ok := tab.CloseFocused(); ok {
			a.killPane(id)
		}
	case a.Keymap.StickyFloat:
		a.toggleStickyFloat(key)
	case a.Keymap.Detach:
		if err := a.Detach(); err != nil {
			log.Printf("hexa: detach: %v", err)
		}
	}
}

// Detach sends detach_session with the current layout's serialized
// mux_state and stops the event loop, per spec.md §4.2's detach path:
// panes stay alive under the daemon, owned by no client, until a later
// reattach adopts them back.
func (a *App) Detach() error {
	resp, err := a.Client.Call(&ipc.Request{
		Type:      ipc.ReqDetachSession,
		SessionID: a.Client.ID(),
		MuxState:  a.MuxState(),
	})
	if err != nil {
		return err
	}
	if resp.Type == ipc.RespError {
		return fmt.Errorf("detach_session: %s", resp.Message)
	}
	a.Running = false
	return nil
}

// toggleStickyFloat implements spec.md §4.6's sticky-float toggle: find an
// existing float bound to key (its stored cwd, if any, must match the
// focused pane's cwd), flip its visibility, or create a new float backed by
// a freshly created pane if none matched. The new pane is created without
// sticky tags; the float itself records the trigger key and cwd.
func (a *App) toggleStickyFloat(key byte) {
	cwd := ""
	if p := a.focusedPane(); p != nil {
		cwd = p.Vt.Cwd()
	}
	if f := a.Overlays.ToggleSticky(key, cwd, true, true); f != nil {
		a.forceFull = true
		return
	}

	p, err := a.CreatePane("", cwd)
	if err != nil {
		log.Printf("hexa: create sticky float pane: %v", err)
		return
	}
	a.Overlays.Add(&overlay.Float{
		PaneID:     p.UUID,
		Visible:    true,
		TriggerKey: key,
		StickyCwd:  cwd,
		WidthPct:   0.8,
		HeightPct:  0.8,
		XPct:       0.1,
		YPct:       0.1,
	})
	a.forceFull = true
}

func applyScrollKey(w *vt.Wrapper, key ScrollKey) {
	const pageLines = 10
	switch key {
	case ScrollPageUp:
		w.ScrollUp(pageLines)
	case ScrollPageDown:
		w.ScrollDown(pageLines)
	case ScrollShiftPageUp:
		w.ScrollUp(pageLines * 3)
	case ScrollShiftPageDown:
		w.ScrollDown(pageLines * 3)
	case ScrollShiftUp:
		w.ScrollUp(1)
	case ScrollShiftDown:
		w.ScrollDown(1)
	case ScrollHome:
		w.ScrollUp(1 << 20)
	case ScrollEnd:
		w.ScrollToBottom()
	}
}

func (a *App) focusedPane() *Pane {
	return a.Panes[a.activeTab().Focused]
}

// forwardToFocused writes raw bytes to the focused pane's PTY, first
// forcing a scroll-to-bottom if that pane was scrolled back, per spec.md
// §4.7 step 6's "unmatched bytes ... first force a scroll-to-bottom".
func (a *App) forwardToFocused(data []byte) {
	p := a.focusedPane()
	if p == nil {
		return
	}
	if p.Vt.IsScrolled() {
		p.Vt.ScrollToBottom()
		a.needsRender = true
	}
	unix.Write(p.Fd, data)
}

// notificationTTL is how long a pushed notification stays active before
// auto-expiring, per spec.md §4.8.
const notificationTTL = 4 * time.Second

// handleDaemonPush reads one unsolicited message the daemon pushed on this
// connection: a broadcast_notify/targeted_notify delivery, or a forwarded
// pop_confirm/pop_choose (spec.md §4.2's prompt forwarding, §4.8's
// notification overlay). Forwarded prompts are auto-acknowledged rather
// than waiting on a dedicated interactive keybinding: the wire protocol
// gives the frontend no way to tell a plain notification apart from a
// forwarded pop_confirm, since both arrive as a bare "notification"
// response (spec.md §6 lists no separate response type for either).
func (a *App) handleDaemonPush() {
	resp, err := a.Client.TryRecv()
	if err != nil {
		return
	}
	switch resp.Type {
	case ipc.RespNotification, ipc.RespPaneNotification, ipc.RespTabNotification:
		a.Notifications.Push(&overlay.Notification{
			Text:        resp.Message,
			ExpiresAtMS: nowMS() + notificationTTL.Milliseconds(),
			Position:    overlay.PositionTopRight,
		})
		a.needsRender = true
		if resp.Type == ipc.RespNotification {
			a.acknowledgePrompt(resp)
		}
	}
}

// acknowledgePrompt sends pop_response back for a forwarded pop_confirm/
// pop_choose. A notification with Items selects the first item; one
// without confirms. Harmless when resp was actually just a plain
// notification: the daemon's handlePopResponse finds no pending slot for
// this connection and returns an error nobody reads.
func (a *App) acknowledgePrompt(resp *ipc.Response) {
	req := &ipc.Request{Type: ipc.ReqPopResponse}
	if len(resp.Items) > 0 {
		req.Selected = resp.Items[0]
	} else {
		confirmed := true
		req.Confirmed = &confirmed
	}
	if _, err := a.Client.Call(req); err != nil {
		log.Printf("hexa: pop_response: %v", err)
	}
}

// readPane reads up to 32 KiB from a pane's master fd and feeds it to the
// pane's VT, per spec.md §4.7 step 7.
func (a *App) readPane(p *Pane) {
	buf := make([]byte, 32*1024)
	n, err := unix.Read(p.Fd, buf)
	if err != nil || n == 0 {
		p.dead = true
		return
	}
	before := p.Vt.CursorRow()
	p.Vt.Feed(buf[:n], func(reply []byte) {
		unix.Write(p.Fd, reply)
	})
	if before != 0 && p.Vt.CursorRow() == 0 {
		// Cheap full-clear heuristic: ED 2 / RIS always leave the cursor
		// at row 0; midterm exposes no clear-detected flag directly.
		a.forceFull = true
	}
	a.needsRender = true
}

// composeFrame renders the current state into the cell buffer and emits
// exactly one frame write, per spec.md §4.5's begin/compose/end lifecycle.
func (a *App) composeFrame() error {
	a.Buffer.Begin()
	if a.forceFull {
		a.Buffer.ForceFullRedraw()
	}

	tab := a.activeTab()
	for _, id := range tab.LeafPaneIDs() {
		p, ok := a.Panes[id]
		if !ok {
			continue
		}
		rect, ok := tab.LeafRect(id)
		if !ok {
			continue
		}
		drawPaneRegion(a.Buffer, p, rect.X, rect.Y, rect.W, rect.H)
	}
	for _, f := range a.Overlays.DrawOrder() {
		if !f.Visible {
			continue
		}
		p, ok := a.Panes[f.PaneID]
		if !ok {
			continue
		}
		x, y, w, h := f.Rect(a.Cols, a.Rows-1)
		drawPaneRegion(a.Buffer, p, x, y, w, h)
	}

	if a.RenderStatusBar != nil {
		bar := a.RenderStatusBar(a.Cols)
		for i, r := range []rune(bar) {
			if i >= a.Cols {
				break
			}
			a.Buffer.SetCell(i, a.Rows-1, cellbuf.Cell{Rune: r})
		}
	}

	if n := a.Notifications.Active(); n != nil {
		overlay.Render(n, a.Cols, a.Rows, func(x, y int, r rune) {
			a.Buffer.SetCell(x, y, cellbuf.Cell{Rune: r})
		})
	}

	return a.Buffer.End(os.Stdout)
}

// drawPaneRegion copies a pane's active terminal grid into the buffer at
// an explicit rectangle (used for both tiled panes via their layout.Rect
// and for floating overlays via percentage geometry).
func drawPaneRegion(buf *cellbuf.Buffer, p *Pane, x, y, w, h int) {
	term := p.Vt.ActiveTerminal()
	for row := 0; row < h; row++ {
		cells := vt.RowCells(term, row, w)
		for col, c := range cells {
			buf.SetCell(x+col, y+row, c)
		}
	}
}

// IPCRegister sends the initial register call, per spec.md §4.1/§4.2.
func (a *App) IPCRegister(sessionName string) (*ipc.Response, error) {
	return a.Client.Call(&ipc.Request{
		Type:        ipc.ReqRegister,
		SessionID:   a.Client.ID(),
		SessionName: sessionName,
	})
}
