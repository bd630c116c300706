// Package vt wraps one midterm.Terminal per pane: feeding child output into
// it, mirroring it into an append-only scrollback terminal, resizing both
// in lockstep with the PTY, and tracking the scrolled-viewport/cwd state the
// layout and renderer need per pane.
//
// Grounded on the teacher's internal/virtualterminal.VT and
// internal/terminal.Wrapper (same Vt/Scrollback dual-terminal shape,
// RespondOSCColors, PipeOutput), generalized from one VT per process to one
// per pane.
package vt

import (
	"bytes"
	"strings"
	"sync"

	"github.com/vito/midterm"
)

// Wrapper is one pane's virtual terminal state.
type Wrapper struct {
	mu sync.Mutex

	Vt         *midterm.Terminal // live terminal, always fed
	Scrollback *midterm.Terminal // append-only mirror, never resized away

	rows, cols int

	oscFg, oscBg string // cached real-terminal colors for OSC 10/11 replies

	cwd string // last OSC 7 cwd reported by the child, empty if never seen

	// scrolledBack is true once the frontend has scrolled the viewport
	// into history; Feed keeps writing to both terminals regardless, but
	// the renderer should read from Scrollback while this is true. Only
	// an explicit ScrollToBottom clears it — per the "scrolled viewport
	// stays fixed until the next keystroke" decision (see DESIGN.md).
	scrolledBack bool
	scrollOffset int
}

// New creates a wrapper sized rows x cols.
func New(rows, cols int) *Wrapper {
	w := &Wrapper{rows: rows, cols: cols}
	w.Vt = midterm.NewTerminal(rows, cols)
	w.Scrollback = midterm.NewTerminal(rows, cols)
	w.Scrollback.AutoResizeY = true
	w.Scrollback.AppendOnly = true
	return w
}

// SetRealColors caches the host terminal's actual fg/bg so OSC 10/11
// queries from the child can be answered even though the child never
// touches a real terminal directly.
func (w *Wrapper) SetRealColors(fg, bg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.oscFg, w.oscBg = fg, bg
}

// Feed writes child output into both the live and scrollback terminals and
// scans it for OSC 7 (cwd) and OSC 10/11 (color query) sequences. respond,
// if non-nil, receives any OSC color replies that must be written back to
// the PTY.
func (w *Wrapper) Feed(data []byte, respond func([]byte)) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if respond != nil {
		if w.oscFg != "" && bytes.Contains(data, []byte("\033]10;?")) {
			respond([]byte("\033]10;" + w.oscFg + "\033\\"))
		}
		if w.oscBg != "" && bytes.Contains(data, []byte("\033]11;?")) {
			respond([]byte("\033]11;" + w.oscBg + "\033\\"))
		}
	}
	if cwd, ok := parseOSC7(data); ok {
		w.cwd = cwd
	}

	w.Vt.Write(data)
	w.Scrollback.Write(data)
}

// Resize updates both terminals and the PTY winsize the caller must apply
// separately (the wrapper has no fd of its own).
func (w *Wrapper) Resize(rows, cols int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rows, w.cols = rows, cols
	w.Vt.Resize(rows, cols)
	w.Scrollback.ResizeX(cols)
}

// Cwd returns the last OSC 7-reported working directory, or "" if the
// child never sent one.
func (w *Wrapper) Cwd() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cwd
}

// IsScrolled reports whether the viewport is pinned into scrollback.
func (w *Wrapper) IsScrolled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.scrolledBack
}

// ScrollUp moves the viewport n lines into history.
func (w *Wrapper) ScrollUp(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.scrolledBack = true
	w.scrollOffset += n
}

// ScrollDown moves the viewport n lines toward the live edge; reaching 0
// does NOT itself clear scrolledBack (spec.md §9's decision: only an
// explicit ScrollToBottom, or the keystroke that calls it, does).
func (w *Wrapper) ScrollDown(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.scrollOffset -= n
	if w.scrollOffset < 0 {
		w.scrollOffset = 0
	}
}

// ScrollToBottom pins the viewport back to the live terminal.
func (w *Wrapper) ScrollToBottom() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.scrolledBack = false
	w.scrollOffset = 0
}

// ScrollOffset returns how many lines into scrollback the viewport sits.
func (w *Wrapper) ScrollOffset() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.scrollOffset
}

// CursorRow returns the live terminal's cursor row, used by the frontend's
// full-screen-clear heuristic.
func (w *Wrapper) CursorRow() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Vt.Cursor.Y
}

// ActiveTerminal returns whichever midterm.Terminal the renderer should
// currently read from: Scrollback while scrolled, Vt otherwise.
func (w *Wrapper) ActiveTerminal() *midterm.Terminal {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.scrolledBack {
		return w.Scrollback
	}
	return w.Vt
}

// parseOSC7 extracts the path from an "ESC ] 7 ; file://host/path BEL|ST"
// sequence, if data contains one. Only the last match is honored, matching
// a shell emitting it once per prompt.
func parseOSC7(data []byte) (string, bool) {
	const marker = "\033]7;"
	idx := bytes.LastIndex(data, []byte(marker))
	if idx == -1 {
		return "", false
	}
	rest := data[idx+len(marker):]
	end := bytes.IndexAny(rest, "\a\033")
	if end == -1 {
		return "", false
	}
	uri := string(rest[:end])
	// file://host/path -> /path
	if i := strings.Index(uri, "://"); i != -1 {
		uri = uri[i+3:]
		if slash := strings.IndexByte(uri, '/'); slash != -1 {
			uri = uri[slash:]
		}
	}
	if uri == "" {
		return "", false
	}
	return uri, true
}
