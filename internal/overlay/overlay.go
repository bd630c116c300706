// Package overlay implements the frontend's floating overlay list: an
// ordered set of pane-backed floats drawn atop the tiled layout, the
// sticky trigger-key toggle, and (in notify.go) the transient notification
// queue.
//
// Grounded on the teacher's internal/overlay.Overlay struct (one UI struct
// holding mode, pending-escape timers, menu index) for the general shape of
// "overlay state machine with trigger keys and timers"; generalized here
// from a single fixed overlay per process to an ordered list of floats per
// spec.md §4.6.
package overlay

// Float is one floating overlay: a pane rendered on top of the tiled
// layout at a percentage-based size and position, per spec.md §4.6
// ("percentages of the available area so resize is deterministic").
type Float struct {
	PaneID  string
	Visible bool

	// TriggerKey is the single key bound to toggling this float's
	// visibility (spec.md §4.6 "Sticky-float toggle").
	TriggerKey byte

	// StickyCwd, if non-empty, must equal the focused pane's current
	// working directory for this float to be considered a match by the
	// sticky-toggle lookup.
	StickyCwd string

	// Geometry as percentages of the available screen area (0..1).
	WidthPct, HeightPct float64
	XPct, YPct          float64
}

// List is the ordered set of floats for one tab. The active one (if any)
// is drawn last, per spec.md §4.6 ("the active one is drawn last").
type List struct {
	Floats []*Float
	Active int // index into Floats, -1 if none
}

// NewList creates an empty overlay list.
func NewList() *List {
	return &List{Active: -1}
}

// Add appends f and makes it active.
func (l *List) Add(f *Float) {
	l.Floats = append(l.Floats, f)
	l.Active = len(l.Floats) - 1
}

// Remove drops the float backed by paneID, adjusting Active if needed.
func (l *List) Remove(paneID string) {
	for i, f := range l.Floats {
		if f.PaneID != paneID {
			continue
		}
		l.Floats = append(l.Floats[:i], l.Floats[i+1:]...)
		switch {
		case len(l.Floats) == 0:
			l.Active = -1
		case i < l.Active:
			l.Active--
		case l.Active >= len(l.Floats):
			l.Active = len(l.Floats) - 1
		}
		return
	}
}

// ActiveFloat returns the currently active float, or nil.
func (l *List) ActiveFloat() *Float {
	if l.Active < 0 || l.Active >= len(l.Floats) {
		return nil
	}
	return l.Floats[l.Active]
}

// DrawOrder returns floats in the order they should be drawn: inactive
// ones first, the active one last so it ends up on top.
func (l *List) DrawOrder() []*Float {
	out := make([]*Float, 0, len(l.Floats))
	active := l.ActiveFloat()
	for i, f := range l.Floats {
		if i == l.Active {
			continue
		}
		out = append(out, f)
	}
	if active != nil {
		out = append(out, active)
	}
	return out
}

// ByTriggerKey finds a float whose trigger key matches key, optionally also
// requiring its stored cwd to match focusedCwd (requireCwdMatch mirrors
// the "if the config says so" clause in spec.md §4.6).
func (l *List) ByTriggerKey(key byte, focusedCwd string, requireCwdMatch bool) *Float {
	for _, f := range l.Floats {
		if f.TriggerKey != key {
			continue
		}
		if requireCwdMatch && f.StickyCwd != "" && f.StickyCwd != focusedCwd {
			continue
		}
		return f
	}
	return nil
}

// ToggleSticky implements spec.md §4.6's sticky-float toggle: flip
// visibility of the matching float; if it becomes visible and
// hideOthersWithSameKey is set, hide every other float sharing its trigger
// key. Returns the float it acted on, or nil if none matched (caller should
// create one).
func (l *List) ToggleSticky(key byte, focusedCwd string, requireCwdMatch, hideOthersWithSameKey bool) *Float {
	f := l.ByTriggerKey(key, focusedCwd, requireCwdMatch)
	if f == nil {
		return nil
	}
	f.Visible = !f.Visible
	if f.Visible && hideOthersWithSameKey {
		for _, other := range l.Floats {
			if other != f && other.TriggerKey == key {
				other.Visible = false
			}
		}
	}
	if f.Visible {
		l.makeActive(f)
	}
	return f
}

func (l *List) makeActive(f *Float) {
	for i, cand := range l.Floats {
		if cand == f {
			l.Active = i
			return
		}
	}
}

// Rect resizes f's percentage geometry against an available area sized
// areaW x areaH cells.
func (f *Float) Rect(areaW, areaH int) (x, y, w, h int) {
	w = int(float64(areaW) * f.WidthPct)
	h = int(float64(areaH) * f.HeightPct)
	x = int(float64(areaW) * f.XPct)
	y = int(float64(areaH) * f.YPct)
	return
}

// SweepDead removes every float whose pane is no longer alive, per
// spec.md §4.7 step 2 ("Sweeps dead floating overlays"). isAlive reports
// whether a pane id still has a live backing process.
func (l *List) SweepDead(isAlive func(paneID string) bool) {
	var kept []*Float
	activePaneID := ""
	if active := l.ActiveFloat(); active != nil {
		activePaneID = active.PaneID
	}
	for _, f := range l.Floats {
		if isAlive(f.PaneID) {
			kept = append(kept, f)
		}
	}
	l.Floats = kept
	l.Active = -1
	for i, f := range l.Floats {
		if f.PaneID == activePaneID {
			l.Active = i
			break
		}
	}
}
