// Package daemon implements the session daemon: the registry of panes,
// clients, and detached sessions, the sticky/orphan/detached state machine,
// and the Unix-socket IPC server that exposes it to frontends.
package daemon

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"hexa/internal/ptymgr"
)

// State is one of a pane's four lifecycle states, per spec.md §3/§4.2.
type State int

const (
	StateAttached State = iota
	StateDetached
	StateSticky
	StateOrphaned
)

func (s State) String() string {
	switch s {
	case StateAttached:
		return "attached"
	case StateDetached:
		return "detached"
	case StateSticky:
		return "sticky"
	case StateOrphaned:
		return "orphaned"
	default:
		return "unknown"
	}
}

// Pane is the minimal record the daemon keeps alive for one PTY. Exactly one
// of State's four values applies at any time; see DESIGN.md "Open Question
// decisions" and spec.md §8's pane-consistency invariant.
type Pane struct {
	UUID string // 32-char lowercase hex

	PTY *ptymgr.Handle
	Pid int

	State State

	// Sticky tags. Drop reads HasSticky while the pane is attached to
	// decide between StateSticky and StateOrphaned.
	StickyPwd string
	StickyKey byte
	HasSticky bool

	// Detached-session reference, only meaningful in StateDetached.
	SessionID string

	// AttachedTo is the owning client id, only meaningful in StateAttached.
	AttachedTo string

	CreatedAt  time.Time
	OrphanedAt time.Time // zero unless !StateAttached

	// Frontend-synced mirror fields (spec.md §3 "Auxiliary mirror fields").
	IsFloating  bool
	IsFocused   bool
	PaneType    string // "split" | "float"
	CreatedFrom string
	FocusedFrom string
}

// NewPaneUUID mints a fresh 16-byte identifier rendered as 32 lowercase hex
// characters, following GandalftheGUI-catherdd's crypto/rand+hex instance-id
// convention.
func NewPaneUUID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// Attach transitions p into StateAttached, owned by clientID. Valid from
// StateSticky (find_sticky/rebind), StateOrphaned and StateDetached
// (adopt_pane), or as the initial state after create_pane.
func (p *Pane) Attach(clientID string) {
	p.State = StateAttached
	p.AttachedTo = clientID
	p.OrphanedAt = time.Time{}
}

// Drop transitions an attached pane to either StateSticky (if it carries
// sticky tags) or StateOrphaned, per the "attached, owning client drops"
// transition table in spec.md §4.2.
func (p *Pane) Drop(now time.Time) {
	p.AttachedTo = ""
	p.OrphanedAt = now
	if p.HasSticky {
		p.State = StateSticky
	} else {
		p.State = StateOrphaned
	}
}

// Detach transitions an attached pane into StateDetached, recording the
// owning detached-session id.
func (p *Pane) Detach(sessionID string) {
	p.State = StateDetached
	p.AttachedTo = ""
	p.SessionID = ""
	p.OrphanedAt = time.Time{}
	p.SessionID = sessionID
}

// TimedOut reports whether an orphaned/sticky pane has exceeded timeout as
// measured from now, per spec.md §4.2's orphan-timeout sweep.
func (p *Pane) TimedOut(now time.Time, timeout time.Duration) bool {
	if p.State != StateOrphaned && p.State != StateSticky {
		return false
	}
	if p.OrphanedAt.IsZero() {
		return false
	}
	return now.Sub(p.OrphanedAt) > timeout
}

// MatchesSticky reports whether p is a sticky pane tagged with pwd/key.
func (p *Pane) MatchesSticky(pwd string, key byte) bool {
	return p.State == StateSticky && p.HasSticky && p.StickyPwd == pwd && p.StickyKey == key
}
