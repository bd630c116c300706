package daemon

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// DefaultOrphanTimeout is the default age after which SweepTimeouts reaps
// orphaned/sticky panes, per spec.md §4.2. How often the sweep runs is
// server.go's sweepInterval.
const DefaultOrphanTimeout = 24 * time.Hour

// Registry is the daemon's in-memory state: panes, clients, detached
// sessions, and the single-slot pending prompt-forward map. All mutation
// happens from the daemon's single poll-loop goroutine under mu — spec.md §5
// requires "Pane entries are mutated solely by the daemon loop".
//
// Grounded on the teacher's daemon.go accept-loop shape and
// GandalftheGUI-catherdd's Daemon.instances map guarded by one sync.Mutex.
type Registry struct {
	mu sync.Mutex

	panes   map[string]*Pane
	clients map[string]*Client
	sess    *detachedStore

	// pending maps the fd (by connection pointer identity, via Client.ID)
	// of the mux a prompt was forwarded to, to the id of the helper client
	// awaiting the answer. Exactly one slot per target mux (spec.md §3).
	pending map[string]string // targetClientID -> helperClientID

	OrphanTimeout time.Duration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		panes:         make(map[string]*Pane),
		clients:       make(map[string]*Client),
		sess:          newDetachedStore(),
		pending:       make(map[string]string),
		OrphanTimeout: DefaultOrphanTimeout,
	}
}

// WithLock runs fn while holding the registry mutex. Exposed for handlers
// that need several registry operations to appear atomic.
func (r *Registry) WithLock(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
}

// AddClient registers a new client connection.
func (r *Registry) AddClient(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID] = c
}

// Client looks up a client by id.
func (r *Registry) Client(id string) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	return c, ok
}

// AddPane registers a newly created pane, attached to clientID.
func (r *Registry) AddPane(p *Pane) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panes[p.UUID] = p
	if c, ok := r.clients[p.AttachedTo]; ok {
		c.AddPane(p.UUID)
	}
}

// Pane looks up a pane by uuid.
func (r *Registry) Pane(uuid string) (*Pane, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.panes[uuid]
	return p, ok
}

// KillPane closes the pane's master fd (the kernel SIGHUPs the child) and
// removes it from the registry and its owner's pane list.
func (r *Registry) KillPane(uuid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.panes[uuid]
	if !ok {
		return fmt.Errorf("pane not found: %s", uuid)
	}
	if p.PTY != nil {
		p.PTY.Close()
	}
	if c, ok := r.clients[p.AttachedTo]; ok {
		c.RemovePane(uuid)
	}
	delete(r.panes, uuid)
	return nil
}

// DropClient runs the client-drop path for a client whose connection closed
// non-gracefully: every pane it owned transitions to sticky or orphaned
// (spec.md §4.2), and any pending prompt slots referencing this client (as
// either the target mux or the waiting helper) are cleared, per the second
// Open Question decision in DESIGN.md.
func (r *Registry) DropClient(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if c, ok := r.clients[clientID]; ok {
		for _, uuid := range c.Panes {
			if p, ok := r.panes[uuid]; ok {
				p.Drop(now)
			}
		}
	}
	delete(r.clients, clientID)
	r.clearPendingForLocked(clientID)
}

// GracefulDisconnect removes a client without touching its panes (the
// frontend has already killed what it owns), per spec.md §4.2.
func (r *Registry) GracefulDisconnect(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, clientID)
	r.clearPendingForLocked(clientID)
}

// FindSticky looks up a sticky pane matching pwd+key (linear scan per
// spec.md §4.2) and rebinds it to clientID if found.
func (r *Registry) FindSticky(pwd string, key byte, clientID string) (*Pane, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.panes {
		if p.MatchesSticky(pwd, key) {
			p.Attach(clientID)
			if c, ok := r.clients[clientID]; ok {
				c.AddPane(p.UUID)
			}
			return p, true
		}
	}
	return nil, false
}

// AdoptPane rebinds an orphaned or just-reattached (detached) pane to
// clientID, per spec.md §4.2's "orphaned|detached" -> "attached" adopt_pane
// transition (test case 3: reattach returns a pane-id list with no fds,
// then the client issues one adopt_pane per id to receive each fd).
func (r *Registry) AdoptPane(uuid, clientID string) (*Pane, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.panes[uuid]
	if !ok {
		return nil, fmt.Errorf("pane not found: %s", uuid)
	}
	if p.State != StateOrphaned && p.State != StateDetached {
		return nil, fmt.Errorf("pane %s is not orphaned or detached", uuid)
	}
	p.Attach(clientID)
	if c, ok := r.clients[clientID]; ok {
		c.AddPane(uuid)
	}
	return p, nil
}

// ListOrphaned returns all orphaned panes.
func (r *Registry) ListOrphaned() []*Pane {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Pane
	for _, p := range r.panes {
		if p.State == StateOrphaned {
			out = append(out, p)
		}
	}
	return out
}

// DetachSession freezes clientID's owned panes into a detached session. Any
// previous entry under the same session id is replaced (spec.md §4.2).
func (r *Registry) DetachSession(clientID, sessionID, muxState string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[clientID]
	if !ok {
		return fmt.Errorf("unknown client")
	}
	paneUUIDs := append([]string(nil), c.Panes...)
	for _, uuid := range paneUUIDs {
		if p, ok := r.panes[uuid]; ok {
			p.Detach(sessionID)
		}
	}
	r.sess.Put(&DetachedSession{
		SessionID:  sessionID,
		Name:       c.SessionName,
		MuxState:   muxState,
		PaneUUIDs:  paneUUIDs,
		DetachedAt: time.Now(),
	})
	c.Panes = nil
	return nil
}

// Reattach resolves ref to a detached session, drops it from the store, and
// returns its snapshot. The listed panes stay detached here; the frontend
// attaches each one to itself by sending one adopt_pane request per id.
func (r *Registry) Reattach(ref string) (*DetachedSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.sess.FindByRef(ref)
	if !ok {
		return nil, fmt.Errorf("no detached session matches %q", ref)
	}
	r.sess.Delete(d.SessionID)
	return d, nil
}

// ListSessions returns all detached sessions.
func (r *Registry) ListSessions() []*DetachedSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sess.List()
}

// SweepTimeouts closes and removes every orphaned/sticky pane that has
// exceeded the orphan timeout, per spec.md §4.2's idle-tick sweep.
func (r *Registry) SweepTimeouts() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for uuid, p := range r.panes {
		if p.TimedOut(now, r.OrphanTimeout) {
			if p.PTY != nil {
				p.PTY.Close()
			}
			delete(r.panes, uuid)
		}
	}
}

// --- Prompt forwarding (spec.md §4.2 "Prompt forwarding") ---

// SetPending records that a prompt was forwarded to targetClientID on
// behalf of helperClientID. Any previous slot for targetClientID is
// overwritten (the contract guarantees at most one in flight).
func (r *Registry) SetPending(targetClientID, helperClientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[targetClientID] = helperClientID
}

// ResolvePending returns and clears the helper id waiting on targetClientID's
// response, if any.
func (r *Registry) ResolvePending(targetClientID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	helperID, ok := r.pending[targetClientID]
	if ok {
		delete(r.pending, targetClientID)
	}
	return helperID, ok
}

// clearPendingForLocked removes clientID from the pending map both as a
// target and as a waiting helper. Must be called with mu held.
func (r *Registry) clearPendingForLocked(clientID string) {
	delete(r.pending, clientID)
	for target, helper := range r.pending {
		if helper == clientID {
			delete(r.pending, target)
		}
	}
}

// --- Targeted notification resolution (spec.md §4.2) ---

// NotificationTarget is the outcome of resolving a notify/pop target uuid.
type NotificationTarget int

const (
	TargetNone NotificationTarget = iota
	TargetSession                 // deliver as a "top of screen" notification
	TargetPane                    // deliver as a pane-scoped notification
	TargetBroadcast                // broadcast to all frontends, tab-scoped
)

// ResolveTarget implements the three-step resolution order from spec.md
// §4.2: session-id match, then pane-id match, then prefix-length-≥4
// broadcast.
func (r *Registry) ResolveTarget(uuidOrPrefix string) (NotificationTarget, *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.clients {
		if matchesIDOrPrefix(c.SessionID, uuidOrPrefix) {
			return TargetSession, c
		}
	}
	for _, c := range r.clients {
		for _, paneUUID := range c.Panes {
			if matchesIDOrPrefix(paneUUID, uuidOrPrefix) {
				return TargetPane, c
			}
		}
	}
	if len(uuidOrPrefix) >= 4 {
		return TargetBroadcast, nil
	}
	return TargetNone, nil
}

// AllClients returns a snapshot of all connected clients.
func (r *Registry) AllClients() []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

func matchesIDOrPrefix(id, candidate string) bool {
	if id == "" || candidate == "" {
		return false
	}
	if id == candidate {
		return true
	}
	return len(candidate) >= 4 && strings.HasPrefix(id, candidate)
}
