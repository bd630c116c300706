package daemon

import "time"

// DetachedSession is a frozen snapshot of a frontend's tab/pane layout,
// keyed by the 16-byte session id the frontend declared at register time.
// Grounded on GandalftheGUI-grove's internal/daemon/instance.go map-of-named-
// entries pattern, generalized to spec.md §3's "Detached session" record.
type DetachedSession struct {
	SessionID  string
	Name       string
	MuxState   string // opaque frontend state blob, stored byte-for-byte
	PaneUUIDs  []string
	DetachedAt time.Time
}

// detachedStore holds all detached sessions keyed by session id. Re-detach
// with a session id already present replaces the previous entry (spec.md
// §4.2 "Session re-detach").
type detachedStore struct {
	bySessionID map[string]*DetachedSession
}

func newDetachedStore() *detachedStore {
	return &detachedStore{bySessionID: make(map[string]*DetachedSession)}
}

// Put stores sess, replacing (and discarding) any previous entry under the
// same session id.
func (s *detachedStore) Put(sess *DetachedSession) {
	s.bySessionID[sess.SessionID] = sess
}

// Get returns the entry for sessionID, if any.
func (s *detachedStore) Get(sessionID string) (*DetachedSession, bool) {
	d, ok := s.bySessionID[sessionID]
	return d, ok
}

// FindByRef resolves a reattach reference, which may be a full session id,
// a hex prefix of one, or an exact session name.
func (s *detachedStore) FindByRef(ref string) (*DetachedSession, bool) {
	if d, ok := s.bySessionID[ref]; ok {
		return d, true
	}
	var match *DetachedSession
	for id, d := range s.bySessionID {
		if len(ref) > 0 && len(ref) <= len(id) && id[:len(ref)] == ref {
			if match != nil {
				return nil, false // ambiguous prefix
			}
			match = d
		}
	}
	if match != nil {
		return match, true
	}
	for _, d := range s.bySessionID {
		if d.Name == ref {
			if match != nil {
				return nil, false
			}
			match = d
		}
	}
	return match, match != nil
}

// Delete removes sessionID from the store.
func (s *detachedStore) Delete(sessionID string) {
	delete(s.bySessionID, sessionID)
}

// List returns all detached sessions.
func (s *detachedStore) List() []*DetachedSession {
	out := make([]*DetachedSession, 0, len(s.bySessionID))
	for _, d := range s.bySessionID {
		out = append(out, d)
	}
	return out
}
