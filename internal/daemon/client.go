package daemon

import "net"

// Client is a connected multiplexer frontend (or auxiliary helper) that owns
// zero or more panes. Grounded on the teacher's per-connection client state
// in internal/session/session.go, generalized from one client per daemon to
// the N-client registry spec.md §3 describes.
type Client struct {
	ID   string
	Conn net.Conn

	// Panes is the ordered set of pane UUIDs this client currently owns.
	Panes []string

	Keepalive bool

	// SessionID/SessionName are the frontend-declared identity, set by
	// "register"; used to resolve targeted notifications (spec.md §4.2).
	SessionID   string
	SessionName string

	// LastState is the most recently synced opaque frontend state blob
	// (spec.md §3 "opaque JSON"). The daemon never parses it.
	LastState string

	// IsHelper marks an auxiliary connection (pop_confirm/pop_choose
	// originator) that owns no panes and is not a frontend.
	IsHelper bool
}

// AddPane records uuid as owned by c, if not already present.
func (c *Client) AddPane(uuid string) {
	for _, p := range c.Panes {
		if p == uuid {
			return
		}
	}
	c.Panes = append(c.Panes, uuid)
}

// RemovePane drops uuid from c's owned set.
func (c *Client) RemovePane(uuid string) {
	out := c.Panes[:0]
	for _, p := range c.Panes {
		if p != uuid {
			out = append(out, p)
		}
	}
	c.Panes = out
}

// OwnsPane reports whether uuid is in c's owned set.
func (c *Client) OwnsPane(uuid string) bool {
	for _, p := range c.Panes {
		if p == uuid {
			return true
		}
	}
	return false
}
