package daemon

import (
	"net"
	"time"

	"hexa/internal/ipc"
	"hexa/internal/ptymgr"
)

// Conn bundles a client connection with the decoded fields the handlers
// need. Grounded on GandalftheGUI-catherdd's handleConn switch over
// proto.ReqXxx constants, adapted to the pane/client/session verbs of
// spec.md §6.
type Conn struct {
	UnixConn *net.UnixConn // nil if the transport doesn't support fd passing (tests)
	Raw      net.Conn
	ClientID string

	// respFD/hasFD let a handler hand a PTY master fd back to the server
	// loop, which must then send the response with SendWithFD instead of
	// the plain newline-JSON path. Set via attachFD.
	respFD int
	hasFD  bool
}

// attachFD marks resp as carrying fd, to be sent back with SendWithFD.
func (c *Conn) attachFD(fd int) {
	c.respFD = fd
	c.hasFD = true
}

// ResponseFD returns the fd a handler attached for this request, if any.
// The server loop calls this right after Handle to decide how to send.
func (c *Conn) ResponseFD() (int, bool) {
	fd, ok := c.respFD, c.hasFD
	c.respFD, c.hasFD = 0, false
	return fd, ok
}

// Handle dispatches one decoded request from conn and returns the response
// to send back (for requests that don't themselves write a fd-bearing
// response via SendWithFD).
func (d *Daemon) Handle(conn *Conn, req *ipc.Request) *ipc.Response {
	switch req.Type {
	case ipc.ReqPing:
		return &ipc.Response{Type: ipc.RespPong}

	case ipc.ReqStatus:
		return d.handleStatus(req)

	case ipc.ReqRegister:
		return d.handleRegister(conn, req)

	case ipc.ReqSyncState:
		return d.handleSyncState(conn, req)

	case ipc.ReqCreatePane:
		return d.handleCreatePane(conn, req)

	case ipc.ReqFindSticky:
		return d.handleFindSticky(conn, req)

	case ipc.ReqReconnect:
		return d.handleReconnect(conn, req)

	case ipc.ReqDisconnect:
		d.Registry.GracefulDisconnect(conn.ClientID)
		return &ipc.Response{Type: ipc.RespOK}

	case ipc.ReqOrphanPane:
		return d.handleOrphanPane(req)

	case ipc.ReqListOrphaned:
		return d.handleListOrphaned()

	case ipc.ReqAdoptPane:
		return d.handleAdoptPane(conn, req)

	case ipc.ReqKillPane:
		if err := d.Registry.KillPane(req.UUID); err != nil {
			return ipc.ErrorResponse("%v", err)
		}
		return &ipc.Response{Type: ipc.RespOK}

	case ipc.ReqDetachSession:
		if err := d.Registry.DetachSession(conn.ClientID, req.SessionID, req.MuxState); err != nil {
			return ipc.ErrorResponse("%v", err)
		}
		return &ipc.Response{Type: ipc.RespSessionDetached, SessionID: req.SessionID}

	case ipc.ReqReattach:
		return d.handleReattach(conn, req)

	case ipc.ReqListSessions:
		return d.handleListSessions()

	case ipc.ReqPaneInfo:
		return d.handlePaneInfo(req)

	case ipc.ReqUpdatePaneAux:
		return d.handleUpdatePaneAux(req)

	case ipc.ReqBroadcastNotif:
		d.broadcastNotify(req.Message)
		return &ipc.Response{Type: ipc.RespOK}

	case ipc.ReqTargetedNotif:
		return d.handleTargetedNotify(req)

	case ipc.ReqPopConfirm, ipc.ReqPopChoose:
		return d.handlePopPrompt(conn, req)

	case ipc.ReqPopResponse:
		return d.handlePopResponse(conn, req)

	default:
		return ipc.ErrorResponse("unknown_type: %s", req.Type)
	}
}

func (d *Daemon) handleStatus(req *ipc.Request) *ipc.Response {
	status := &ipc.StatusInfo{}
	for _, c := range d.Registry.AllClients() {
		status.Clients = append(status.Clients, ipc.ClientInfo{
			ID:          0,
			SessionName: c.SessionName,
			Panes:       append([]string(nil), c.Panes...),
		})
	}
	if req.Full {
		for _, s := range d.Registry.ListSessions() {
			status.Sessions = append(status.Sessions, sessionInfo(s))
		}
	}
	return &ipc.Response{Type: ipc.RespStatus, Status: status}
}

func (d *Daemon) handleRegister(conn *Conn, req *ipc.Request) *ipc.Response {
	c := &Client{
		ID:          conn.ClientID,
		Conn:        conn.Raw,
		Keepalive:   req.Keepalive,
		SessionID:   req.SessionID,
		SessionName: req.SessionName,
	}
	d.Registry.AddClient(c)
	return &ipc.Response{Type: ipc.RespRegistered}
}

func (d *Daemon) handleSyncState(conn *Conn, req *ipc.Request) *ipc.Response {
	if c, ok := d.Registry.Client(conn.ClientID); ok {
		c.LastState = req.MuxState // opaque: never parsed, per spec.md §9
	}
	return &ipc.Response{Type: ipc.RespStateSynced}
}

func (d *Daemon) handleCreatePane(conn *Conn, req *ipc.Request) *ipc.Response {
	h, err := ptymgr.Spawn(req.Shell, req.Cwd, 80, 24)
	if err != nil {
		return ipc.ErrorResponse("%v", err)
	}
	p := &Pane{
		UUID:      NewPaneUUID(),
		PTY:       h,
		Pid:       h.Pid,
		CreatedAt: time.Now(),
	}
	if req.StickyPwd != "" && req.StickyKey != "" {
		p.HasSticky = true
		p.StickyPwd = req.StickyPwd
		p.StickyKey = req.StickyKey[0]
	}
	p.Attach(conn.ClientID)
	d.Registry.AddPane(p)
	conn.attachFD(int(h.Master.Fd()))
	return &ipc.Response{Type: ipc.RespPaneCreated, PaneUUID: p.UUID, Pane: paneInfo(p)}
}

func (d *Daemon) handleFindSticky(conn *Conn, req *ipc.Request) *ipc.Response {
	if req.StickyKey == "" {
		return &ipc.Response{Type: ipc.RespPaneNotFound}
	}
	p, ok := d.Registry.FindSticky(req.Cwd, req.StickyKey[0], conn.ClientID)
	if !ok {
		return &ipc.Response{Type: ipc.RespPaneNotFound}
	}
	if p.PTY != nil {
		conn.attachFD(int(p.PTY.Master.Fd()))
	}
	return &ipc.Response{Type: ipc.RespPaneFound, PaneUUID: p.UUID, Pane: paneInfo(p)}
}

// handleReconnect restores ownership metadata for every pane uuid the
// frontend still remembers, marking each found pane attached to this
// client. It does not hand back fds, and because the panes are left
// attached, a follow-up adopt_pane (which accepts only orphaned or detached
// panes) is refused for them.
func (d *Daemon) handleReconnect(conn *Conn, req *ipc.Request) *ipc.Response {
	var panes []ipc.PaneInfo
	for _, uuid := range req.PaneUUIDs {
		p, ok := d.Registry.Pane(uuid)
		if !ok {
			continue
		}
		p.Attach(conn.ClientID)
		if c, ok := d.Registry.Client(conn.ClientID); ok {
			c.AddPane(uuid)
		}
		panes = append(panes, *paneInfo(p))
	}
	return &ipc.Response{Type: ipc.RespReconnected, Panes: panes}
}

func (d *Daemon) handleOrphanPane(req *ipc.Request) *ipc.Response {
	p, ok := d.Registry.Pane(req.UUID)
	if !ok {
		return ipc.ErrorResponse("pane not found: %s", req.UUID)
	}
	d.Registry.WithLock(func() {
		p.AttachedTo = ""
		p.OrphanedAt = time.Now()
		p.State = StateOrphaned
	})
	return &ipc.Response{Type: ipc.RespOK}
}

func (d *Daemon) handleListOrphaned() *ipc.Response {
	var panes []ipc.PaneInfo
	for _, p := range d.Registry.ListOrphaned() {
		panes = append(panes, *paneInfo(p))
	}
	return &ipc.Response{Type: ipc.RespOrphanedPanes, Panes: panes}
}

func (d *Daemon) handleAdoptPane(conn *Conn, req *ipc.Request) *ipc.Response {
	p, err := d.Registry.AdoptPane(req.UUID, conn.ClientID)
	if err != nil {
		return ipc.ErrorResponse("%v", err)
	}
	if p.PTY != nil {
		conn.attachFD(int(p.PTY.Master.Fd()))
	}
	return &ipc.Response{Type: ipc.RespPaneFound, PaneUUID: p.UUID, Pane: paneInfo(p)}
}

func (d *Daemon) handleReattach(conn *Conn, req *ipc.Request) *ipc.Response {
	sess, err := d.Registry.Reattach(req.SessionRef)
	if err != nil {
		return ipc.ErrorResponse("%v", err)
	}
	return &ipc.Response{
		Type:      ipc.RespSessionReattached,
		SessionID: sess.SessionID,
		MuxState:  sess.MuxState,
		Panes:     paneUUIDsToInfo(sess.PaneUUIDs),
	}
}

func (d *Daemon) handleListSessions() *ipc.Response {
	var sessions []ipc.SessionInfo
	for _, s := range d.Registry.ListSessions() {
		sessions = append(sessions, sessionInfo(s))
	}
	return &ipc.Response{Type: ipc.RespSessions, Sessions: sessions}
}

func (d *Daemon) handlePaneInfo(req *ipc.Request) *ipc.Response {
	p, ok := d.Registry.Pane(req.UUID)
	if !ok {
		return ipc.ErrorResponse("pane not found: %s", req.UUID)
	}
	return &ipc.Response{Type: ipc.RespPaneInfo, Pane: paneInfo(p)}
}

func (d *Daemon) handleUpdatePaneAux(req *ipc.Request) *ipc.Response {
	p, ok := d.Registry.Pane(req.UUID)
	if !ok {
		return ipc.ErrorResponse("pane not found: %s", req.UUID)
	}
	d.Registry.WithLock(func() {
		if req.IsFloat != nil {
			p.IsFloating = *req.IsFloat
		}
		if req.IsFocused != nil {
			p.IsFocused = *req.IsFocused
		}
		if req.PaneType != "" {
			p.PaneType = req.PaneType
		}
		if req.CreatedFrom != "" {
			p.CreatedFrom = req.CreatedFrom
		}
		if req.FocusedFrom != "" {
			p.FocusedFrom = req.FocusedFrom
		}
	})
	return &ipc.Response{Type: ipc.RespOK}
}

func (d *Daemon) handleTargetedNotify(req *ipc.Request) *ipc.Response {
	target, client := d.Registry.ResolveTarget(req.UUID)
	switch target {
	case TargetSession:
		d.sendTo(client, &ipc.Response{Type: ipc.RespNotification, Message: req.Message})
	case TargetPane:
		d.sendTo(client, &ipc.Response{Type: ipc.RespPaneNotification, Message: req.Message, PaneUUID: req.UUID})
	case TargetBroadcast:
		for _, c := range d.Registry.AllClients() {
			d.sendTo(c, &ipc.Response{Type: ipc.RespTabNotification, Message: req.Message})
		}
	default:
		return ipc.ErrorResponse("no target matched %q", req.UUID)
	}
	return &ipc.Response{Type: ipc.RespOK}
}

// handlePopPrompt forwards a pop_confirm/pop_choose from a helper to the
// frontend owning the target mux, recording the pending slot per spec.md
// §4.2's "Prompt forwarding".
func (d *Daemon) handlePopPrompt(conn *Conn, req *ipc.Request) *ipc.Response {
	target, client := d.Registry.ResolveTarget(req.UUID)
	if target == TargetNone || client == nil {
		return ipc.ErrorResponse("no frontend matches %q", req.UUID)
	}
	d.Registry.SetPending(client.ID, conn.ClientID)
	resp := &ipc.Response{Type: ipc.RespNotification, Message: req.Message}
	if req.Type == ipc.ReqPopChoose {
		resp.Items = req.Items
	}
	d.sendTo(client, resp)
	return &ipc.Response{Type: ipc.RespOK}
}

// handlePopResponse forwards the frontend's answer to the helper that is
// waiting, clearing the pending slot.
func (d *Daemon) handlePopResponse(conn *Conn, req *ipc.Request) *ipc.Response {
	helperID, ok := d.Registry.ResolvePending(conn.ClientID)
	if !ok {
		return ipc.ErrorResponse("no pending prompt for this connection")
	}
	helper, ok := d.Registry.Client(helperID)
	if !ok {
		return &ipc.Response{Type: ipc.RespOK} // helper already gone; nothing to deliver
	}
	d.sendTo(helper, &ipc.Response{
		Type:      ipc.RespOK,
		Confirmed: req.Confirmed,
		Selected:  req.Selected,
		Cancelled: req.Cancelled,
	})
	return &ipc.Response{Type: ipc.RespOK}
}

func (d *Daemon) broadcastNotify(message string) {
	for _, c := range d.Registry.AllClients() {
		d.sendTo(c, &ipc.Response{Type: ipc.RespNotification, Message: message})
	}
}

// sendTo writes resp to c's connection, ignoring errors (a dead connection
// will surface through the poll loop's own POLLHUP/read-EOF drop path).
// Safe to call from any handler: Serve's poll loop is the only goroutine
// that ever calls Handle, so no two responses can interleave on the wire.
func (d *Daemon) sendTo(c *Client, resp *ipc.Response) {
	if c == nil || c.Conn == nil {
		return
	}
	_ = ipc.SendResponse(c.Conn, resp)
}

func paneInfo(p *Pane) *ipc.PaneInfo {
	info := &ipc.PaneInfo{
		UUID:        p.UUID,
		State:       p.State.String(),
		Pid:         p.Pid,
		IsFloating:  p.IsFloating,
		IsFocused:   p.IsFocused,
		PaneType:    p.PaneType,
		CreatedAt:   p.CreatedAt.Unix(),
	}
	if p.HasSticky {
		info.StickyPwd = p.StickyPwd
		info.StickyKey = string(p.StickyKey)
	}
	if !p.OrphanedAt.IsZero() {
		info.OrphanedAt = p.OrphanedAt.Unix()
	}
	return info
}

func paneUUIDsToInfo(uuids []string) []ipc.PaneInfo {
	out := make([]ipc.PaneInfo, len(uuids))
	for i, u := range uuids {
		out[i] = ipc.PaneInfo{UUID: u}
	}
	return out
}

func sessionInfo(s *DetachedSession) ipc.SessionInfo {
	return ipc.SessionInfo{
		SessionID:  s.SessionID,
		Name:       s.Name,
		PaneUUIDs:  append([]string(nil), s.PaneUUIDs...),
		DetachedAt: s.DetachedAt.Unix(),
	}
}
