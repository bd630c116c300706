package ipc

import (
	"encoding/json"
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// ErrNoFdReceived is returned when a payload that spec.md documents as
// carrying a file descriptor (pane_created, pane_found, pane_adopted, each
// reconnected entry) arrives without one.
var ErrNoFdReceived = fmt.Errorf("NoFdReceived")

const maxOOB = unix.CmsgSpace(4) // room for exactly one fd

// SendWithFD writes resp as a single newline-terminated JSON line together
// with fd, passed out-of-band via SCM_RIGHTS in the same sendmsg call. The
// caller must keep fd valid until this call returns.
func SendWithFD(conn *net.UnixConn, resp *Response, fd int) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	payload = append(payload, '\n')
	oob := unix.UnixRights(fd)
	n, oobn, err := conn.WriteMsgUnix(payload, oob, nil)
	if err != nil {
		return err
	}
	if n != len(payload) || oobn != len(oob) {
		return fmt.Errorf("short sendmsg: wrote %d/%d bytes, %d/%d oob", n, len(payload), oobn, len(oob))
	}
	return nil
}

// RecvWithFD reads one newline-terminated JSON response and, if present, the
// single file descriptor sent alongside it via SCM_RIGHTS. It reads the
// control message and payload bytes in the same ReadMsgUnix call, per the
// fd-passing contract in spec.md §4.1.
//
// If the caller expects an fd (expectFD true) and none arrives, returns
// ErrNoFdReceived. The returned fd is -1 when none was received.
func RecvWithFD(conn *net.UnixConn, expectFD bool) (*Response, int, error) {
	buf := make([]byte, 64*1024)
	oob := make([]byte, maxOOB)

	n, oobn, _, _, err := conn.ReadMsgUnix(buf, oob)
	if err != nil {
		return nil, -1, err
	}

	var resp Response
	if jerr := json.Unmarshal(buf[:n], &resp); jerr != nil {
		return nil, -1, fmt.Errorf("invalid_json: %w", jerr)
	}

	fd := -1
	if oobn > 0 {
		cmsgs, perr := unix.ParseSocketControlMessage(oob[:oobn])
		if perr == nil {
			for _, cmsg := range cmsgs {
				fds, rerr := unix.ParseUnixRights(&cmsg)
				if rerr == nil && len(fds) > 0 {
					fd = fds[0]
					break
				}
			}
		}
	}

	if expectFD && fd == -1 {
		return &resp, -1, ErrNoFdReceived
	}
	return &resp, fd, nil
}

// RecvRequestWithFD mirrors RecvWithFD for the request direction, used by the
// daemon when a helper forwards a descriptor (not currently exercised by any
// documented request, but kept symmetric for future-proofing pop_* framing
// that might grow fd payloads).
func RecvRequestWithFD(conn *net.UnixConn) (*Request, int, error) {
	buf := make([]byte, 64*1024)
	oob := make([]byte, maxOOB)

	n, oobn, _, _, err := conn.ReadMsgUnix(buf, oob)
	if err != nil {
		return nil, -1, err
	}
	var req Request
	if jerr := json.Unmarshal(buf[:n], &req); jerr != nil {
		return nil, -1, fmt.Errorf("invalid_json: %w", jerr)
	}
	fd := -1
	if oobn > 0 {
		cmsgs, perr := unix.ParseSocketControlMessage(oob[:oobn])
		if perr == nil {
			for _, cmsg := range cmsgs {
				fds, rerr := unix.ParseUnixRights(&cmsg)
				if rerr == nil && len(fds) > 0 {
					fd = fds[0]
					break
				}
			}
		}
	}
	return &req, fd, nil
}
