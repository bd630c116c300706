package daemon

import (
	"bytes"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"hexa/internal/daemonlock"
	"hexa/internal/ipc"
	"hexa/internal/socketpath"
)

// sweepInterval is how often the idle tick runs SweepTimeouts, per spec.md
// §4.2's orphan-timeout sweep. Grounded on the teacher's daemon.go
// acceptLoop+stale-socket-check shape in internal/daemon/daemon.go.
const sweepInterval = time.Minute

// idlePollCapMS bounds how long a single poll() call blocks when no sweep
// is imminent, mirroring the frontend's eventloop.go idlePollCapMS (keeps
// Serve responsive to a listener Close without a dedicated wakeup pipe).
const idlePollCapMS = 1000

// readBufSize is the chunk size used for each non-blocking read off a
// connection fd before splitting the accumulated bytes on '\n'.
const readBufSize = 4096

// Server owns the daemon's listening socket and drives its single-threaded
// accept/request loop (spec.md §5: "single-threaded cooperative... driven by
// a single poll/select call"), the same shape as the frontend's
// eventloop.go App.Run.
type Server struct {
	Daemon   *Daemon
	Listener *net.UnixListener
	SockPath string

	lnFd  int
	conns map[int]*serverConn

	lastSweep time.Time

	lock *daemonlock.Lock
}

// serverConn is one accepted connection's poll-loop state: the raw fd
// registered in the poll set, and a byte buffer accumulating partial reads
// until a full newline-terminated request line is available.
type serverConn struct {
	uc       *net.UnixConn
	fd       int
	clientID string
	buf      []byte
}

// Listen binds the daemon socket, unlinking a stale one left behind by a
// crashed process first (teacher's "check if it's a live daemon, else
// remove stale socket" logic in daemon.Run).
func Listen() (*Server, error) {
	sockPath := socketpath.Path()
	if err := os.MkdirAll(filepath.Dir(sockPath), 0o700); err != nil {
		return nil, err
	}

	lock, err := daemonlock.Acquire(sockPath + ".lock")
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(sockPath); err == nil {
		conn, dialErr := net.DialTimeout("unix", sockPath, 500*time.Millisecond)
		if dialErr == nil {
			conn.Close()
			lock.Release()
			return nil, fmt.Errorf("daemon already running at %s", sockPath)
		}
		os.Remove(sockPath)
	}

	addr, err := net.ResolveUnixAddr("unix", sockPath)
	if err != nil {
		lock.Release()
		return nil, err
	}
	ln, err := net.ListenUnix("unix", addr)
	if err != nil {
		lock.Release()
		return nil, fmt.Errorf("listen on %s: %w", sockPath, err)
	}

	lnFd, err := ipc.RawFD(ln)
	if err != nil {
		ln.Close()
		lock.Release()
		return nil, fmt.Errorf("listener fd: %w", err)
	}

	return &Server{
		Daemon:   New(),
		Listener: ln,
		SockPath: sockPath,
		lnFd:     lnFd,
		conns:    make(map[int]*serverConn),
		lock:     lock,
	}, nil
}

// Close tears down the listener, socket file, and startup lock.
func (s *Server) Close() {
	s.Listener.Close()
	os.Remove(s.SockPath)
	s.lock.Release()
}

// Serve runs the daemon's entire request-handling loop on the calling
// goroutine: one poll() call per iteration multiplexing the listener fd
// and every connection's fd, returning only once the listener is closed.
// All registry mutation and every response write happen from this one
// goroutine, so two requests can never interleave bytes on a connection's
// wire framing (spec.md §5). Grounded on the frontend's eventloop.go
// App.Run, the only poll-loop precedent in the codebase.
func (s *Server) Serve() {
	s.lastSweep = time.Now()

	for {
		pollSet, fds := s.buildPollSet()
		n, err := unix.Poll(pollSet, s.pollTimeout())
		if err != nil && err != unix.EINTR {
			log.Printf("hexad: poll: %v", err)
			return
		}

		if time.Since(s.lastSweep) >= sweepInterval {
			s.Daemon.Registry.SweepTimeouts()
			s.lastSweep = time.Now()
		}

		if n <= 0 {
			continue
		}

		for i, pfd := range pollSet {
			if pfd.Revents == 0 {
				continue
			}
			fd := fds[i]
			if fd == -1 {
				if pfd.Revents&unix.POLLNVAL != 0 {
					return // listener closed out from under us
				}
				if pfd.Revents&unix.POLLIN != 0 {
					s.acceptOne()
				}
				continue
			}

			c, ok := s.conns[fd]
			if !ok {
				continue
			}
			if pfd.Revents&(unix.POLLHUP|unix.POLLERR) != 0 {
				s.dropConn(c)
				continue
			}
			if pfd.Revents&unix.POLLIN != 0 {
				if !s.readConn(c) {
					s.dropConn(c)
				}
			}
		}
	}
}

// buildPollSet returns one unix.PollFd per tracked fd plus the listener,
// and a parallel slice mapping each entry back to its connection fd (-1
// for the listener's own slot).
func (s *Server) buildPollSet() ([]unix.PollFd, []int) {
	pollSet := make([]unix.PollFd, 0, len(s.conns)+1)
	fds := make([]int, 0, len(s.conns)+1)

	pollSet = append(pollSet, unix.PollFd{Fd: int32(s.lnFd), Events: unix.POLLIN})
	fds = append(fds, -1)

	for fd := range s.conns {
		pollSet = append(pollSet, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
		fds = append(fds, fd)
	}
	return pollSet, fds
}

// pollTimeout bounds the next poll() call by the time remaining until the
// next sweep tick, capped at idlePollCapMS so a closed listener is noticed
// promptly even with no connections open.
func (s *Server) pollTimeout() int {
	remaining := sweepInterval - time.Since(s.lastSweep)
	ms := int(remaining.Milliseconds())
	if ms <= 0 {
		return 0
	}
	if ms > idlePollCapMS {
		ms = idlePollCapMS
	}
	return ms
}

// acceptOne accepts one pending connection and registers it in the poll
// set under its own raw fd.
func (s *Server) acceptOne() {
	uc, err := s.Listener.AcceptUnix()
	if err != nil {
		return
	}
	fd, err := ipc.RawFD(uc)
	if err != nil {
		log.Printf("hexad: accept: raw fd: %v", err)
		uc.Close()
		return
	}
	s.conns[fd] = &serverConn{uc: uc, fd: fd, clientID: ipc.NewClientID()}
}

// readConn does one non-blocking read off c's fd, appends it to c's
// accumulated buffer, and dispatches every complete newline-terminated
// request line found. Returns false if the connection should be dropped
// (EOF, or a read/write error).
func (s *Server) readConn(c *serverConn) bool {
	buf := make([]byte, readBufSize)
	n, err := unix.Read(c.fd, buf)
	if n > 0 {
		c.buf = append(c.buf, buf[:n]...)
	}
	if err != nil && err != unix.EAGAIN && err != unix.EINTR {
		return false
	}
	if n == 0 && err == nil {
		return false // EOF
	}

	for {
		idx := bytes.IndexByte(c.buf, '\n')
		if idx < 0 {
			break
		}
		line := c.buf[:idx+1]
		c.buf = append([]byte(nil), c.buf[idx+1:]...)

		req, decErr := ipc.DecodeRequest(line)
		if decErr != nil {
			log.Printf("hexad: decode request: %v", decErr)
			continue
		}
		if !s.dispatch(c, req) {
			return false
		}
	}
	return true
}

// dispatch runs one decoded request through Daemon.Handle and writes the
// response back on c's connection. Returns false on a write error, which
// the caller treats as a connection drop.
func (s *Server) dispatch(c *serverConn, req *ipc.Request) bool {
	conn := &Conn{UnixConn: c.uc, Raw: c.uc, ClientID: c.clientID}
	resp := s.Daemon.Handle(conn, req)

	if fd, ok := conn.ResponseFD(); ok {
		if err := ipc.SendWithFD(c.uc, resp, fd); err != nil {
			log.Printf("hexad: send response with fd: %v", err)
			return false
		}
		return true
	}
	if err := ipc.SendResponse(c.uc, resp); err != nil {
		log.Printf("hexad: send response: %v", err)
		return false
	}
	return true
}

// dropConn removes c from the poll set, closes its connection, and tells
// the registry the client is gone.
func (s *Server) dropConn(c *serverConn) {
	delete(s.conns, c.fd)
	c.uc.Close()
	s.Daemon.Registry.DropClient(c.clientID)
}
