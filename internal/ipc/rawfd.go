package ipc

import "syscall"

// RawFD returns sc's underlying file descriptor without duplicating it or
// changing its blocking mode (unlike (*os.File).Fd() via File(), which dups
// and forces the fd back to blocking mode). Used to register a net.Conn or
// net.Listener's fd in an external unix.Poll set alongside raw PTY/stdin
// descriptors, while all actual reads/writes keep going through the
// original net.Conn/net.Listener methods.
func RawFD(sc syscall.Conn) (int, error) {
	rc, err := sc.SyscallConn()
	if err != nil {
		return 0, err
	}
	var fd int
	if err := rc.Control(func(f uintptr) { fd = int(f) }); err != nil {
		return 0, err
	}
	return fd, nil
}
