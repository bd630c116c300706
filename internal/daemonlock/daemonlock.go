// Package daemonlock guards daemon startup with a file lock so that two
// "hexad --daemon" invocations racing at boot can't both win the stale-
// socket check and end up with two daemons fighting over the same socket
// path.
//
// gofrs/flock rode along in the teacher's go.mod as an unused indirect
// dependency; this package is its new home.
package daemonlock

import (
	"fmt"

	"github.com/gofrs/flock"
)

// Lock wraps a held flock.Flock. Release unlocks and closes the underlying
// fd.
type Lock struct {
	fl *flock.Flock
}

// Acquire tries to take an exclusive, non-blocking lock on path (typically
// the socket path with a ".lock" suffix). Returns an error immediately if
// another process already holds it.
func Acquire(path string) (*Lock, error) {
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("daemon already starting (lock held): %s", path)
	}
	return &Lock{fl: fl}, nil
}

// Release unlocks and closes the lock file.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
