// Package socketpath resolves the single Unix domain socket path the
// session daemon listens on and the frontend dials, per spec.md §6.
//
// Adapted from the teacher's internal/socketdir package: that package
// locates a directory of many named sockets (one per agent); hexa has
// exactly one daemon per user, so this package collapses it to a single
// path, keeping the long-path symlink-fallback trick since XDG_RUNTIME_DIR
// can itself be a long, container-generated path.
package socketpath

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// maxSocketPathLen is the conservative limit for Unix domain socket paths.
// macOS caps sizeof(sockaddr_un.sun_path) at 104; 100 leaves headroom for
// the filename.
const maxSocketPathLen = 100

const socketFile = "ses.sock"

var (
	cached     string
	cachedOnce sync.Once
)

// Path returns the daemon socket path, preferring $XDG_RUNTIME_DIR/hexa/ and
// falling back to /tmp/hexa/ when the runtime dir isn't set, per spec.md
// §6's "Socket location" rule.
func Path() string {
	cachedOnce.Do(func() {
		cached = Resolve(baseDir())
	})
	return cached
}

// ResetCache clears the cached path. For testing only.
func ResetCache() {
	cachedOnce = sync.Once{}
	cached = ""
}

func baseDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "hexa")
	}
	return filepath.Join(os.TempDir(), "hexa")
}

// Resolve returns the socket path rooted at dir, falling back to a short
// symlinked directory under os.TempDir() if the real path would exceed
// maxSocketPathLen.
func Resolve(dir string) string {
	realPath := filepath.Join(dir, socketFile)
	if len(realPath) <= maxSocketPathLen {
		return realPath
	}

	hash := sha256.Sum256([]byte(dir))
	shortDir := filepath.Join(os.TempDir(), fmt.Sprintf("hexa-%x", hash[:8]))

	if target, err := os.Readlink(shortDir); err == nil && target == dir {
		return filepath.Join(shortDir, socketFile)
	}

	os.MkdirAll(dir, 0o700)
	os.Remove(shortDir)
	if err := os.Symlink(dir, shortDir); err != nil {
		return realPath
	}
	return filepath.Join(shortDir, socketFile)
}
