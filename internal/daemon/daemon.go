package daemon

// Daemon bundles the registry with whatever per-process configuration the
// socket server needs. Kept separate from server.go's listener plumbing so
// handlers.go can depend on just the registry during tests.
type Daemon struct {
	Registry *Registry
}

// New creates a daemon with a fresh, empty registry.
func New() *Daemon {
	return &Daemon{Registry: NewRegistry()}
}
