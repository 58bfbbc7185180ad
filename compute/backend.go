package compute

import (
	"sync"

	"github.com/tesla3327/literoom/adjust"
	"github.com/tesla3327/literoom/raster"
)

// Backend is an accelerated compute provider.
//
// Implementations are provided by backend packages (e.g. compute/wgpu) and
// register themselves via Register from their package init. A Backend is
// only used after a successful Init; any error from ApplyAdjustments —
// including ErrFallbackToCPU — routes the call to the reference engine.
type Backend interface {
	// Name returns the backend identifier (e.g. "wgpu").
	Name() string

	// Init acquires backend resources. Called once by the router probe;
	// an error marks the accelerated capability unavailable for the
	// session.
	Init() error

	// Close releases backend resources.
	Close()

	// CanAccelerate reports whether the backend supports an operation.
	// This is a fast static check used to skip the accelerated path
	// entirely.
	CanAccelerate(op OpKind) bool

	// ApplyAdjustments runs the adjustment chain on the backend.
	// The input raster is read-only; the result is a new raster.
	ApplyAdjustments(r *raster.Raster, p adjust.Parameters) (*raster.Raster, error)
}

// Factory creates a new backend instance.
type Factory func() Backend

var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Probe order for backend selection (first to initialize wins).
	backendPriority = []string{"wgpu", "cpu-parallel"}
)

// Register registers a backend factory under a name, replacing any previous
// registration. Typically called from init() in backend packages.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry. Useful for tests.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the registered backend names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	return names
}

// Get returns a new backend instance by name, or nil if not registered.
func Get(name string) Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()
	factory, ok := backends[name]
	if !ok {
		return nil
	}
	return factory()
}

// candidateBackends returns one instance of every registered backend, in
// probe order: priority-listed names first, then the rest.
func candidateBackends() []Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]Backend, 0, len(backends))
	seen := make(map[string]bool, len(backends))
	for _, name := range backendPriority {
		if factory, ok := backends[name]; ok {
			out = append(out, factory())
			seen[name] = true
		}
	}
	for name, factory := range backends {
		if !seen[name] {
			out = append(out, factory())
		}
	}
	return out
}
