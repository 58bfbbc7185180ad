package compute

import (
	"log/slog"
	"sync"

	"github.com/tesla3327/literoom/adjust"
	"github.com/tesla3327/literoom/internal/logging"
	"github.com/tesla3327/literoom/raster"
)

// capState is the accelerated-capability probe state.
type capState uint8

const (
	capUnprobed capState = iota
	capAvailable
	capUnavailable
)

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithBackend injects a specific backend, bypassing the registry probe.
// Passing nil forces the reference engine for the whole session.
func WithBackend(b Backend) RouterOption {
	return func(rt *Router) {
		rt.backend = b
		rt.explicit = true
	}
}

// WithLogger sets the router's logger. By default the router is silent.
func WithLogger(l *slog.Logger) RouterOption {
	return func(rt *Router) {
		if l != nil {
			rt.logger = l
		}
	}
}

// WithFailureThreshold sets how many consecutive accelerated failures of an
// operation kind demote it to the reference engine. The default is 1.
func WithFailureThreshold(n int) RouterOption {
	return func(rt *Router) {
		if n > 0 {
			rt.threshold = n
		}
	}
}

// Router selects between the accelerated backend and the reference engine
// per call.
//
// Capability is probed once and cached for the Router's lifetime. Each
// operation kind additionally tracks health: after the failure threshold is
// reached the kind runs on the reference engine for the rest of the
// session, while other kinds stay accelerated. Callers never observe an
// accelerated failure as an error — only as added latency.
type Router struct {
	mu        sync.Mutex
	backend   Backend
	explicit  bool
	cap       capState
	failures  map[OpKind]int
	degraded  map[OpKind]bool
	threshold int
	logger    *slog.Logger
}

// NewRouter creates a router. Without options the backend is discovered
// from the registry on first use.
func NewRouter(opts ...RouterOption) *Router {
	rt := &Router{
		failures:  make(map[OpKind]int),
		degraded:  make(map[OpKind]bool),
		threshold: 1,
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// probe resolves the accelerated capability once. Must be called with the
// mutex held.
func (rt *Router) probe() {
	if rt.cap != capUnprobed {
		return
	}
	if rt.explicit {
		if rt.backend == nil {
			rt.cap = capUnavailable
			return
		}
		if err := rt.backend.Init(); err != nil {
			rt.cap = capUnavailable
			rt.backend = nil
			rt.logger.Warn("compute: accelerated backend unavailable", "err", err)
			return
		}
		rt.cap = capAvailable
		rt.logger.Info("compute: accelerated backend ready", "backend", rt.backend.Name())
		return
	}
	for _, b := range candidateBackends() {
		if err := b.Init(); err != nil {
			rt.logger.Warn("compute: backend unavailable", "backend", b.Name(), "err", err)
			continue
		}
		rt.backend = b
		rt.cap = capAvailable
		rt.logger.Info("compute: accelerated backend ready", "backend", b.Name())
		return
	}
	rt.cap = capUnavailable
	rt.logger.Info("compute: no accelerated backend available")
}

// OpFor returns the operation kind an adjustment run resolves to.
func OpFor(p adjust.Parameters) OpKind {
	for i := range p.Masks {
		if p.Masks[i].Enabled {
			return OpMaskedAdjust
		}
	}
	if len(p.Curve) > 0 && p.Exposure == 0 && p.Contrast == 0 && p.Temperature == 0 &&
		p.Tint == 0 && p.Highlights == 0 && p.Shadows == 0 && p.Whites == 0 &&
		p.Blacks == 0 && p.Vibrance == 0 && p.Saturation == 0 {
		return OpToneCurve
	}
	return OpAdjust
}

// Apply runs the adjustment chain, preferring the accelerated backend.
//
// On an accelerated-path error the operation kind is demoted (once the
// failure threshold is reached) and this call reruns on the reference
// engine, so the caller sees only the result.
func (rt *Router) Apply(r *raster.Raster, p adjust.Parameters) *raster.Raster {
	op := OpFor(p)

	backend := rt.acquire(op)
	if backend == nil {
		return adjust.Apply(r, p)
	}

	out, err := backend.ApplyAdjustments(r, p)
	if err != nil {
		rt.recordFailure(op, err)
		return adjust.Apply(r, p)
	}
	rt.recordSuccess(op)
	return out
}

// acquire returns the backend to try for op, or nil when the call should go
// straight to the reference engine.
func (rt *Router) acquire(op OpKind) Backend {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.probe()
	if rt.cap != capAvailable || rt.degraded[op] {
		return nil
	}
	if !rt.backend.CanAccelerate(op) {
		return nil
	}
	return rt.backend
}

func (rt *Router) recordFailure(op OpKind, err error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.failures[op]++
	if rt.failures[op] >= rt.threshold && !rt.degraded[op] {
		rt.degraded[op] = true
		rt.logger.Warn("compute: operation demoted to reference engine",
			"op", op.String(), "err", err)
	}
}

func (rt *Router) recordSuccess(op OpKind) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.failures[op] = 0
}

// Degraded reports whether an operation kind has been demoted.
func (rt *Router) Degraded(op OpKind) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.degraded[op]
}

// Accelerated reports whether the accelerated capability probe succeeded.
// It triggers the probe if it has not run yet.
func (rt *Router) Accelerated() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.probe()
	return rt.cap == capAvailable
}

// Reset clears all operation demotions and failure counts. Capability is
// not re-probed; a session that probed unavailable stays on the reference
// engine.
func (rt *Router) Reset() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.failures = make(map[OpKind]int)
	rt.degraded = make(map[OpKind]bool)
}

// Close releases the probed backend, if any.
func (rt *Router) Close() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.backend != nil && rt.cap == capAvailable {
		rt.backend.Close()
	}
	rt.backend = nil
	rt.cap = capUnavailable
}
