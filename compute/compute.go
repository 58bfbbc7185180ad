// Package compute routes pixel work between an accelerated backend and the
// reference CPU engine.
//
// Backends register themselves from their package init (blank import to
// activate); the Router probes capability once per session and demotes an
// operation kind to the reference engine after its first accelerated
// failure. Demotion is sticky: there is no automatic re-promotion, only an
// explicit Reset.
package compute

import "errors"

// ErrFallbackToCPU indicates the accelerated backend cannot handle this
// operation. The router transparently falls back to the reference engine.
var ErrFallbackToCPU = errors.New("compute: falling back to CPU")

// ErrNoBackend is returned by probe when no accelerated backend is
// registered or none initializes successfully.
var ErrNoBackend = errors.New("compute: no accelerated backend available")

// OpKind describes operation types for backend capability checks and
// per-operation health tracking.
type OpKind uint32

const (
	// OpAdjust is the global adjustment chain without masks.
	OpAdjust OpKind = 1 << iota

	// OpMaskedAdjust is the adjustment chain with local masks.
	OpMaskedAdjust

	// OpToneCurve is a curve-only adjustment.
	OpToneCurve
)

// String returns the operation name.
func (op OpKind) String() string {
	switch op {
	case OpAdjust:
		return "adjust"
	case OpMaskedAdjust:
		return "masked-adjust"
	case OpToneCurve:
		return "tone-curve"
	default:
		return "unknown"
	}
}
