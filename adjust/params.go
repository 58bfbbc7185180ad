// Package adjust implements the develop-parameter model and the reference
// CPU engine that applies parameters to rasters.
//
// The engine is pure: it never mutates its input raster or parameters, and
// the same inputs always produce the same output. Both properties are load
// bearing — cached rasters are shared between readers, and the accelerated
// compute path is validated against this engine.
package adjust

import "github.com/tesla3327/literoom/raster"

// CurvePoint is a tone-curve control point. Both coordinates are in [0,1];
// X is input luminance, Y is output luminance.
type CurvePoint struct {
	X, Y float64
}

// MaskKind selects the geometry model of a local-adjustment mask.
type MaskKind uint8

const (
	// MaskLinear is a linear gradient mask: full effect on the (X0,Y0)
	// side, fading to zero at (X1,Y1) along the gradient direction.
	MaskLinear MaskKind = iota

	// MaskRadial is an elliptical mask: full effect inside the ellipse,
	// fading to zero across the feather band.
	MaskRadial
)

// Mask is a local-adjustment descriptor. All geometry is normalized to the
// raster dimensions. A disabled mask has zero effect and zero cost.
type Mask struct {
	Kind    MaskKind
	Enabled bool

	// Linear geometry: gradient from (X0,Y0) toward (X1,Y1).
	X0, Y0, X1, Y1 float64

	// Radial geometry: ellipse center and radii, plus feather in [0,1].
	CenterX, CenterY float64
	RadiusX, RadiusY float64
	Feather          float64
	Invert           bool

	// Params is the parameter subset re-applied under the mask weight.
	// Curve and nested Masks inside Params are ignored.
	Params Parameters
}

// Parameters is an immutable value object describing a develop state.
// The zero value is the identity: applying it returns a bitwise copy of
// the input raster.
//
// Global amounts (Contrast through Saturation) are in [-100,100];
// Exposure is in stops.
type Parameters struct {
	Exposure    float64
	Contrast    float64
	Temperature float64
	Tint        float64
	Highlights  float64
	Shadows     float64
	Whites      float64
	Blacks      float64
	Vibrance    float64
	Saturation  float64

	// Curve is an ordered tone-curve control-point list. Empty means no
	// curve; the identity curve (0,0)->(1,1) is detected and skipped.
	Curve []CurvePoint

	// Masks holds local adjustments, applied after all global steps.
	Masks []Mask

	// Crop and RotateTurns are geometric edits applied at generation
	// time, before pixel adjustments.
	Crop        raster.CropRect
	RotateTurns int
}

// IsIdentity reports whether applying p would leave any raster unchanged.
// The check is O(1): scalar compares plus slice-length checks, never a
// per-pixel or per-point scan beyond the identity-curve probe.
func (p Parameters) IsIdentity() bool {
	if p.Exposure != 0 || p.Contrast != 0 || p.Temperature != 0 || p.Tint != 0 ||
		p.Highlights != 0 || p.Shadows != 0 || p.Whites != 0 || p.Blacks != 0 ||
		p.Vibrance != 0 || p.Saturation != 0 {
		return false
	}
	if !curveIsIdentity(p.Curve) {
		return false
	}
	for i := range p.Masks {
		if p.Masks[i].Enabled {
			return false
		}
	}
	if !p.Crop.IsZero() || p.RotateTurns%4 != 0 {
		return false
	}
	return true
}

// hasPixelWork reports whether any per-pixel step is active, ignoring the
// geometric Crop/RotateTurns fields.
func (p Parameters) hasPixelWork() bool {
	q := p
	q.Crop = raster.CropRect{}
	q.RotateTurns = 0
	return !q.IsIdentity()
}
