package adjust

import "math"

// compiledMask is a mask with its geometry and parameter subset resolved
// for per-pixel evaluation.
type compiledMask struct {
	kind   MaskKind
	invert bool

	// Linear: origin and unnormalized direction vector.
	ox, oy, dx, dy float64
	// Precomputed squared length of the direction vector.
	dlen2 float64

	// Radial geometry.
	cx, cy, rx, ry float64
	feather        float64

	ops basicOps
}

// compileMasks resolves enabled masks for evaluation. Disabled masks are
// dropped here so they cost nothing in the pixel loop.
func compileMasks(masks []Mask) []compiledMask {
	var out []compiledMask
	for i := range masks {
		m := &masks[i]
		if !m.Enabled {
			continue
		}
		cm := compiledMask{
			kind:    m.Kind,
			invert:  m.Invert,
			ops:     newBasicOps(m.Params),
			ox:      m.X0,
			oy:      m.Y0,
			dx:      m.X1 - m.X0,
			dy:      m.Y1 - m.Y0,
			cx:      m.CenterX,
			cy:      m.CenterY,
			rx:      m.RadiusX,
			ry:      m.RadiusY,
			feather: clamp01(m.Feather),
		}
		cm.dlen2 = cm.dx*cm.dx + cm.dy*cm.dy
		out = append(out, cm)
	}
	return out
}

// weight computes the mask weight at normalized coordinates (nx,ny).
// The result is in [0,1]: 1 means full effect of the mask's parameters.
func (m *compiledMask) weight(nx, ny float64) float64 {
	var w float64
	switch m.kind {
	case MaskLinear:
		w = m.linearWeight(nx, ny)
	case MaskRadial:
		w = m.radialWeight(nx, ny)
	}
	if m.invert {
		w = 1 - w
	}
	return w
}

// linearWeight projects the pixel onto the gradient axis. The weight is 1
// on the (X0,Y0) side and ramps smoothly to 0 at (X1,Y1).
func (m *compiledMask) linearWeight(nx, ny float64) float64 {
	if m.dlen2 == 0 {
		// Degenerate gradient has no defined direction.
		return 0
	}
	t := ((nx-m.ox)*m.dx + (ny-m.oy)*m.dy) / m.dlen2
	return 1 - smoothstep(0, 1, t)
}

// radialWeight evaluates an elliptical falloff: 1 inside the unfeathered
// core, ramping to 0 at the ellipse boundary across the feather band.
func (m *compiledMask) radialWeight(nx, ny float64) float64 {
	if m.rx <= 0 || m.ry <= 0 {
		return 0
	}
	ex := (nx - m.cx) / m.rx
	ey := (ny - m.cy) / m.ry
	d := math.Sqrt(ex*ex + ey*ey)
	return 1 - smoothstep(1-m.feather, 1, d)
}
