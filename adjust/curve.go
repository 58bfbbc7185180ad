package adjust

import "sort"

// curveLUTSize is the sample count of the tone-curve lookup table.
const curveLUTSize = 256

// curveIsIdentity reports whether the control points describe the identity
// mapping. An empty curve and the exact (0,0)->(1,1) two-point curve are
// both identity; anything else is not.
func curveIsIdentity(points []CurvePoint) bool {
	switch len(points) {
	case 0:
		return true
	case 2:
		return points[0] == CurvePoint{0, 0} && points[1] == CurvePoint{1, 1}
	default:
		return false
	}
}

// CurveLUT returns the tone-curve lookup table for the control points, or
// nil when the curve is the identity. Accelerated backends use it so their
// table matches the reference engine's exactly.
func CurveLUT(points []CurvePoint) []float64 {
	return buildCurveLUT(points)
}

// buildCurveLUT derives a monotonic lookup table from control points.
// Points are sorted by X and interpolated piecewise-linearly; the table is
// clamped so a curve can never push a sample outside [0,1]. Returns nil for
// an identity curve.
func buildCurveLUT(points []CurvePoint) []float64 {
	if curveIsIdentity(points) {
		return nil
	}

	pts := make([]CurvePoint, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool { return pts[i].X < pts[j].X })

	// Anchor the ends so lookups outside the control range are defined.
	if pts[0].X > 0 {
		pts = append([]CurvePoint{{0, pts[0].Y}}, pts...)
	}
	if pts[len(pts)-1].X < 1 {
		pts = append(pts, CurvePoint{1, pts[len(pts)-1].Y})
	}

	lut := make([]float64, curveLUTSize)
	seg := 0
	for i := range lut {
		x := float64(i) / float64(curveLUTSize-1)
		for seg < len(pts)-2 && x > pts[seg+1].X {
			seg++
		}
		p0, p1 := pts[seg], pts[seg+1]
		var y float64
		if p1.X == p0.X {
			y = p1.Y
		} else {
			t := (x - p0.X) / (p1.X - p0.X)
			if t < 0 {
				t = 0
			} else if t > 1 {
				t = 1
			}
			y = p0.Y + t*(p1.Y-p0.Y)
		}
		lut[i] = clamp01(y)
	}
	return lut
}

// sampleLUT evaluates the lookup table at x in [0,1] with linear
// interpolation between adjacent samples.
func sampleLUT(lut []float64, x float64) float64 {
	x = clamp01(x)
	pos := x * float64(curveLUTSize-1)
	i := int(pos)
	if i >= curveLUTSize-1 {
		return lut[curveLUTSize-1]
	}
	frac := pos - float64(i)
	return lut[i] + frac*(lut[i+1]-lut[i])
}
