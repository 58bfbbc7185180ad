package cpu

import (
	"math"

	"github.com/tesla3327/literoom/adjust"
)

// Chain coefficients, kept bit-identical to the reference engine so the
// two paths stay within quantization tolerance of each other.
const (
	tempCoeff   = 0.3
	tintCoeff   = 0.2
	whiteGate   = 0.9
	whiteCoeff  = 0.3
	blackGate   = 0.1
	blackCoeff  = 0.2
	skinRGDelta = 0.06

	lumR = 0.2126
	lumG = 0.7152
	lumB = 0.0722

	lutSize = 256
)

// pixelOps is the float32 rendition of the adjustment chain scalars. The
// reference engine computes in float64; this backend trades that for
// float32 throughput, which is also what the GPU path produces, and the
// two agree within a couple of 8-bit quantization steps.
type pixelOps struct {
	exposure   float32
	contrast   float32
	temp       float32
	tint       float32
	highlights float32
	shadows    float32
	whites     float32
	blacks     float32
	saturation float32
	vibrance   float32
}

func newPixelOps(p adjust.Parameters) pixelOps {
	return pixelOps{
		exposure:   float32(p.Exposure),
		contrast:   float32(p.Contrast / 100),
		temp:       float32(p.Temperature / 100 * tempCoeff),
		tint:       float32(p.Tint / 100 * tintCoeff),
		highlights: float32(p.Highlights / 100),
		shadows:    float32(p.Shadows / 100),
		whites:     float32(p.Whites / 100),
		blacks:     float32(p.Blacks / 100),
		saturation: float32(p.Saturation / 100),
		vibrance:   float32(p.Vibrance / 100),
	}
}

func (o pixelOps) scaled(w float32) pixelOps {
	return pixelOps{
		exposure:   o.exposure * w,
		contrast:   o.contrast * w,
		temp:       o.temp * w,
		tint:       o.tint * w,
		highlights: o.highlights * w,
		shadows:    o.shadows * w,
		whites:     o.whites * w,
		blacks:     o.blacks * w,
		saturation: o.saturation * w,
		vibrance:   o.vibrance * w,
	}
}

// apply runs the chain on one pixel. Same fixed order as the reference
// engine: exposure, contrast, temperature, tint, highlights, shadows,
// whites, blacks, saturation, vibrance.
func (o *pixelOps) apply(r, g, b float32) (float32, float32, float32) {
	if o.exposure != 0 {
		f := exp2(o.exposure)
		r *= f
		g *= f
		b *= f
	}

	if o.contrast != 0 {
		f := 1 + o.contrast
		r = (r-0.5)*f + 0.5
		g = (g-0.5)*f + 0.5
		b = (b-0.5)*f + 0.5
	}

	if o.temp > 0 {
		r *= 1 + o.temp
		b *= 1 - o.temp
	} else if o.temp < 0 {
		b *= 1 - o.temp
		r *= 1 + o.temp
	}

	if o.tint > 0 {
		g *= 1 + o.tint
	} else if o.tint < 0 {
		r *= 1 - o.tint
		b *= 1 - o.tint
	}

	lum := lumR*r + lumG*g + lumB*b

	if o.highlights != 0 {
		f := 1 + o.highlights*smoothstep(0.5, 1.0, lum)
		r *= f
		g *= f
		b *= f
	}

	if o.shadows != 0 {
		f := 1 + o.shadows*smoothstep(0.0, 0.5, 1-lum)
		r *= f
		g *= f
		b *= f
	}

	if o.whites != 0 {
		if max3(r, g, b) > whiteGate {
			f := 1 + o.whites*whiteCoeff
			r *= f
			g *= f
			b *= f
		}
	}

	if o.blacks != 0 {
		if min3(r, g, b) < blackGate {
			f := 1 + o.blacks*blackCoeff
			r *= f
			g *= f
			b *= f
		}
	}

	if o.saturation != 0 {
		gray := lumR*r + lumG*g + lumB*b
		f := 1 + o.saturation
		r = gray + (r-gray)*f
		g = gray + (g-gray)*f
		b = gray + (b-gray)*f
	}

	if o.vibrance != 0 {
		sat := max3(r, g, b) - min3(r, g, b)
		amt := o.vibrance * (1 - sat)
		if r > g && g > b && r-g > skinRGDelta {
			amt *= 0.5
		}
		gray := lumR*r + lumG*g + lumB*b
		f := 1 + amt
		r = gray + (r-gray)*f
		g = gray + (g-gray)*f
		b = gray + (b-gray)*f
	}

	return r, g, b
}

// maskEval is a compiled mask ready for per-pixel weight evaluation in
// normalized coordinates.
type maskEval struct {
	kind   adjust.MaskKind
	invert bool

	ox, oy, dx, dy, dlen2 float32
	cx, cy, rx, ry        float32
	feather               float32

	ops pixelOps
}

func compileMasks(masks []adjust.Mask) []maskEval {
	var out []maskEval
	for i := range masks {
		m := &masks[i]
		if !m.Enabled {
			continue
		}
		cm := maskEval{
			kind:    m.Kind,
			invert:  m.Invert,
			ops:     newPixelOps(m.Params),
			ox:      float32(m.X0),
			oy:      float32(m.Y0),
			dx:      float32(m.X1 - m.X0),
			dy:      float32(m.Y1 - m.Y0),
			cx:      float32(m.CenterX),
			cy:      float32(m.CenterY),
			rx:      float32(m.RadiusX),
			ry:      float32(m.RadiusY),
			feather: clamp01(float32(m.Feather)),
		}
		cm.dlen2 = cm.dx*cm.dx + cm.dy*cm.dy
		out = append(out, cm)
	}
	return out
}

func (m *maskEval) weight(nx, ny float32) float32 {
	var w float32
	switch m.kind {
	case adjust.MaskLinear:
		if m.dlen2 != 0 {
			t := ((nx-m.ox)*m.dx + (ny-m.oy)*m.dy) / m.dlen2
			w = 1 - smoothstep(0, 1, t)
		}
	case adjust.MaskRadial:
		if m.rx > 0 && m.ry > 0 {
			ex := (nx - m.cx) / m.rx
			ey := (ny - m.cy) / m.ry
			d := sqrt(ex*ex + ey*ey)
			w = 1 - smoothstep(1-m.feather, 1, d)
		}
	}
	if m.invert {
		w = 1 - w
	}
	return w
}

// buildLUT converts the reference engine's tone-curve table to float32,
// nil for the identity curve.
func buildLUT(points []adjust.CurvePoint) []float32 {
	src := adjust.CurveLUT(points)
	if src == nil {
		return nil
	}
	lut := make([]float32, len(src))
	for i, v := range src {
		lut[i] = float32(v)
	}
	return lut
}

func sampleLUT(lut []float32, x float32) float32 {
	x = clamp01(x)
	pos := x * float32(lutSize-1)
	i := int(pos)
	if i >= lutSize-1 {
		return lut[lutSize-1]
	}
	frac := pos - float32(i)
	return lut[i] + frac*(lut[i+1]-lut[i])
}

func curveIsIdentity(points []adjust.CurvePoint) bool {
	switch len(points) {
	case 0:
		return true
	case 2:
		return points[0] == adjust.CurvePoint{X: 0, Y: 0} &&
			points[1] == adjust.CurvePoint{X: 1, Y: 1}
	default:
		return false
	}
}

func smoothstep(e0, e1, x float32) float32 {
	if e1 == e0 {
		if x < e0 {
			return 0
		}
		return 1
	}
	t := (x - e0) / (e1 - e0)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return t * t * (3 - 2*t)
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func quantize(v float32) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}

func exp2(x float32) float32 { return float32(math.Exp2(float64(x))) }
func sqrt(x float32) float32 { return float32(math.Sqrt(float64(x))) }

func max3(a, b, c float32) float32 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func min3(a, b, c float32) float32 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
