package adjust

import (
	"math"

	"github.com/tesla3327/literoom/raster"
)

// Fixed coefficients of the adjustment chain. Shared with the accelerated
// shader; changing one without the other breaks backend equivalence.
const (
	tempCoeff   = 0.3
	tintCoeff   = 0.2
	whiteGate   = 0.9
	whiteCoeff  = 0.3
	blackGate   = 0.1
	blackCoeff  = 0.2
	skinRGDelta = 0.06

	// BT.709 luminance weights.
	lumR = 0.2126
	lumG = 0.7152
	lumB = 0.0722
)

// basicOps holds the precomputed per-pixel chain scalars. Amounts are
// normalized (amount/100); exposure is in stops.
type basicOps struct {
	exposure   float64
	contrast   float64
	temp       float64
	tint       float64
	highlights float64
	shadows    float64
	whites     float64
	blacks     float64
	saturation float64
	vibrance   float64
}

func newBasicOps(p Parameters) basicOps {
	return basicOps{
		exposure:   p.Exposure,
		contrast:   p.Contrast / 100,
		temp:       p.Temperature / 100 * tempCoeff,
		tint:       p.Tint / 100 * tintCoeff,
		highlights: p.Highlights / 100,
		shadows:    p.Shadows / 100,
		whites:     p.Whites / 100,
		blacks:     p.Blacks / 100,
		saturation: p.Saturation / 100,
		vibrance:   p.Vibrance / 100,
	}
}

// scaled returns the ops with every amount scaled by a mask weight.
func (o basicOps) scaled(w float64) basicOps {
	return basicOps{
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

// smoothstep is the Hermite ramp of x over [e0,e1]. A degenerate interval
// collapses to a step at e0.
func smoothstep(e0, e1, x float64) float64 {
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

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// apply runs the global adjustment chain on one pixel. The order is fixed
// and numerically order-sensitive: exposure, contrast, temperature, tint,
// highlights, shadows, whites, blacks, saturation, vibrance. Values stay
// unclamped between steps; quantization clamps at the end of the pipeline.
func (o *basicOps) apply(r, g, b float64) (float64, float64, float64) {
	if o.exposure != 0 {
		f := math.Exp2(o.exposure)
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
		// Warm: red ratio up, blue ratio down.
		r *= 1 + o.temp
		b *= 1 - o.temp
	} else if o.temp < 0 {
		// Cool: blue ratio up, red ratio down.
		b *= 1 - o.temp
		r *= 1 + o.temp
	}

	if o.tint > 0 {
		// Toward green.
		g *= 1 + o.tint
	} else if o.tint < 0 {
		// Toward magenta: lift red and blue instead of crushing green.
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
		// Near-skin-tone heuristic: halve the effect for warm
		// red-dominant pixels.
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

// Apply runs the full adjustment chain over a raster and returns a new
// raster; the input is never written. The geometric Crop and RotateTurns
// fields are not interpreted here — they are resolved during generation,
// before pixel adjustments (see the pipeline facade).
//
// When p describes the identity, Apply short-circuits to a copy without
// touching pixel data.
func Apply(r *raster.Raster, p Parameters) *raster.Raster {
	if !p.hasPixelWork() {
		return r.Clone()
	}

	ops := newBasicOps(p)
	lut := buildCurveLUT(p.Curve)
	masks := compileMasks(p.Masks)

	out := raster.New(r.Width(), r.Height(), r.Channels())
	src := r.Data()
	dst := out.Data()
	channels := r.Channels()
	width := r.Width()

	for i := 0; i < len(src); i += channels {
		rf := float64(src[i+0]) / 255
		gf := float64(src[i+1]) / 255
		bf := float64(src[i+2]) / 255

		rf, gf, bf = ops.apply(rf, gf, bf)

		if lut != nil {
			rf = sampleLUT(lut, rf)
			gf = sampleLUT(lut, gf)
			bf = sampleLUT(lut, bf)
		}

		if len(masks) > 0 {
			pixel := i / channels
			nx := (float64(pixel%width) + 0.5) / float64(width)
			ny := (float64(pixel/width) + 0.5) / float64(r.Height())
			for m := range masks {
				w := masks[m].weight(nx, ny)
				if w <= 0 {
					continue
				}
				scaled := masks[m].ops.scaled(w)
				rf, gf, bf = scaled.apply(rf, gf, bf)
			}
		}

		dst[i+0] = quantize(rf)
		dst[i+1] = quantize(gf)
		dst[i+2] = quantize(bf)
		if channels == raster.ChannelsRGBA {
			dst[i+3] = src[i+3]
		}
	}
	return out
}

// quantize maps a [0,1] sample back to 8 bits with clamping.
func quantize(v float64) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
