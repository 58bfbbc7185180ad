// Package cpu provides the "cpu-parallel" compute backend: the adjustment
// chain evaluated in float32 across a worker pool, one row band per
// worker. It is the accelerated path on machines without a usable GPU and
// the fallback when the wgpu backend fails to initialize.
package cpu

import (
	"github.com/tesla3327/literoom/adjust"
	"github.com/tesla3327/literoom/compute"
	"github.com/tesla3327/literoom/internal/parallel"
	"github.com/tesla3327/literoom/raster"
)

func init() {
	compute.Register("cpu-parallel", func() compute.Backend { return New(0) })
}

// Backend runs adjustments on a CPU worker pool.
type Backend struct {
	workers int
	pool    *parallel.Pool
}

// New creates a backend with the given worker count. Zero means
// GOMAXPROCS. The pool is not started until Init.
func New(workers int) *Backend {
	return &Backend{workers: workers}
}

// Name implements compute.Backend.
func (b *Backend) Name() string { return "cpu-parallel" }

// Init starts the worker pool. It never fails.
func (b *Backend) Init() error {
	if b.pool == nil {
		b.pool = parallel.NewPool(b.workers)
	}
	return nil
}

// Close stops the worker pool.
func (b *Backend) Close() {
	if b.pool != nil {
		b.pool.Close()
		b.pool = nil
	}
}

// CanAccelerate implements compute.Backend. The full chain is supported.
func (b *Backend) CanAccelerate(op compute.OpKind) bool {
	switch op {
	case compute.OpAdjust, compute.OpMaskedAdjust, compute.OpToneCurve:
		return true
	}
	return false
}

// ApplyAdjustments runs the chain over the raster in parallel row bands.
func (b *Backend) ApplyAdjustments(r *raster.Raster, p adjust.Parameters) (*raster.Raster, error) {
	if b.pool == nil {
		return nil, compute.ErrFallbackToCPU
	}
	if !hasPixelWork(p) {
		return r.Clone(), nil
	}

	ops := newPixelOps(p)
	lut := buildLUT(p.Curve)
	masks := compileMasks(p.Masks)

	out := raster.New(r.Width(), r.Height(), r.Channels())
	src := r.Data()
	dst := out.Data()
	channels := r.Channels()
	width := r.Width()
	height := r.Height()
	rowStride := width * channels

	b.pool.ForEachBand(height, func(y0, y1 int) {
		invW := 1 / float32(width)
		invH := 1 / float32(height)
		for y := y0; y < y1; y++ {
			row := y * rowStride
			ny := (float32(y) + 0.5) * invH
			for x := 0; x < width; x++ {
				i := row + x*channels
				rf := float32(src[i+0]) / 255
				gf := float32(src[i+1]) / 255
				bf := float32(src[i+2]) / 255

				rf, gf, bf = ops.apply(rf, gf, bf)

				if lut != nil {
					rf = sampleLUT(lut, rf)
					gf = sampleLUT(lut, gf)
					bf = sampleLUT(lut, bf)
				}

				if len(masks) > 0 {
					nx := (float32(x) + 0.5) * invW
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
		}
	})
	return out, nil
}

// hasPixelWork mirrors the reference engine's short-circuit: geometry-only
// parameters are not pixel work.
func hasPixelWork(p adjust.Parameters) bool {
	if p.Exposure != 0 || p.Contrast != 0 || p.Temperature != 0 || p.Tint != 0 ||
		p.Highlights != 0 || p.Shadows != 0 || p.Whites != 0 || p.Blacks != 0 ||
		p.Saturation != 0 || p.Vibrance != 0 {
		return true
	}
	if !curveIsIdentity(p.Curve) {
		return true
	}
	for i := range p.Masks {
		if p.Masks[i].Enabled {
			return true
		}
	}
	return false
}
