package literoom

import (
	"context"
	"fmt"
	"sync"

	"github.com/tesla3327/literoom/adjust"
	"github.com/tesla3327/literoom/cache"
	"github.com/tesla3327/literoom/compute"
	"github.com/tesla3327/literoom/raster"
	"github.com/tesla3327/literoom/sched"

	// Registered accelerated backends, probed in priority order.
	_ "github.com/tesla3327/literoom/compute/cpu"
	_ "github.com/tesla3327/literoom/compute/wgpu"
)

// ByteSource produces the original encoded bytes of an asset. The pipeline
// never reads files itself; acquisition is the caller's responsibility and
// runs off the scheduler's control path.
type ByteSource func() ([]byte, error)

// Callback receives the result of a raster request. A nil handle means the
// generation failed (unreadable bytes or engine failure); the pipeline
// never retries on its own.
type Callback = sched.Callback

// Pipeline is the facade external collaborators call. It wires the
// priority scheduler, the two-tier cache, and the compute router into one
// request path and owns their lifecycles.
type Pipeline struct {
	router *compute.Router
	cache  *cache.Tiered
	sched  *sched.Scheduler

	mu     sync.RWMutex
	params map[string]adjust.Parameters

	closeOnce sync.Once
}

// New creates a pipeline. Rendered rasters are cached in memory with
// per-class capacities; attach a persistent tier with WithBlobStore.
func New(opts ...Option) *Pipeline {
	o := defaultPipelineOptions()
	for _, opt := range opts {
		opt(&o)
	}

	log := Logger()

	mem := cache.NewMemory(
		cache.WithCapacity(raster.Thumbnail, o.thumbnailCapacity),
		cache.WithCapacity(raster.Preview, o.previewCapacity),
	)
	tieredOpts := []cache.TieredOption{cache.WithTieredLogger(log)}
	if o.storeErrorHook != nil {
		tieredOpts = append(tieredOpts, cache.WithErrorHook(o.storeErrorHook))
	}

	routerOpts := []compute.RouterOption{compute.WithLogger(log)}
	if o.backend != nil {
		routerOpts = append(routerOpts, compute.WithBackend(o.backend))
	}

	return &Pipeline{
		router: compute.NewRouter(routerOpts...),
		cache:  cache.NewTiered(mem, o.blobs, tieredOpts...),
		sched: sched.New(
			sched.WithClassBudget(o.concurrency),
			sched.WithLogger(log),
		),
		params: make(map[string]adjust.Parameters),
	}
}

// SetParameters records the develop state for an asset, consulted at
// generation time. The parameters are captured by value; later mutation of
// the caller's slices does not leak into running generations.
func (p *Pipeline) SetParameters(assetID string, params adjust.Parameters) {
	p.mu.Lock()
	p.params[assetID] = cloneParameters(params)
	p.mu.Unlock()
}

// Parameters returns the develop state recorded for an asset. The zero
// value is returned for assets never set.
func (p *Pipeline) Parameters(assetID string) adjust.Parameters {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneParameters(p.params[assetID])
}

// cloneParameters copies the slice-valued fields so the stored state is
// immune to caller-side mutation.
func cloneParameters(params adjust.Parameters) adjust.Parameters {
	if len(params.Curve) > 0 {
		params.Curve = append([]adjust.CurvePoint(nil), params.Curve...)
	}
	if len(params.Masks) > 0 {
		params.Masks = append([]adjust.Mask(nil), params.Masks...)
	}
	return params
}

// RequestRaster asks for a rendering of an asset at a resolution class.
// On a cache hit the callback fires before RequestRaster returns. On a
// miss the request is queued; duplicate requests for the same
// (asset, class) key coalesce into one generation with every callback
// still invoked exactly once. Panics on an invalid class or priority.
func (p *Pipeline) RequestRaster(assetID string, class raster.ResolutionClass, priority sched.Priority, src ByteSource, cb Callback) {
	if !class.Valid() {
		panic("literoom: invalid resolution class " + class.String())
	}

	key := cache.Key{AssetID: assetID, Class: class}
	if h, ok := p.cache.Get(key); ok {
		if cb != nil {
			cb(h)
		}
		return
	}
	p.sched.Submit(key, priority, p.generate(key, src), cb)
}

// generate builds the scheduler work unit for one key: acquire bytes,
// decode, apply geometric edits, scale to class, run pixel adjustments
// through the router, and write through the cache.
func (p *Pipeline) generate(key cache.Key, src ByteSource) sched.GenerateFunc {
	return func(ctx context.Context) (cache.Handle, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := src()
		if err != nil {
			return nil, fmt.Errorf("byte source for %s: %w", key.AssetID, err)
		}
		r, err := raster.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", key.AssetID, err)
		}

		params := p.Parameters(key.AssetID)
		r = raster.Rotate90(r, params.RotateTurns)
		r = raster.Crop(r, params.Crop)
		r = raster.Scale(r, key.Class)

		// Geometry is already applied; hand the router pixel work only.
		params.RotateTurns = 0
		params.Crop = raster.CropRect{}
		if !params.IsIdentity() {
			r = p.router.Apply(r, params)
		}

		return p.cache.Put(key, r), nil
	}
}

// CancelBackground removes every queued Background-priority request; their
// callbacks are never invoked. Background work already dispatched
// completes and may still populate the cache. Returns the number of
// requests cancelled.
func (p *Pipeline) CancelBackground() int {
	return p.sched.Cancel(func(_ cache.Key, priority sched.Priority) bool {
		return priority == sched.Background
	})
}

// Invalidate removes cached renderings of an asset, in both tiers. With no
// classes listed every class is cleared. Use after the asset's bytes
// change on disk; recorded develop parameters are kept.
func (p *Pipeline) Invalidate(assetID string, classes ...raster.ResolutionClass) {
	if len(classes) == 0 {
		p.cache.RemoveAsset(assetID)
		return
	}
	for _, class := range classes {
		p.cache.Remove(cache.Key{AssetID: assetID, Class: class})
	}
}

// ApplyAdjustments runs the adjustment chain on raw pixel data, routed
// through the compute router. The channel count is inferred from the
// buffer length; a length that fits neither 3 nor 4 channels panics, as
// does malformed geometry. Used by export paths that bypass the cache.
func (p *Pipeline) ApplyAdjustments(data []uint8, width, height int, params adjust.Parameters) *raster.Raster {
	r := raster.FromData(data, width, height, inferChannels(data, width, height))
	r = raster.Rotate90(r, params.RotateTurns)
	r = raster.Crop(r, params.Crop)
	params.RotateTurns = 0
	params.Crop = raster.CropRect{}
	return p.router.Apply(r, params)
}

// ApplyMaskedAdjustments is ApplyAdjustments with an explicit local-mask
// list replacing any masks already on params.
func (p *Pipeline) ApplyMaskedAdjustments(data []uint8, width, height int, params adjust.Parameters, masks []adjust.Mask) *raster.Raster {
	params.Masks = masks
	return p.ApplyAdjustments(data, width, height, params)
}

func inferChannels(data []uint8, width, height int) int {
	pixels := width * height
	if pixels > 0 && len(data) == pixels*raster.ChannelsRGBA {
		return raster.ChannelsRGBA
	}
	return raster.ChannelsRGB
}

// Accelerated reports whether an accelerated compute backend is active.
func (p *Pipeline) Accelerated() bool {
	return p.router.Accelerated()
}

// ResetCompute clears per-operation backend demotions accumulated this
// session. Capability is not re-probed.
func (p *Pipeline) ResetCompute() {
	p.router.Reset()
}

// Stats returns memory-tier cache statistics.
func (p *Pipeline) Stats() cache.Stats {
	return p.cache.Stats()
}

// Close stops the scheduler, waits for in-flight generations, releases
// every cached handle, and shuts down the compute backend. Idempotent.
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() {
		p.sched.Close()
		p.cache.Dispose()
		p.router.Close()
	})
}
