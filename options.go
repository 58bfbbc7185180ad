package literoom

import (
	"github.com/tesla3327/literoom/cache"
	"github.com/tesla3327/literoom/compute"
	"github.com/tesla3327/literoom/store"
)

// Option configures a Pipeline during creation.
//
// Example:
//
//	// Defaults: in-memory cache only, automatic backend probe.
//	p := literoom.New()
//
//	// Persistent tier plus a larger thumbnail cache:
//	p := literoom.New(
//	    literoom.WithBlobStore(fsStore),
//	    literoom.WithThumbnailCapacity(400),
//	)
type Option func(*pipelineOptions)

// pipelineOptions holds optional configuration for Pipeline creation.
type pipelineOptions struct {
	thumbnailCapacity int
	previewCapacity   int
	blobs             store.BlobStore
	backend           compute.Backend
	concurrency       int64
	storeErrorHook    func(cache.Key, error)
}

func defaultPipelineOptions() pipelineOptions {
	return pipelineOptions{
		thumbnailCapacity: cache.DefaultThumbnailCapacity,
		previewCapacity:   cache.DefaultPreviewCapacity,
		concurrency:       1,
	}
}

// WithThumbnailCapacity bounds the in-memory thumbnail tier to n entries.
// Zero disables thumbnail caching.
func WithThumbnailCapacity(n int) Option {
	return func(o *pipelineOptions) {
		if n >= 0 {
			o.thumbnailCapacity = n
		}
	}
}

// WithPreviewCapacity bounds the in-memory preview tier to n entries.
// Zero disables preview caching.
func WithPreviewCapacity(n int) Option {
	return func(o *pipelineOptions) {
		if n >= 0 {
			o.previewCapacity = n
		}
	}
}

// WithBlobStore attaches a persistent tier. Rendered rasters are written
// through to it and consulted on memory-tier misses, so thumbnails survive
// process restarts. Without it the pipeline is memory-only.
func WithBlobStore(s store.BlobStore) Option {
	return func(o *pipelineOptions) {
		o.blobs = s
	}
}

// WithBackend pins the compute backend instead of probing the registry.
// Use this for dependency injection in tests or to force a backend.
func WithBackend(b compute.Backend) Option {
	return func(o *pipelineOptions) {
		o.backend = b
	}
}

// WithConcurrency sets how many generations of one resolution class may run
// at once. The default of 1 bounds memory pressure from simultaneous large
// rasters.
func WithConcurrency(n int64) Option {
	return func(o *pipelineOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithStoreErrorHook observes persistent-tier write failures. Writes are
// fire-and-forget from the request path; the hook is the only place such
// failures surface.
func WithStoreErrorHook(hook func(cache.Key, error)) Option {
	return func(o *pipelineOptions) {
		o.storeErrorHook = hook
	}
}
