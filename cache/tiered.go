package cache

import (
	"log/slog"

	"github.com/tesla3327/literoom/internal/logging"
	"github.com/tesla3327/literoom/raster"
	"github.com/tesla3327/literoom/store"
)

// TieredOption configures a Tiered cache.
type TieredOption func(*Tiered)

// WithErrorHook sets the observer for persistent-tier write failures.
// Failures never propagate to the request path.
func WithErrorHook(hook func(Key, error)) TieredOption {
	return func(t *Tiered) { t.errorHook = hook }
}

// WithTieredLogger sets the logger. Silent by default.
func WithTieredLogger(l *slog.Logger) TieredOption {
	return func(t *Tiered) {
		if l != nil {
			t.logger = l
		}
	}
}

// Tiered composes the memory tier with a persistent blob store. The
// persistent tier is consulted only on a memory miss; a persistent hit is
// promoted into memory. Writes go to both tiers; a persistent write
// failure is reported to the error hook and the log, never to the caller.
type Tiered struct {
	mem       *Memory
	blobs     store.BlobStore
	errorHook func(Key, error)
	logger    *slog.Logger
}

// NewTiered wraps a memory tier. blobs may be nil for a memory-only
// configuration.
func NewTiered(mem *Memory, blobs store.BlobStore, opts ...TieredOption) *Tiered {
	t := &Tiered{
		mem:    mem,
		blobs:  blobs,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Memory returns the underlying memory tier.
func (t *Tiered) Memory() *Memory { return t.mem }

// Get returns a handle for the key, consulting memory first and then the
// persistent store. A persistent hit is decoded and promoted to memory.
func (t *Tiered) Get(key Key) (Handle, bool) {
	if h, ok := t.mem.Get(key); ok {
		return h, true
	}
	if t.blobs == nil {
		return nil, false
	}
	data, ok, err := t.blobs.Get(key.String())
	if err != nil {
		t.logger.Warn("cache: persistent read failed", "key", key.String(), "err", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	r, err := raster.DecodeRaw(data)
	if err != nil {
		t.logger.Warn("cache: persistent blob corrupt", "key", key.String(), "err", err)
		return nil, false
	}
	return t.mem.Put(key, r), true
}

// Put writes to both tiers and returns the memory-tier handle. Full
// renders are export-only and never reach the persistent tier.
func (t *Tiered) Put(key Key, r *raster.Raster) Handle {
	h := t.mem.Put(key, r)
	if t.blobs != nil && key.Class != raster.Full {
		if err := t.blobs.Set(key.String(), raster.EncodeRaw(r)); err != nil {
			t.logger.Warn("cache: persistent write failed", "key", key.String(), "err", err)
			if t.errorHook != nil {
				t.errorHook(key, err)
			}
		}
	}
	return h
}

// Has reports whether the key is resident in the memory tier.
func (t *Tiered) Has(key Key) bool { return t.mem.Has(key) }

// blobRemover is the optional deletion capability of a blob store.
type blobRemover interface {
	Remove(key string) error
}

// Remove drops the key from both tiers. Persistent deletion requires the
// store to support it; stores without it keep the blob until the next Put
// overwrites it.
func (t *Tiered) Remove(key Key) bool {
	ok := t.mem.Remove(key)
	t.removeBlob(key)
	return ok
}

// RemoveAsset drops all entries of an asset from both tiers.
func (t *Tiered) RemoveAsset(assetID string) int {
	n := t.mem.RemoveAsset(assetID)
	for class := raster.ResolutionClass(0); int(class) < raster.NumClasses; class++ {
		t.removeBlob(Key{AssetID: assetID, Class: class})
	}
	return n
}

func (t *Tiered) removeBlob(key Key) {
	remover, ok := t.blobs.(blobRemover)
	if !ok {
		return
	}
	if err := remover.Remove(key.String()); err != nil {
		t.logger.Warn("cache: persistent remove failed", "key", key.String(), "err", err)
	}
}

// Dispose releases all memory-tier handles.
func (t *Tiered) Dispose() { t.mem.Dispose() }

// Stats returns the memory tier's counters.
func (t *Tiered) Stats() Stats { return t.mem.Stats() }
