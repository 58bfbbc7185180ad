// Package cache provides the bounded in-memory raster cache and its
// two-tier composition with a persistent blob store.
package cache

import (
	"fmt"
	"sync/atomic"

	"github.com/tesla3327/literoom/raster"
)

// Key identifies a cached rendering.
type Key struct {
	AssetID string
	Class   raster.ResolutionClass
}

// String returns the key's blob-store form.
func (k Key) String() string {
	return k.AssetID + "@" + k.Class.String()
}

// Handle is a borrowed view of a cached raster. The cache releases the
// underlying resource when the entry is evicted or removed; holders that
// outlive the entry keep the raster alive through the handle but must not
// use it after calling Release.
type Handle interface {
	// Raster returns the pixel data. Never nil for a live handle.
	Raster() *raster.Raster

	// Key returns the cache key this handle was produced for.
	Key() Key

	// Release revokes the handle's resource. Safe to call more than
	// once; only the first call has effect.
	Release()
}

// handle is the cache's Handle implementation. The release hook runs
// exactly once, whether release comes from eviction or from the holder.
type handle struct {
	key      Key
	raster   *raster.Raster
	released atomic.Bool
	onEvict  func(Key)
}

func newHandle(key Key, r *raster.Raster, onEvict func(Key)) *handle {
	return &handle{key: key, raster: r, onEvict: onEvict}
}

func (h *handle) Raster() *raster.Raster { return h.raster }
func (h *handle) Key() Key               { return h.key }

func (h *handle) Release() {
	if !h.released.CompareAndSwap(false, true) {
		return
	}
	if h.onEvict != nil {
		h.onEvict(h.key)
	}
}

// Released reports whether Release has run. Used by eviction tests.
func (h *handle) Released() bool { return h.released.Load() }

// Stats is a snapshot of cache counters.
type Stats struct {
	Len       int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
	HitRate   float64
}

func (s Stats) String() string {
	return fmt.Sprintf("len=%d cap=%d hits=%d misses=%d evictions=%d hit-rate=%.2f",
		s.Len, s.Capacity, s.Hits, s.Misses, s.Evictions, s.HitRate)
}
