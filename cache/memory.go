package cache

import (
	"sync"
	"sync/atomic"

	"github.com/tesla3327/literoom/raster"
)

// Default per-class entry capacities. Full renders are export-only and
// never cached at this tier.
const (
	DefaultThumbnailCapacity = 150
	DefaultPreviewCapacity   = 20
)

// MemoryOption configures a Memory tier.
type MemoryOption func(*Memory)

// WithCapacity overrides the entry capacity of one resolution class.
// Zero disables caching for the class.
func WithCapacity(class raster.ResolutionClass, n int) MemoryOption {
	return func(m *Memory) {
		if class.Valid() && n >= 0 {
			m.classes[class].capacity = n
		}
	}
}

// WithReleaseHook sets a function invoked exactly once per entry when its
// handle is released (eviction, removal, disposal, or the holder's own
// Release call). Used to revoke display resources tied to an entry.
func WithReleaseHook(hook func(Key)) MemoryOption {
	return func(m *Memory) { m.releaseHook = hook }
}

// Memory is the bounded in-memory tier. Each resolution class has an
// independent capacity and LRU order. Safe for concurrent use.
type Memory struct {
	mu          sync.Mutex
	classes     [raster.NumClasses]*classTier
	releaseHook func(Key)

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type classTier struct {
	capacity int
	entries  map[Key]*memEntry
	lru      lruList
}

type memEntry struct {
	handle *handle
	node   *lruNode
}

// NewMemory creates a memory tier with the default class capacities.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{}
	for class := range m.classes {
		m.classes[class] = &classTier{entries: make(map[Key]*memEntry)}
	}
	m.classes[raster.Thumbnail].capacity = DefaultThumbnailCapacity
	m.classes[raster.Preview].capacity = DefaultPreviewCapacity
	m.classes[raster.Full].capacity = 0
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the handle for a key and promotes its recency.
func (m *Memory) Get(key Key) (Handle, bool) {
	m.mu.Lock()
	tier := m.classes[key.Class]
	e, ok := tier.entries[key]
	if !ok {
		m.mu.Unlock()
		m.misses.Add(1)
		return nil, false
	}
	tier.lru.MoveToFront(e.node)
	h := e.handle
	m.mu.Unlock()
	m.hits.Add(1)
	return h, true
}

// Has reports whether a key is resident without promoting it.
func (m *Memory) Has(key Key) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.classes[key.Class].entries[key]
	return ok
}

// Put inserts a raster and returns its handle, evicting least recently
// used entries of the same class when over capacity. A class with zero
// capacity returns an unmanaged handle and caches nothing. Replacing an
// existing entry releases the old handle.
func (m *Memory) Put(key Key, r *raster.Raster) Handle {
	h := newHandle(key, r, m.releaseHook)

	m.mu.Lock()
	tier := m.classes[key.Class]
	if tier.capacity == 0 {
		m.mu.Unlock()
		return h
	}

	var released []*handle
	if old, ok := tier.entries[key]; ok {
		released = append(released, old.handle)
		tier.lru.Remove(old.node)
		delete(tier.entries, key)
	}
	for tier.lru.Len() >= tier.capacity {
		oldest, ok := tier.lru.RemoveOldest()
		if !ok {
			break
		}
		released = append(released, tier.entries[oldest].handle)
		delete(tier.entries, oldest)
		m.evictions.Add(1)
	}
	node := tier.lru.PushFront(key)
	tier.entries[key] = &memEntry{handle: h, node: node}
	m.mu.Unlock()

	// Release outside the lock; hooks may be arbitrary code.
	for _, old := range released {
		old.Release()
	}
	return h
}

// Remove drops a key and releases its handle. Reports whether the key
// was resident.
func (m *Memory) Remove(key Key) bool {
	m.mu.Lock()
	tier := m.classes[key.Class]
	e, ok := tier.entries[key]
	if ok {
		tier.lru.Remove(e.node)
		delete(tier.entries, key)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	e.handle.Release()
	return true
}

// RemoveAsset drops every class entry of an asset. Returns the number of
// entries removed.
func (m *Memory) RemoveAsset(assetID string) int {
	var dropped []*handle
	m.mu.Lock()
	for _, tier := range m.classes {
		for key, e := range tier.entries {
			if key.AssetID == assetID {
				tier.lru.Remove(e.node)
				delete(tier.entries, key)
				dropped = append(dropped, e.handle)
			}
		}
	}
	m.mu.Unlock()
	for _, h := range dropped {
		h.Release()
	}
	return len(dropped)
}

// Dispose releases every handle and empties the tier.
func (m *Memory) Dispose() {
	var dropped []*handle
	m.mu.Lock()
	for _, tier := range m.classes {
		for key, e := range tier.entries {
			dropped = append(dropped, e.handle)
			tier.lru.Remove(e.node)
			delete(tier.entries, key)
		}
	}
	m.mu.Unlock()
	for _, h := range dropped {
		h.Release()
	}
}

// Len returns the number of resident entries across all classes.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, tier := range m.classes {
		total += len(tier.entries)
	}
	return total
}

// Capacity returns the entry capacity of a class.
func (m *Memory) Capacity(class raster.ResolutionClass) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.classes[class].capacity
}

// Stats returns a counter snapshot.
func (m *Memory) Stats() Stats {
	hits := m.hits.Load()
	misses := m.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	capacity := 0
	m.mu.Lock()
	for _, tier := range m.classes {
		capacity += tier.capacity
	}
	m.mu.Unlock()
	return Stats{
		Len:       m.Len(),
		Capacity:  capacity,
		Hits:      hits,
		Misses:    misses,
		Evictions: m.evictions.Load(),
		HitRate:   rate,
	}
}
