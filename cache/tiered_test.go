package cache

import (
	"errors"
	"testing"

	"github.com/tesla3327/literoom/raster"
	"github.com/tesla3327/literoom/store"
)

// failStore always fails writes.
type failStore struct {
	err error
}

func (f *failStore) Get(string) ([]byte, bool, error) { return nil, false, nil }
func (f *failStore) Set(string, []byte) error         { return f.err }

func TestTieredWriteThroughAndPromotion(t *testing.T) {
	blobs := store.NewMemStore()
	tc := NewTiered(NewMemory(), blobs)
	key := Key{AssetID: "a", Class: raster.Thumbnail}

	src := raster.New(3, 2, raster.ChannelsRGB)
	copy(src.Data(), []uint8{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18})
	tc.Put(key, src)

	if blobs.Len() != 1 {
		t.Fatalf("persistent tier has %d blobs, want 1", blobs.Len())
	}

	// Drop from memory; a Get must hit the persistent tier and promote.
	tc.Memory().Remove(key)
	if tc.Has(key) {
		t.Fatal("key resident after memory removal")
	}
	h, ok := tc.Get(key)
	if !ok {
		t.Fatal("persistent-tier miss")
	}
	got := h.Raster()
	if got.Width() != 3 || got.Height() != 2 || got.Channels() != raster.ChannelsRGB {
		t.Fatalf("promoted raster %dx%dx%d", got.Width(), got.Height(), got.Channels())
	}
	for i, v := range src.Data() {
		if got.Data()[i] != v {
			t.Fatalf("byte %d = %d, want %d", i, got.Data()[i], v)
		}
	}
	if !tc.Has(key) {
		t.Error("persistent hit was not promoted to memory")
	}
}

func TestTieredFullStaysOutOfPersistentTier(t *testing.T) {
	blobs := store.NewMemStore()
	tc := NewTiered(NewMemory(), blobs)
	key := Key{AssetID: "a", Class: raster.Full}

	if h := tc.Put(key, raster.New(2, 2, raster.ChannelsRGB)); h == nil {
		t.Fatal("Put returned no handle")
	}
	if blobs.Len() != 0 {
		t.Errorf("persistent tier has %d blobs, want 0 for a full render", blobs.Len())
	}
}

func TestTieredWriteFailureGoesToHook(t *testing.T) {
	wantErr := errors.New("disk full")
	var hookKey Key
	var hookErr error
	tc := NewTiered(NewMemory(), &failStore{err: wantErr},
		WithErrorHook(func(k Key, err error) { hookKey, hookErr = k, err }))

	key := Key{AssetID: "a", Class: raster.Thumbnail}
	h := tc.Put(key, raster.New(2, 2, raster.ChannelsRGB))
	if h == nil {
		t.Fatal("Put failed the request path")
	}
	if !errors.Is(hookErr, wantErr) || hookKey != key {
		t.Errorf("hook got (%v, %v), want (%v, %v)", hookKey, hookErr, key, wantErr)
	}
	// The memory tier must still serve the entry.
	if _, ok := tc.Get(key); !ok {
		t.Error("memory tier lost the entry after persistent failure")
	}
}

func TestTieredMemoryOnly(t *testing.T) {
	tc := NewTiered(NewMemory(), nil)
	key := Key{AssetID: "a", Class: raster.Preview}
	tc.Put(key, raster.New(2, 2, raster.ChannelsRGB))
	if _, ok := tc.Get(key); !ok {
		t.Fatal("miss in memory-only configuration")
	}
	tc.Remove(key)
	if _, ok := tc.Get(key); ok {
		t.Fatal("hit after Remove")
	}
}

func TestTieredCorruptBlobIsAMiss(t *testing.T) {
	blobs := store.NewMemStore()
	tc := NewTiered(NewMemory(), blobs)
	key := Key{AssetID: "a", Class: raster.Thumbnail}
	if err := blobs.Set(key.String(), []byte("not a raster frame")); err != nil {
		t.Fatal(err)
	}
	if _, ok := tc.Get(key); ok {
		t.Error("corrupt blob produced a hit")
	}
}

func TestTieredRemoveAssetClearsBlobs(t *testing.T) {
	dir := t.TempDir()
	fsStore, err := store.NewFSStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	tc := NewTiered(NewMemory(), fsStore)
	key := Key{AssetID: "a", Class: raster.Thumbnail}
	tc.Put(key, raster.New(2, 2, raster.ChannelsRGB))

	tc.RemoveAsset("a")
	if _, ok := tc.Get(key); ok {
		t.Error("entry survived RemoveAsset in a store with deletion support")
	}
}
