package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
)

// blobExt is the file extension of stored blobs.
const blobExt = ".lr"

// FSStore is a BlobStore over a directory. Each blob lives in its own
// file named by the xxhash digest of its key, so keys never touch the
// filesystem namespace. Writes go through a temp file and rename, so a
// reader never observes a partial blob.
type FSStore struct {
	dir string
}

// NewFSStore creates the directory if needed and returns a store over it.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create dir: %w", err)
	}
	return &FSStore{dir: dir}, nil
}

// Dir returns the store's directory.
func (s *FSStore) Dir() string { return s.dir }

func (s *FSStore) path(key string) string {
	digest := xxhash.Sum64String(key)
	return filepath.Join(s.dir, fmt.Sprintf("%016x%s", digest, blobExt))
}

// Get implements BlobStore.
func (s *FSStore) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: read blob: %w", err)
	}
	return data, true, nil
}

// Set implements BlobStore.
func (s *FSStore) Set(key string, data []byte) error {
	dst := s.path(key)
	tmp, err := os.CreateTemp(s.dir, "blob-*.tmp")
	if err != nil {
		return fmt.Errorf("store: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("store: write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: close temp: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: rename blob: %w", err)
	}
	return nil
}

// Remove deletes a blob. Missing keys are not an error.
func (s *FSStore) Remove(key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
