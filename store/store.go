// Package store defines the persistent blob-store capability backing the
// cache's second tier, plus filesystem and in-memory implementations.
package store

// BlobStore is an external key to blob mapping. Implementations must be
// safe for concurrent use.
//
// Get returns (nil, false, nil) for a missing key; an error means the
// lookup itself failed. Set overwrites any previous value.
type BlobStore interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, data []byte) error
}
