// Package store defines the payload-level contract between a typed map and
// the engine that persists its records.
package store

import (
	"context"
	"fmt"

	"go.hackfix.me/dbmap/codec"
)

// Backend stores records of raw key and value payloads. Each key maps to at
// most one value, and many keys can map to the same value.
type Backend interface {
	// Set stores value under key, replacing any existing value.
	Set(ctx context.Context, key, value []byte) error
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key []byte) ([]byte, error)
	// KeysByValue returns the keys of all records whose value equals value.
	// It returns an empty slice if there are none.
	KeysByValue(ctx context.Context, value []byte) ([][]byte, error)
	// Keys returns the keys of all records.
	Keys(ctx context.Context) ([][]byte, error)
	// Delete removes the record stored under key, or returns ErrNotFound.
	Delete(ctx context.Context, key []byte) error
	// Close releases the backend. Any later call returns ErrClosed.
	Close() error
}

// Layout is the payload format of the key and value columns. It's fixed when
// a store is created.
type Layout struct {
	Key   codec.Format
	Value codec.Format
}

func (l Layout) String() string {
	return fmt.Sprintf("key=%s value=%s", l.Key, l.Value)
}
