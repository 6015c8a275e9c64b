// Package dbmap implements a persistent, strongly-typed map.
//
// A Map stores records of a key of type K and a value of type V in a file,
// converting them to storage payloads with a codec for each type. Keys are
// unique: inserting an existing key replaces its value. Values are not, so a
// reverse lookup by value returns a set of keys.
//
//	m, err := dbmap.Open(ctx, "scores.db", codec.String(), codec.Int[int]())
//	if err != nil {
//		return err
//	}
//	err = m.Insert(ctx, "alice", 42)
//	score, err := m.Get(ctx, "alice")
//	names, err := m.GetKeys(ctx, 42)
//
// All errors are *Error values matching one of the Err* kinds with errors.Is.
// Operations are synchronous. If the context is canceled during a write, the
// write may or may not have been applied.
package dbmap

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"go.hackfix.me/dbmap/codec"
	"go.hackfix.me/dbmap/store"
	"go.hackfix.me/dbmap/store/badger"
	"go.hackfix.me/dbmap/store/sqlite"
)

// Engine is the storage engine backing a Map.
type Engine string

// Supported engines.
const (
	// EngineSQLite stores records in a single SQLite file, connecting to it
	// for every operation.
	EngineSQLite Engine = "sqlite"
	// EngineBadger stores records in a Badger directory kept open until Close.
	EngineBadger Engine = "badger"
)

// Map is a persistent map from K to V.
type Map[K, V any] struct {
	backend       store.Backend
	keys          codec.Codec[K]
	values        codec.Codec[V]
	logger        *slog.Logger
	skipMalformed bool
	closed        atomic.Bool
}

// Open opens the map stored at path, creating it if it doesn't exist. The
// payload formats of the key and value codecs are fixed when the store is
// created, and opening it later with codecs of a different format fails with
// ErrUnavailable.
func Open[K, V any](
	ctx context.Context, path string, keys codec.Codec[K], values codec.Codec[V],
	opts ...Option,
) (*Map[K, V], error) {
	cfg := newConfig(opts)
	layout := store.Layout{Key: keys.Format(), Value: values.Format()}

	var (
		backend store.Backend
		err     error
	)
	switch cfg.engine {
	case EngineSQLite:
		backend, err = sqlite.Open(ctx, path, layout, sqlite.WithLogger(cfg.logger))
	case EngineBadger:
		backend, err = badger.Open(ctx, path, layout, badger.WithLogger(cfg.logger))
	default:
		err = fmt.Errorf("unknown engine '%s'", cfg.engine)
	}
	if err != nil {
		return nil, relabel("open", err)
	}

	return newMap(backend, keys, values, cfg), nil
}

// New returns a Map storing records in backend.
func New[K, V any](
	backend store.Backend, keys codec.Codec[K], values codec.Codec[V], opts ...Option,
) *Map[K, V] {
	return newMap(backend, keys, values, newConfig(opts))
}

func newMap[K, V any](
	backend store.Backend, keys codec.Codec[K], values codec.Codec[V], cfg *config,
) *Map[K, V] {
	return &Map[K, V]{
		backend:       backend,
		keys:          keys,
		values:        values,
		logger:        cfg.logger,
		skipMalformed: cfg.skipMalformed,
	}
}

// Insert stores value under key, replacing the existing value if key is
// already present.
func (m *Map[K, V]) Insert(ctx context.Context, key K, value V) error {
	const op = "insert"
	if m.closed.Load() {
		return store.NewError(op, ErrClosed, nil)
	}

	kp, err := m.keys.Encode(key)
	if err != nil {
		return store.NewError(op, ErrEncodeFailed, fmt.Errorf("key: %w", err))
	}
	vp, err := m.values.Encode(value)
	if err != nil {
		return store.NewError(op, ErrEncodeFailed, fmt.Errorf("value: %w", err))
	}

	if err := m.backend.Set(ctx, kp, vp); err != nil {
		return relabel(op, err)
	}

	return nil
}

// Get returns the value stored under key. It fails with ErrNotFound if there
// is none, and with ErrDecodeFailed if the stored value can't be decoded.
func (m *Map[K, V]) Get(ctx context.Context, key K) (V, error) {
	const op = "get"
	var zero V
	if m.closed.Load() {
		return zero, store.NewError(op, ErrClosed, nil)
	}

	kp, err := m.keys.Encode(key)
	if err != nil {
		return zero, store.NewError(op, ErrEncodeFailed, fmt.Errorf("key: %w", err))
	}

	vp, err := m.backend.Get(ctx, kp)
	if err != nil {
		return zero, relabel(op, err)
	}

	value, err := m.values.Decode(vp)
	if err != nil {
		return zero, store.NewError(op, ErrDecodeFailed, fmt.Errorf("value: %w", err))
	}

	return value, nil
}

// GetKeys returns the keys of all records storing value, in no particular
// order. It returns an empty slice if there are none.
//
// If a matching key can't be decoded, the lookup fails with ErrDecodeFailed,
// unless the map was opened WithSkipMalformed.
func (m *Map[K, V]) GetKeys(ctx context.Context, value V) ([]K, error) {
	const op = "get keys"
	if m.closed.Load() {
		return nil, store.NewError(op, ErrClosed, nil)
	}

	vp, err := m.values.Encode(value)
	if err != nil {
		return nil, store.NewError(op, ErrEncodeFailed, fmt.Errorf("value: %w", err))
	}

	kps, err := m.backend.KeysByValue(ctx, vp)
	if err != nil {
		return nil, relabel(op, err)
	}

	return m.decodeKeys(op, kps)
}

// Keys returns the keys of all records, in no particular order. Keys that
// can't be decoded are handled as in GetKeys.
func (m *Map[K, V]) Keys(ctx context.Context) ([]K, error) {
	const op = "keys"
	if m.closed.Load() {
		return nil, store.NewError(op, ErrClosed, nil)
	}

	kps, err := m.backend.Keys(ctx)
	if err != nil {
		return nil, relabel(op, err)
	}

	return m.decodeKeys(op, kps)
}

// Delete removes the record stored under key. It fails with ErrNotFound if
// there is none.
func (m *Map[K, V]) Delete(ctx context.Context, key K) error {
	const op = "delete"
	if m.closed.Load() {
		return store.NewError(op, ErrClosed, nil)
	}

	kp, err := m.keys.Encode(key)
	if err != nil {
		return store.NewError(op, ErrEncodeFailed, fmt.Errorf("key: %w", err))
	}

	if err := m.backend.Delete(ctx, kp); err != nil {
		return relabel(op, err)
	}

	return nil
}

// Close closes the map. Any later operation fails with ErrClosed.
func (m *Map[K, V]) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	return m.backend.Close()
}

func (m *Map[K, V]) decodeKeys(op string, payloads [][]byte) ([]K, error) {
	keys := make([]K, 0, len(payloads))
	for _, kp := range payloads {
		key, err := m.keys.Decode(kp)
		if err != nil {
			if m.skipMalformed {
				m.logger.Warn("skipping malformed key", "op", op, "error", err)
				continue
			}
			return nil, store.NewError(op, ErrDecodeFailed, fmt.Errorf("key: %w", err))
		}
		keys = append(keys, key)
	}

	return keys, nil
}
