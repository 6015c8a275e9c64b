// Package badger implements a store backend on a Badger database directory.
//
// Unlike the SQLite backend, it keeps the database open until Close, since
// Badger holds an exclusive lock on its directory while open. Records are kept
// under a "k/" prefix, and a reverse index under "v/" maps each value to the
// keys storing it.
package badger

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	badger "github.com/dgraph-io/badger/v4"

	"go.hackfix.me/dbmap/codec"
	"go.hackfix.me/dbmap/store"
)

var (
	recordPrefix = []byte("k/")
	indexPrefix  = []byte("v/")
	layoutKey    = []byte("m/layout")
)

// Badger is a backend storing records in a Badger database.
type Badger struct {
	db     *badger.DB
	layout store.Layout
	logger *slog.Logger
	closed atomic.Bool
}

var _ store.Backend = &Badger{}

// Option is a function that allows configuring the store.
type Option func(*Badger)

// WithLogger sets the logger used by the store and by Badger itself.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Badger) {
		b.logger = logger
	}
}

// Open opens or creates the Badger database in the directory at path. The
// layout is recorded on creation, and reopening with another layout fails.
// All failures match store.ErrUnavailable.
func Open(ctx context.Context, path string, layout store.Layout, opts ...Option) (*Badger, error) {
	b := &Badger{layout: layout, logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}

	bopts := badger.DefaultOptions(path).WithLogger(&slogLogger{b.logger})
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, store.NewError("open", store.ErrUnavailable, err)
	}
	b.db = db

	if err := b.checkLayout(); err != nil {
		db.Close()
		return nil, store.NewError("open", store.ErrUnavailable, err)
	}

	b.logger.Debug("opened Badger store", "path", path, "layout", layout.String())

	return b, nil
}

func (b *Badger) checkLayout() error {
	want := []byte{byte(b.layout.Key), byte(b.layout.Value)}

	return b.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(layoutKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return txn.Set(layoutKey, want)
		} else if err != nil {
			return err
		}

		got, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if !bytes.Equal(got, want) {
			return fmt.Errorf("payload format mismatch: store has layout %s, expected %s",
				decodeLayout(got), b.layout)
		}

		return nil
	})
}

// Close closes the Badger database.
func (b *Badger) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	return b.db.Close()
}

// Set stores value under key and updates the reverse index in the same
// transaction.
func (b *Badger) Set(ctx context.Context, key, value []byte) error {
	const op = "set"
	if err := b.begin(ctx, op); err != nil {
		return err
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		rk := recordKey(key)
		item, err := txn.Get(rk)
		switch {
		case err == nil:
			old, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := txn.Delete(indexKey(old, key)); err != nil {
				return err
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		if err := txn.Set(rk, value); err != nil {
			return err
		}
		return txn.Set(indexKey(value, key), []byte{})
	})
	if err != nil {
		return store.NewError(op, store.ErrUnavailable, err)
	}

	return nil
}

// Get returns the value stored under key.
func (b *Badger) Get(ctx context.Context, key []byte) ([]byte, error) {
	const op = "get"
	if err := b.begin(ctx, op); err != nil {
		return nil, err
	}

	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.NewError(op, store.ErrNotFound, nil)
	} else if err != nil {
		return nil, store.NewError(op, store.ErrUnavailable, err)
	}

	return value, nil
}

// KeysByValue returns the keys of all records storing value, ordered by key.
func (b *Badger) KeysByValue(ctx context.Context, value []byte) ([][]byte, error) {
	const op = "keys by value"
	if err := b.begin(ctx, op); err != nil {
		return nil, err
	}

	keys, err := b.scanKeys(ctx, indexKey(value, nil))
	if err != nil {
		return nil, store.NewError(op, store.ErrUnavailable, err)
	}

	return keys, nil
}

// Keys returns the keys of all records, ordered by key.
func (b *Badger) Keys(ctx context.Context) ([][]byte, error) {
	const op = "keys"
	if err := b.begin(ctx, op); err != nil {
		return nil, err
	}

	keys, err := b.scanKeys(ctx, recordPrefix)
	if err != nil {
		return nil, store.NewError(op, store.ErrUnavailable, err)
	}

	return keys, nil
}

// Delete removes the record stored under key and its index entry.
func (b *Badger) Delete(ctx context.Context, key []byte) error {
	const op = "delete"
	if err := b.begin(ctx, op); err != nil {
		return err
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		rk := recordKey(key)
		item, err := txn.Get(rk)
		if err != nil {
			return err
		}
		old, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := txn.Delete(indexKey(old, key)); err != nil {
			return err
		}
		return txn.Delete(rk)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return store.NewError(op, store.ErrNotFound, nil)
	} else if err != nil {
		return store.NewError(op, store.ErrUnavailable, err)
	}

	return nil
}

// begin checks that the store is open and that ctx is not done.
func (b *Badger) begin(ctx context.Context, op string) error {
	if b.closed.Load() {
		return store.NewError(op, store.ErrClosed, nil)
	}
	if err := ctx.Err(); err != nil {
		return store.NewError(op, store.ErrUnavailable, err)
	}
	return nil
}

// scanKeys returns the suffixes after prefix of all keys starting with it.
func (b *Badger) scanKeys(ctx context.Context, prefix []byte) ([][]byte, error) {
	keys := [][]byte{}
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		// Enable key-only iteration, which is more efficient.
		opts.PrefetchValues = false
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			k := it.Item().KeyCopy(nil)
			keys = append(keys, k[len(prefix):])
		}

		return nil
	})

	return keys, err
}

func recordKey(key []byte) []byte {
	return append(append([]byte{}, recordPrefix...), key...)
}

// indexKey returns the reverse index entry for the value stored under key.
// The value is length-prefixed so that scanning for one value never matches
// another value it is a prefix of. A nil key returns the scan prefix for value.
func indexKey(value, key []byte) []byte {
	ik := append([]byte{}, indexPrefix...)
	ik = binary.AppendUvarint(ik, uint64(len(value)))
	ik = append(ik, value...)
	return append(ik, key...)
}

func decodeLayout(data []byte) string {
	if len(data) != 2 {
		return fmt.Sprintf("%x", data)
	}
	return store.Layout{Key: codec.Format(data[0]), Value: codec.Format(data[1])}.String()
}

// slogLogger passes Badger's logs to a slog.Logger. Badger is chatty at the
// info level, so those are logged as debug.
type slogLogger struct {
	logger *slog.Logger
}

func (l *slogLogger) Errorf(msg string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(strings.TrimSpace(msg), args...), "component", "badger")
}

func (l *slogLogger) Warningf(msg string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(strings.TrimSpace(msg), args...), "component", "badger")
}

func (l *slogLogger) Infof(msg string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(strings.TrimSpace(msg), args...), "component", "badger")
}

func (l *slogLogger) Debugf(msg string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(strings.TrimSpace(msg), args...), "component", "badger")
}
