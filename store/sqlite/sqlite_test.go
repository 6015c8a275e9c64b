package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/dbmap/codec"
	"go.hackfix.me/dbmap/store"
)

var textLayout = store.Layout{Key: codec.FormatText, Value: codec.FormatText}

func newTestStore(t *testing.T, layout store.Layout) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "map.db")
	s, err := Open(context.Background(), path, layout)
	require.NoError(t, err)

	return s
}

// rawDB opens the store file directly, bypassing the backend.
func rawDB(t *testing.T, path string) *sql.DB {
	t.Helper()

	db, err := sql.Open(driverName, path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestStoreSetGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t, textLayout)

	require.NoError(t, s.Set(ctx, []byte("a"), []byte("1")))
	val, err := s.Get(ctx, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), val)

	require.NoError(t, s.Set(ctx, []byte("a"), []byte("2")))
	val, err = s.Get(ctx, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), val)

	var count int
	err = rawDB(t, s.Path()).QueryRow(`SELECT COUNT(*) FROM "map" WHERE "key" = 'a'`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = s.Get(ctx, []byte("missing"))
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.EqualError(t, err, "get: not found")
}

func TestStoreKeysByValue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t, textLayout)

	for _, kv := range [][2]string{{"c", "2"}, {"b", "1"}, {"a", "1"}} {
		require.NoError(t, s.Set(ctx, []byte(kv[0]), []byte(kv[1])))
	}

	keys, err := s.KeysByValue(ctx, []byte("1"))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, keys)

	keys, err = s.KeysByValue(ctx, []byte("2"))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("c")}, keys)

	keys, err = s.KeysByValue(ctx, []byte("3"))
	require.NoError(t, err)
	assert.NotNil(t, keys)
	assert.Empty(t, keys)

	keys, err = s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b"), []byte("c")}, keys)
}

func TestStoreDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t, textLayout)

	require.NoError(t, s.Set(ctx, []byte("a"), []byte("1")))
	require.NoError(t, s.Delete(ctx, []byte("a")))

	_, err := s.Get(ctx, []byte("a"))
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.Delete(ctx, []byte("a"))
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.EqualError(t, err, "delete: not found")
}

func TestStoreBinaryLayout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t, store.Layout{Key: codec.FormatBinary, Value: codec.FormatBinary})

	key := []byte{0x00, 0xff, 0x00}
	val := []byte{0xde, 0xad, 0xbe, 0xef}
	require.NoError(t, s.Set(ctx, key, val))

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, val, got)

	keys, err := s.KeysByValue(ctx, val)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{key}, keys)

	var typ string
	err = rawDB(t, s.Path()).QueryRow(`SELECT typeof("value") FROM "map"`).Scan(&typ)
	require.NoError(t, err)
	assert.Equal(t, "blob", typ)
}

func TestStoreReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "map.db")

	s, err := Open(ctx, path, textLayout)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, []byte("a"), []byte("persisted")))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path, textLayout)
	require.NoError(t, err)
	val, err := s.Get(ctx, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), val)

	_, err = Open(ctx, path, store.Layout{Key: codec.FormatText, Value: codec.FormatBinary})
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.ErrorContains(t, err,
		"payload format mismatch: column 'value' has type TEXT, expected BLOB")
}

func TestStoreOpenErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	testCases := []struct {
		name   string
		path   string
		opts   []Option
		expErr string
	}{
		{
			name:   "memory",
			path:   ":memory:",
			expErr: "open: storage unavailable: in-memory databases are not supported: ':memory:'",
		},
		{
			name:   "missing_dir",
			path:   filepath.Join(t.TempDir(), "missing", "map.db"),
			expErr: "open: storage unavailable: failed setting journal mode",
		},
		{
			name:   "bad_option",
			path:   filepath.Join(t.TempDir(), "map.db"),
			opts:   []Option{WithLogger(nil)},
			expErr: "open: storage unavailable: logger must not be nil",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Open(ctx, tc.path, textLayout, tc.opts...)
			assert.ErrorIs(t, err, store.ErrUnavailable)
			assert.ErrorContains(t, err, tc.expErr)
		})
	}
}

func TestStoreClosed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t, textLayout)
	require.NoError(t, s.Close())

	err := s.Set(ctx, []byte("a"), []byte("1"))
	assert.ErrorIs(t, err, store.ErrClosed)
	assert.ErrorIs(t, err, store.ErrUnavailable)

	_, err = s.Get(ctx, []byte("a"))
	assert.ErrorIs(t, err, store.ErrClosed)
	_, err = s.KeysByValue(ctx, []byte("1"))
	assert.ErrorIs(t, err, store.ErrClosed)
	_, err = s.Keys(ctx)
	assert.ErrorIs(t, err, store.ErrClosed)
	assert.ErrorIs(t, s.Delete(ctx, []byte("a")), store.ErrClosed)
}

func TestStoreInconsistent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "legacy.db")

	// A table created without the uniqueness constraint.
	db := rawDB(t, path)
	_, err := db.Exec(`CREATE TABLE "map" ("key" TEXT, "value" TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO "map" VALUES ('a', '1'), ('a', '2'), ('b', '3')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(ctx, path, textLayout)
	require.NoError(t, err)

	_, err = s.Get(ctx, []byte("a"))
	assert.ErrorIs(t, err, store.ErrInconsistent)
	assert.EqualError(t, err, "get: inconsistent storage: found 2 records for the same key")

	val, err := s.Get(ctx, []byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), val)
}

func TestStoreConcurrentSet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t, textLayout)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Set(ctx, []byte("key"), []byte{byte('0' + i)}))
		}(i)
	}
	wg.Wait()

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("key")}, keys)
}
