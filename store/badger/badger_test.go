package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/dbmap/codec"
	"go.hackfix.me/dbmap/store"
)

var textLayout = store.Layout{Key: codec.FormatText, Value: codec.FormatText}

func newTestBadger(t *testing.T) *Badger {
	t.Helper()

	b, err := Open(context.Background(), t.TempDir(), textLayout)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	return b
}

func TestBadgerSetGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := newTestBadger(t)

	require.NoError(t, b.Set(ctx, []byte("a"), []byte("1")))
	val, err := b.Get(ctx, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), val)

	require.NoError(t, b.Set(ctx, []byte("a"), []byte("2")))
	val, err = b.Get(ctx, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), val)

	// The old index entry is gone after the upsert.
	keys, err := b.KeysByValue(ctx, []byte("1"))
	require.NoError(t, err)
	assert.Empty(t, keys)

	_, err = b.Get(ctx, []byte("missing"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestBadgerKeysByValue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := newTestBadger(t)

	records := [][2]string{{"a", "1"}, {"b", "1"}, {"c", "2"}, {"d", "11"}, {"e", "1"}}
	for _, kv := range records {
		require.NoError(t, b.Set(ctx, []byte(kv[0]), []byte(kv[1])))
	}
	require.NoError(t, b.Set(ctx, []byte("e"), []byte("2")))

	keys, err := b.KeysByValue(ctx, []byte("1"))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, keys)

	keys, err = b.KeysByValue(ctx, []byte("2"))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("c"), []byte("e")}, keys)

	keys, err = b.KeysByValue(ctx, []byte("3"))
	require.NoError(t, err)
	assert.NotNil(t, keys)
	assert.Empty(t, keys)

	keys, err = b.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{
		[]byte("a"), []byte("b"), []byte("c"), []byte("d"), []byte("e"),
	}, keys)
}

func TestBadgerDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := newTestBadger(t)

	require.NoError(t, b.Set(ctx, []byte("a"), []byte("1")))
	require.NoError(t, b.Delete(ctx, []byte("a")))

	_, err := b.Get(ctx, []byte("a"))
	assert.ErrorIs(t, err, store.ErrNotFound)

	keys, err := b.KeysByValue(ctx, []byte("1"))
	require.NoError(t, err)
	assert.Empty(t, keys)

	assert.ErrorIs(t, b.Delete(ctx, []byte("a")), store.ErrNotFound)
}

func TestBadgerCanceled(t *testing.T) {
	t.Parallel()

	b := newTestBadger(t)
	require.NoError(t, b.Set(context.Background(), []byte("a"), []byte("1")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Set(ctx, []byte("b"), []byte("2"))
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualError(t, err, "set: storage unavailable: context canceled")

	_, err = b.Get(ctx, []byte("a"))
	assert.ErrorIs(t, err, context.Canceled)
	_, err = b.KeysByValue(ctx, []byte("1"))
	assert.ErrorIs(t, err, context.Canceled)
	_, err = b.Keys(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, b.Delete(ctx, []byte("a")), context.Canceled)

	// Nothing was written or deleted.
	keys, err := b.Keys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("a")}, keys)
}

func TestBadgerReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	b, err := Open(ctx, dir, textLayout)
	require.NoError(t, err)
	require.NoError(t, b.Set(ctx, []byte("a"), []byte("persisted")))
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, err = b.Get(ctx, []byte("a"))
	assert.ErrorIs(t, err, store.ErrClosed)

	b, err = Open(ctx, dir, textLayout)
	require.NoError(t, err)
	val, err := b.Get(ctx, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), val)
	require.NoError(t, b.Close())

	_, err = Open(ctx, dir, store.Layout{Key: codec.FormatBinary, Value: codec.FormatText})
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.ErrorContains(t, err, "payload format mismatch: store has layout "+
		"key=text value=text, expected key=binary value=text")
}

func TestIndexKey(t *testing.T) {
	t.Parallel()

	// "1" and "11" must not share a scan prefix.
	assert.False(t, hasPrefix(indexKey([]byte("11"), []byte("k")), indexKey([]byte("1"), nil)))
	assert.True(t, hasPrefix(indexKey([]byte("1"), []byte("k")), indexKey([]byte("1"), nil)))
}

func hasPrefix(b, prefix []byte) bool {
	return len(b) >= len(prefix) && string(b[:len(prefix)]) == string(prefix)
}
