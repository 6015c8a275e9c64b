package dbmap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/dbmap/codec"
)

func TestTextMap(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := openMap(t, storePath(t, EngineSQLite), EngineSQLite, codec.Int[int64](), codec.Float[float64]())
	tm := NewTextMap(m, codec.Int[int64](), codec.Float[float64]())

	require.NoError(t, tm.Set(ctx, "1", "2.5"))
	require.NoError(t, tm.Set(ctx, "2", "2.50"))
	require.NoError(t, tm.Set(ctx, "3", "1e3"))

	val, err := tm.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "2.5", val)

	val, err = tm.Get(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, "1000", val)

	// Values are compared after parsing, so "2.50" matches "2.5".
	keys, err := tm.GetKeys(ctx, "2.5")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2"}, keys)

	keys, err = tm.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2", "3"}, keys)

	err = tm.Set(ctx, "one", "1")
	assert.ErrorIs(t, err, ErrEncodeFailed)
	assert.ErrorContains(t, err, "insert: encode failed: failed parsing key: ")

	_, err = tm.GetKeys(ctx, "many")
	assert.ErrorIs(t, err, ErrEncodeFailed)

	_, err = tm.Get(ctx, "4")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, tm.Delete(ctx, "1"))
	assert.ErrorIs(t, tm.Delete(ctx, "1"), ErrNotFound)
	assert.ErrorIs(t, tm.Delete(ctx, "x"), ErrEncodeFailed)

	require.NoError(t, tm.Close())
	_, err = tm.Keys(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}
