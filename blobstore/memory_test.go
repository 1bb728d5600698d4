package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	data := []byte("needle data")
	require.NoError(t, store.Put(ctx, "b/2", data))
	data[0] = 'X'

	w, err := store.Create(ctx, "b/1")
	require.NoError(t, err)
	_, err = w.Write([]byte("streamed"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Close(), ErrClosed)

	w, err = store.Create(ctx, "b/3")
	require.NoError(t, err)
	_, err = w.Write([]byte("discarded"))
	require.NoError(t, err)
	require.NoError(t, w.Abort())

	names, err := store.List(ctx, "b/")
	require.NoError(t, err)
	assert.Equal(t, []string{"b/1", "b/2"}, names)
	assert.Equal(t, 2, store.Len())

	got, err := ReadAll(ctx, store, "b/2")
	require.NoError(t, err)
	assert.Equal(t, "needle data", string(got))

	blob, err := store.Open(ctx, "b/1")
	require.NoError(t, err)
	r, err := blob.ReadRange(ctx, 3, 100)
	require.NoError(t, err)
	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "eamed", string(rest))

	require.NoError(t, store.Delete(ctx, "b/1"))
	_, err = store.Open(ctx, "b/1")
	assert.ErrorIs(t, err, ErrNotFound)
}
