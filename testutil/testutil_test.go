package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNGDeterministic(t *testing.T) {
	a := NewRNG(42)
	b := NewRNG(42)
	assert.Equal(t, a.Bytes(32), b.Bytes(32))
	assert.Equal(t, int64(42), a.Seed())

	first := a.Intn(1000)
	a.Reset()
	_ = a.Bytes(32)
	assert.Equal(t, first, a.Intn(1000))
}

func TestBlobs(t *testing.T) {
	blobs := NewRNG(1).Blobs(50, 3, 9)
	require.Len(t, blobs, 50)
	for _, b := range blobs {
		assert.GreaterOrEqual(t, len(b), 3)
		assert.LessOrEqual(t, len(b), 9)
	}
}

func TestFileHelpers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0644))

	AppendBytes(t, path, []byte("de"))
	assert.Equal(t, int64(5), FileSize(t, path))

	Truncate(t, path, 1)
	assert.Equal(t, map[string]int64{"f": 1}, Snapshot(t, dir))
}
