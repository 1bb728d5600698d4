package backup

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/haystack/blobstore"
	"github.com/hupe1980/haystack/internal/engine"
	"github.com/hupe1980/haystack/internal/fs"
	"github.com/hupe1980/haystack/internal/needle"
	"github.com/hupe1980/haystack/internal/shard"
)

type stored struct {
	loc  engine.Location
	data []byte
}

// newGroup writes count random blobs into a fresh haystack group.
func newGroup(t *testing.T, count int, maxStackSize int64) (string, []stored) {
	t.Helper()
	dir := t.TempDir()
	s, err := engine.New(engine.Config{Dir: dir, MaxStackSize: maxStackSize})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	blobs := make([]stored, 0, count)
	for range count {
		data := make([]byte, 1+rng.Intn(100))
		rng.Read(data)
		loc, err := s.Write(data)
		require.NoError(t, err)
		blobs = append(blobs, stored{loc: loc, data: data})
	}
	return dir, blobs
}

func requireBlobs(t *testing.T, dir string, blobs []stored) {
	t.Helper()
	s, err := engine.New(engine.Config{Dir: dir, MaxStackSize: 1 << 20})
	require.NoError(t, err)

	report, err := s.Recover()
	require.NoError(t, err)
	require.Zero(t, report.Repaired(), "restored group must be consistent")

	for _, b := range blobs {
		got, err := s.Read(b.loc.Shard, b.loc.Needle)
		require.NoError(t, err, b.loc.String())
		require.Equal(t, b.data, got, b.loc.String())
	}
}

func TestExportRestoreRoundTrip(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(string(c), func(t *testing.T) {
			src, blobs := newGroup(t, 50, 500)
			store := blobstore.NewMemoryStore()

			m, err := Export(t.Context(), src, store, WithCompression(c), WithConcurrency(3))
			require.NoError(t, err)

			infos, err := shard.List(fs.Default, src)
			require.NoError(t, err)
			require.Len(t, m.Shards, len(infos))
			assert.Equal(t, int64(len(blobs)), m.NeedleCount())
			assert.Equal(t, c, m.Compression)

			var total int64
			for _, b := range blobs {
				total += int64(len(b.data))
			}
			assert.Equal(t, total, m.DataSize())

			names, err := store.List(t.Context(), "")
			require.NoError(t, err)
			assert.Len(t, names, 2*len(m.Shards)+1)
			assert.Contains(t, names, ManifestName)
			assert.Contains(t, names, "0000000000.stack"+c.Ext())

			dst := filepath.Join(t.TempDir(), "restored")
			restored, err := Restore(t.Context(), store, dst)
			require.NoError(t, err)
			assert.Equal(t, m.NeedleCount(), restored.NeedleCount())

			requireBlobs(t, dst, blobs)
		})
	}
}

func TestExportEmptyGroup(t *testing.T) {
	store := blobstore.NewMemoryStore()
	m, err := Export(t.Context(), t.TempDir(), store)
	require.NoError(t, err)
	assert.Empty(t, m.Shards)
	assert.Equal(t, 1, store.Len())

	dst := t.TempDir()
	_, err = Restore(t.Context(), store, dst)
	require.NoError(t, err)
	entries, err := os.ReadDir(dst)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExportSnapshotsTornShard(t *testing.T) {
	src, blobs := newGroup(t, 3, 1<<20)
	paths := shard.PathsFor(src, 0)

	// Needle 2 lost its last byte and a record is half written.
	last := blobs[2].loc
	require.NoError(t, os.Truncate(paths.Stack, last.Offset+last.Size-1))
	f, err := os.OpenFile(paths.Index, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.Write(make([]byte, 8))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	before, err := os.Stat(paths.Index)
	require.NoError(t, err)

	store := blobstore.NewMemoryStore()
	m, err := Export(t.Context(), src, store, WithCompression(CompressionZstd))
	require.NoError(t, err)
	require.Len(t, m.Shards, 1)
	assert.Equal(t, int64(2), m.Shards[0].Needles)
	assert.Equal(t, 2*int64(needle.RecordSize), m.Shards[0].Index.Size)
	assert.Equal(t, blobs[1].loc.Offset+blobs[1].loc.Size, m.Shards[0].Stack.Size)

	after, err := os.Stat(paths.Index)
	require.NoError(t, err)
	assert.Equal(t, before.Size(), after.Size(), "export must not modify the source")

	dst := t.TempDir()
	_, err = Restore(t.Context(), store, dst)
	require.NoError(t, err)
	requireBlobs(t, dst, blobs[:2])
}

func TestExportSkipsStackWithoutIndex(t *testing.T) {
	src, _ := newGroup(t, 2, 1<<20)
	require.NoError(t, os.WriteFile(filepath.Join(src, shard.StackName(5)), []byte("orphan"), 0o644))

	m, err := Export(t.Context(), src, blobstore.NewMemoryStore())
	require.NoError(t, err)
	require.Len(t, m.Shards, 1)
	assert.Equal(t, 0, m.Shards[0].Number)
}

func TestExportWithPrefix(t *testing.T) {
	src, blobs := newGroup(t, 10, 1<<20)
	store := blobstore.NewLocalStore(t.TempDir())

	_, err := Export(t.Context(), src, store, WithPrefix("nightly/2026-10-19"), WithCompression(CompressionLZ4))
	require.NoError(t, err)

	names, err := store.List(t.Context(), "")
	require.NoError(t, err)
	for _, name := range names {
		assert.Contains(t, name, "nightly/2026-10-19/")
	}

	_, err = LoadManifest(t.Context(), store, "")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	m, err := LoadManifest(t.Context(), store, "nightly/2026-10-19/")
	require.NoError(t, err)
	assert.Equal(t, CompressionLZ4, m.Compression)

	dst := t.TempDir()
	_, err = Restore(t.Context(), store, dst, WithPrefix("nightly/2026-10-19"), WithRateLimit(1<<20))
	require.NoError(t, err)
	requireBlobs(t, dst, blobs)
}

func TestRestoreRequiresEmptyDirectory(t *testing.T) {
	src, _ := newGroup(t, 2, 1<<20)
	store := blobstore.NewMemoryStore()
	_, err := Export(t.Context(), src, store)
	require.NoError(t, err)

	_, err = Restore(t.Context(), store, src)
	assert.ErrorIs(t, err, ErrNotEmpty)
}

func TestRestoreDetectsSizeMismatch(t *testing.T) {
	tests := []struct {
		name    string
		tamper  func(data []byte) []byte
		wantErr error
	}{
		{"shorter object", func(data []byte) []byte { return data[:len(data)-1] }, ErrSizeMismatch},
		{"longer object", func(data []byte) []byte { return append(data, 0) }, ErrSizeMismatch},
		// Content is not checksummed, only sized.
		{"same size", func(data []byte) []byte { return bytes.Repeat([]byte{0}, len(data)) }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, _ := newGroup(t, 5, 1<<20)
			store := blobstore.NewMemoryStore()
			m, err := Export(t.Context(), src, store)
			require.NoError(t, err)

			obj := m.Shards[0].Stack.Object
			data, err := blobstore.ReadAll(t.Context(), store, obj)
			require.NoError(t, err)
			require.NoError(t, store.Put(t.Context(), obj, tt.tamper(data)))

			dst := t.TempDir()
			_, err = Restore(t.Context(), store, dst)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			entries, err := os.ReadDir(dst)
			require.NoError(t, err)
			for _, e := range entries {
				assert.NotEqual(t, partialExt, filepath.Ext(e.Name()), "temporary file left behind")
			}
		})
	}
}

func TestRestoreVerifiesDecodedSize(t *testing.T) {
	src, _ := newGroup(t, 20, 1<<20)
	store := blobstore.NewMemoryStore()
	m, err := Export(t.Context(), src, store, WithCompression(CompressionZstd))
	require.NoError(t, err)

	// The stored object is intact, only the decoded length disagrees.
	m.Shards[0].Stack.Size++
	require.NoError(t, saveManifest(t.Context(), store, "", m))

	_, err = Restore(t.Context(), store, t.TempDir())
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestExportCanceled(t *testing.T) {
	src, _ := newGroup(t, 10, 200)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	store := blobstore.NewMemoryStore()
	_, err := Export(ctx, src, store)
	require.ErrorIs(t, err, context.Canceled)

	ok, err := blobstore.Exists(t.Context(), store, ManifestName)
	require.NoError(t, err)
	assert.False(t, ok, "manifest must not be written for a failed export")
}

func TestLoadManifestRejectsInvalid(t *testing.T) {
	valid := func() *Manifest {
		return &Manifest{
			Version:     ManifestVersion,
			Compression: CompressionZstd,
			Shards: []ShardEntry{{
				Number:  0,
				Needles: 2,
				Index:   FileEntry{Object: "0000000000.index.zst", Size: 48},
				Stack:   FileEntry{Object: "0000000000.stack.zst", Size: 10},
			}},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(m *Manifest)
	}{
		{"version", func(m *Manifest) { m.Version = 2 }},
		{"compression", func(m *Manifest) { m.Compression = "snappy" }},
		{"misaligned index", func(m *Manifest) { m.Shards[0].Index.Size = 50 }},
		{"needle count", func(m *Manifest) { m.Shards[0].Needles = 3 }},
		{"negative shard", func(m *Manifest) { m.Shards[0].Number = -1 }},
		{"duplicate shard", func(m *Manifest) { m.Shards = append(m.Shards, m.Shards[0]) }},
		{"object name", func(m *Manifest) { m.Shards[0].Stack.Object = "../etc/passwd" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid()
			tt.mutate(m)

			store := blobstore.NewMemoryStore()
			require.NoError(t, saveManifest(t.Context(), store, "", m))
			_, err := LoadManifest(t.Context(), store, "")
			assert.ErrorIs(t, err, ErrInvalidManifest)
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		require.NoError(t, store.Put(t.Context(), ManifestName, []byte("{")))
		_, err := LoadManifest(t.Context(), store, "")
		assert.ErrorIs(t, err, ErrInvalidManifest)
	})
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]Compression{
		"":     CompressionNone,
		"none": CompressionNone,
		"lz4":  CompressionLZ4,
		"zstd": CompressionZstd,
	} {
		got, err := ParseCompression(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseCompression("gzip")
	assert.Error(t, err)

	_, err = Export(t.Context(), t.TempDir(), blobstore.NewMemoryStore(), WithCompression("gzip"))
	assert.Error(t, err)
}

func ExampleExport() {
	dir, _ := os.MkdirTemp("", "haystack")
	defer os.RemoveAll(dir)

	s, _ := engine.New(engine.Config{Dir: dir, MaxStackSize: 1 << 20})
	_, _ = s.Write([]byte("hello"))

	store := blobstore.NewMemoryStore()
	m, err := Export(context.Background(), dir, store, WithCompression(CompressionZstd))
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(m.NeedleCount(), m.Shards[0].Stack.Object)
	// Output: 1 0000000000.stack.zst
}
