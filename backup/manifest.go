package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hupe1980/haystack/blobstore"
	"github.com/hupe1980/haystack/internal/needle"
	"github.com/hupe1980/haystack/internal/shard"
)

const (
	// ManifestName is the object name of the manifest, relative to the prefix.
	ManifestName = "manifest.json"
	// ManifestVersion is the version of the manifest format.
	ManifestVersion = 1
)

// Manifest describes one backup.
type Manifest struct {
	Version     int          `json:"version"`
	CreatedAt   time.Time    `json:"created_at"`
	Compression Compression  `json:"compression"`
	Shards      []ShardEntry `json:"shards"`
}

// ShardEntry describes the two files of one shard.
type ShardEntry struct {
	Number  int       `json:"number"`
	Needles int64     `json:"needles"`
	Index   FileEntry `json:"index"`
	Stack   FileEntry `json:"stack"`
}

// FileEntry describes one stored file.
type FileEntry struct {
	Object string `json:"object"` // relative to the prefix
	Size   int64  `json:"size"`   // uncompressed
	Stored int64  `json:"stored"` // bytes in the blob store
}

// DataSize returns the total stack size of the backup.
func (m *Manifest) DataSize() int64 {
	var n int64
	for _, s := range m.Shards {
		n += s.Stack.Size
	}
	return n
}

// NeedleCount returns the total number of needles in the backup.
func (m *Manifest) NeedleCount() int64 {
	var n int64
	for _, s := range m.Shards {
		n += s.Needles
	}
	return n
}

// StoredSize returns the number of bytes the backup occupies in the blob store,
// excluding the manifest.
func (m *Manifest) StoredSize() int64 {
	var n int64
	for _, s := range m.Shards {
		n += s.Index.Stored + s.Stack.Stored
	}
	return n
}

// Validate checks that the manifest describes a well-formed haystack group.
func (m *Manifest) Validate() error {
	if m.Version != ManifestVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidManifest, m.Version)
	}
	if _, err := ParseCompression(string(m.Compression)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	seen := make(map[int]struct{}, len(m.Shards))
	for _, s := range m.Shards {
		if s.Number < 0 {
			return fmt.Errorf("%w: negative shard number %d", ErrInvalidManifest, s.Number)
		}
		if _, dup := seen[s.Number]; dup {
			return fmt.Errorf("%w: duplicate shard %d", ErrInvalidManifest, s.Number)
		}
		seen[s.Number] = struct{}{}

		if !needle.Aligned(s.Index.Size) || needle.Count(s.Index.Size) != s.Needles {
			return fmt.Errorf("%w: shard %d: index size %d does not hold %d records",
				ErrInvalidManifest, s.Number, s.Index.Size, s.Needles)
		}
		if s.Stack.Size < 0 {
			return fmt.Errorf("%w: shard %d: negative stack size", ErrInvalidManifest, s.Number)
		}
		if s.Index.Object != m.objectName(shard.IndexName(s.Number)) ||
			s.Stack.Object != m.objectName(shard.StackName(s.Number)) {
			return fmt.Errorf("%w: shard %d: unexpected object names %q, %q",
				ErrInvalidManifest, s.Number, s.Index.Object, s.Stack.Object)
		}
	}
	return nil
}

func (m *Manifest) objectName(file string) string {
	return file + m.Compression.Ext()
}

// LoadManifest reads and validates the manifest stored under prefix.
func LoadManifest(ctx context.Context, store blobstore.BlobStore, prefix string) (*Manifest, error) {
	o := applyOptions([]Option{WithPrefix(prefix)})

	data, err := blobstore.ReadAll(ctx, store, o.prefix+ManifestName)
	if err != nil {
		return nil, fmt.Errorf("backup: load manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func saveManifest(ctx context.Context, store blobstore.BlobStore, prefix string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := store.Put(ctx, prefix+ManifestName, data); err != nil {
		return fmt.Errorf("backup: save manifest: %w", err)
	}
	return nil
}
