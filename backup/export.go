package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/hupe1980/haystack/blobstore"
	"github.com/hupe1980/haystack/internal/fs"
	"github.com/hupe1980/haystack/internal/needle"
	"github.com/hupe1980/haystack/internal/resource"
	"github.com/hupe1980/haystack/internal/shard"
)

// snapshot is the consistent prefix of one shard.
type snapshot struct {
	number   int
	paths    shard.Paths
	indexLen int64
	stackLen int64
}

// takeSnapshot cuts the index to whole records and drops trailing records
// whose needle extends past the current stack.
func takeSnapshot(fsys fs.FileSystem, info shard.Info) (snapshot, error) {
	snap := snapshot{number: info.Number, paths: info.Paths}

	var stackSize int64
	if info.HasStack {
		stackSize = info.StackSize
	}

	f, err := fsys.OpenFile(info.Index, os.O_RDONLY, 0)
	if err != nil {
		return snap, err
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, needle.RecordSize)
	for end := needle.Floor(info.IndexSize); end > 0; end -= needle.RecordSize {
		if _, err := f.ReadAt(buf, end-needle.RecordSize); err != nil {
			return snap, fmt.Errorf("read record at %d: %w", end-needle.RecordSize, err)
		}
		rec, err := needle.Decode(buf)
		if err != nil {
			return snap, err
		}
		if rec.End() <= stackSize {
			snap.indexLen, snap.stackLen = end, rec.End()
			return snap, nil
		}
	}
	return snap, nil
}

// Export copies a consistent snapshot of the haystack group in dir to store
// and returns the manifest that was written.
func Export(ctx context.Context, dir string, store blobstore.BlobStore, opts ...Option) (*Manifest, error) {
	o := applyOptions(opts)
	start := time.Now()

	infos, err := shard.List(o.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("backup: list shards: %w", err)
	}

	m := &Manifest{
		Version:     ManifestVersion,
		CreatedAt:   start.UTC(),
		Compression: o.compression,
		Shards:      make([]ShardEntry, 0, len(infos)),
	}
	if _, err := ParseCompression(string(o.compression)); err != nil {
		return nil, err
	}

	var snaps []snapshot
	for _, info := range infos {
		if !info.HasIndex {
			o.logger.Warn("Skipping stack without index", "shard", info.Number)
			continue
		}
		snap, err := takeSnapshot(o.fs, info)
		if err != nil {
			return nil, fmt.Errorf("backup: snapshot shard %d: %w", info.Number, err)
		}
		snaps = append(snaps, snap)
		m.Shards = append(m.Shards, ShardEntry{
			Number:  snap.number,
			Needles: needle.Count(snap.indexLen),
			Index:   FileEntry{Object: m.objectName(shard.IndexName(snap.number)), Size: snap.indexLen},
			Stack:   FileEntry{Object: m.objectName(shard.StackName(snap.number)), Size: snap.stackLen},
		})
	}

	rc := o.controller()
	fns := make([]func(context.Context) error, 0, 2*len(snaps))
	for i, snap := range snaps {
		entry := &m.Shards[i]
		fns = append(fns,
			func(ctx context.Context) error {
				return o.upload(ctx, store, rc, snap.paths.Index, &entry.Index)
			},
			func(ctx context.Context) error {
				return o.upload(ctx, store, rc, snap.paths.Stack, &entry.Stack)
			},
		)
	}
	if err := runTransfers(ctx, rc, fns); err != nil {
		return nil, err
	}

	if err := saveManifest(ctx, store, o.prefix, m); err != nil {
		return nil, err
	}

	o.logger.Info("Backup exported",
		"shards", len(m.Shards),
		"needles", m.NeedleCount(),
		"bytes", m.DataSize(),
		"stored", m.StoredSize(),
		"compression", string(m.Compression),
		"duration", time.Since(start),
	)
	return m, nil
}

// upload streams the first entry.Size bytes of path into the object named by
// entry and records the stored size.
func (o *options) upload(ctx context.Context, store blobstore.BlobStore, rc *resource.Controller, path string, entry *FileEntry) error {
	var src io.Reader = strings.NewReader("")
	if entry.Size > 0 {
		f, err := o.fs.OpenFile(path, os.O_RDONLY, 0)
		if err != nil {
			return fmt.Errorf("backup: %w", err)
		}
		defer func() { _ = f.Close() }()
		src = io.NewSectionReader(f, 0, entry.Size)
	}

	w, err := store.Create(ctx, o.prefix+entry.Object)
	if err != nil {
		return fmt.Errorf("backup: create %s: %w", entry.Object, err)
	}

	stored := &countingWriter{w: w}
	n, err := o.copyCompressed(stored, resource.NewRateLimitedReader(ctx, src, rc))
	if err == nil && n != entry.Size {
		err = fmt.Errorf("%w: copied %d of %d bytes", ErrSizeMismatch, n, entry.Size)
	}
	if err != nil {
		return errors.Join(fmt.Errorf("backup: upload %s: %w", entry.Object, err), w.Abort())
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("backup: upload %s: %w", entry.Object, err)
	}

	entry.Stored = stored.n
	o.logger.Debug("File uploaded", "object", entry.Object, "size", entry.Size, "stored", entry.Stored)
	return nil
}

func (o *options) copyCompressed(dst io.Writer, src io.Reader) (int64, error) {
	zw, err := o.compression.newWriter(dst)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(zw, src)
	if err != nil {
		_ = zw.Close()
		return n, err
	}
	return n, zw.Close()
}
