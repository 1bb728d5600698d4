package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hupe1980/haystack/blobstore"
	"github.com/hupe1980/haystack/internal/fs"
	"github.com/hupe1980/haystack/internal/resource"
	"github.com/hupe1980/haystack/internal/shard"
)

const partialExt = ".partial"

// Restore downloads the backup stored under the configured prefix into dir,
// which is created if needed and must be empty. It returns the manifest of
// the restored backup.
func Restore(ctx context.Context, store blobstore.BlobStore, dir string, opts ...Option) (*Manifest, error) {
	o := applyOptions(opts)
	start := time.Now()

	m, err := LoadManifest(ctx, store, o.prefix)
	if err != nil {
		return nil, err
	}

	if err := o.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("backup: %w", err)
	}
	entries, err := o.fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("backup: %w", err)
	}
	if len(entries) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotEmpty, dir)
	}

	rc := o.controller()
	fns := make([]func(context.Context) error, 0, 2*len(m.Shards))
	for _, s := range m.Shards {
		paths := shard.PathsFor(dir, s.Number)
		fns = append(fns,
			func(ctx context.Context) error {
				return o.download(ctx, store, rc, m.Compression, s.Index, paths.Index)
			},
			func(ctx context.Context) error {
				return o.download(ctx, store, rc, m.Compression, s.Stack, paths.Stack)
			},
		)
	}
	if err := runTransfers(ctx, rc, fns); err != nil {
		return nil, err
	}
	if err := fs.SyncDir(o.fs, dir); err != nil {
		return nil, fmt.Errorf("backup: %w", err)
	}

	o.logger.Info("Backup restored",
		"dir", dir,
		"shards", len(m.Shards),
		"needles", m.NeedleCount(),
		"bytes", m.DataSize(),
		"duration", time.Since(start),
	)
	return m, nil
}

// download writes the object described by entry to path through a temporary
// file that is renamed into place once its size has been verified.
func (o *options) download(ctx context.Context, store blobstore.BlobStore, rc *resource.Controller, c Compression, entry FileEntry, path string) error {
	b, err := store.Open(ctx, o.prefix+entry.Object)
	if err != nil {
		return fmt.Errorf("backup: open %s: %w", entry.Object, err)
	}
	defer func() { _ = b.Close() }()

	if b.Size() != entry.Stored {
		return fmt.Errorf("%w: %s is %d bytes, manifest says %d", ErrSizeMismatch, entry.Object, b.Size(), entry.Stored)
	}

	var body io.ReadCloser = io.NopCloser(strings.NewReader(""))
	if b.Size() > 0 {
		body, err = b.ReadRange(ctx, 0, b.Size())
		if err != nil {
			return fmt.Errorf("backup: read %s: %w", entry.Object, err)
		}
	}
	defer func() { _ = body.Close() }()

	zr, err := c.newReader(resource.NewRateLimitedReader(ctx, body, rc))
	if err != nil {
		return fmt.Errorf("backup: read %s: %w", entry.Object, err)
	}
	defer func() { _ = zr.Close() }()

	tmp := path + partialExt
	f, err := o.fs.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("backup: %w", err)
	}

	if err := writeVerified(f, zr, entry); err != nil {
		return errors.Join(fmt.Errorf("backup: restore %s: %w", filepath.Base(path), err), o.fs.Remove(tmp))
	}
	if err := o.fs.Rename(tmp, path); err != nil {
		return errors.Join(fmt.Errorf("backup: %w", err), o.fs.Remove(tmp))
	}

	o.logger.Debug("File restored", "object", entry.Object, "path", path, "size", entry.Size)
	return nil
}

// writeVerified copies src into f, checks the size and syncs. f is always closed.
func writeVerified(f fs.File, src io.Reader, entry FileEntry) error {
	// One byte past the expected size detects an object that is too long.
	n, err := io.Copy(f, io.LimitReader(src, entry.Size+1))
	if err == nil && n != entry.Size {
		err = fmt.Errorf("%w: %s decoded to %d bytes, manifest says %d", ErrSizeMismatch, entry.Object, n, entry.Size)
	}
	if err == nil {
		err = f.Sync()
	}
	return errors.Join(err, f.Close())
}
