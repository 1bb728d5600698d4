package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hupe1980/haystack/internal/blockio"
	"github.com/hupe1980/haystack/internal/cache"
	"github.com/hupe1980/haystack/internal/fs"
	"github.com/hupe1980/haystack/internal/needle"
	"github.com/hupe1980/haystack/internal/shard"
)

// Read returns the bytes of needle n in shard sh.
func (s *Stacker) Read(sh, n int) ([]byte, error) {
	if s.cache != nil {
		if b, ok := s.cache.Get(cache.Key{Shard: sh, Needle: n}); ok {
			return bytes.Clone(b), nil
		}
	}

	start := time.Now()
	loc, stackPath, err := s.locate(sh, n)
	if err != nil {
		return nil, err
	}

	r, err := s.bio.OpenForRead(s.fs, stackPath)
	if err != nil {
		return nil, ioFault("open", stackPath, err)
	}
	defer r.Close()

	if err := r.Seek(loc.Offset); err != nil {
		return nil, ioFault("seek", stackPath, err)
	}
	data := make([]byte, loc.Size)
	got, err := blockio.ReadFull(r, data, s.bio.BlockSize())
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, shortRead(loc, int64(got))
		}
		return nil, ioFault("read", stackPath, err)
	}

	if s.cache != nil {
		s.cache.Set(cache.Key{Shard: sh, Needle: n}, bytes.Clone(data))
	}
	s.logger.Debug("Needle read",
		"shard", sh,
		"needle", n,
		"size", loc.Size,
		"duration", time.Since(start),
	)
	return data, nil
}

// ReadTo streams needle n of shard sh into w and returns the bytes copied.
func (s *Stacker) ReadTo(w io.Writer, sh, n int) (int64, error) {
	loc, stackPath, err := s.locate(sh, n)
	if err != nil {
		return 0, err
	}

	r, err := s.bio.OpenForRead(s.fs, stackPath)
	if err != nil {
		return 0, ioFault("open", stackPath, err)
	}
	defer r.Close()

	if err := r.Seek(loc.Offset); err != nil {
		return 0, ioFault("seek", stackPath, err)
	}
	buf := make([]byte, max(min(int64(s.bio.BlockSize()), loc.Size), 1))
	copied, err := io.CopyBuffer(w, io.LimitReader(r, loc.Size), buf)
	if err != nil {
		return copied, fmt.Errorf("copy needle %s: %w", loc, err)
	}
	if copied < loc.Size {
		return copied, shortRead(loc, copied)
	}
	return copied, nil
}

// ReadFile writes needle n of shard sh to the named file, replacing it.
func (s *Stacker) ReadFile(path string, sh, n int) (int64, error) {
	// Locate first so a missing needle does not leave an empty file behind.
	if _, _, err := s.locate(sh, n); err != nil {
		return 0, err
	}
	f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, ioFault("create", path, err)
	}
	copied, err := s.ReadTo(f, sh, n)
	if err != nil {
		_ = f.Close()
		return copied, err
	}
	if err := f.Close(); err != nil {
		return copied, ioFault("close", path, err)
	}
	return copied, nil
}

// Locate returns the decoded index record of needle n in shard sh.
func (s *Stacker) Locate(sh, n int) (Location, error) {
	loc, _, err := s.locate(sh, n)
	return loc, err
}

func (s *Stacker) locate(sh, n int) (Location, string, error) {
	if sh < 0 || n < 0 {
		return Location{}, "", fmt.Errorf("%w: needle %d/%d", ErrNotFound, sh, n)
	}
	paths := shard.PathsFor(s.cfg.Dir, sh)

	indexLen, err := s.size(paths.Index, sh)
	if err != nil {
		return Location{}, "", err
	}
	stackLen, err := s.size(paths.Stack, sh)
	if err != nil {
		return Location{}, "", err
	}
	if needle.Position(n)+needle.RecordSize > indexLen {
		return Location{}, "", fmt.Errorf("%w: needle %d/%d (shard holds %d)", ErrNotFound, sh, n, needle.Count(indexLen))
	}

	rec, err := s.readRecord(paths.Index, needle.Position(n))
	if err != nil {
		return Location{}, "", ioFault("read", paths.Index, err)
	}
	if err := rec.Validate(); err != nil || int(rec.Shard) != sh || int(rec.Needle) != n {
		return Location{}, "", fmt.Errorf("%w: %w: %s holds %+v at needle %d", ErrIOFault, ErrCorrupt, paths.Index, rec, n)
	}

	loc := locationOf(rec)
	if loc.Offset+loc.Size > stackLen {
		return Location{}, "", shortRead(loc, max(stackLen-loc.Offset, 0))
	}
	return loc, paths.Stack, nil
}

// size stats a shard file, mapping absence to ErrNotFound.
func (s *Stacker) size(path string, sh int) (int64, error) {
	size, err := fs.Size(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: shard %d (%s)", ErrNotFound, sh, path)
		}
		return 0, ioFault("stat", path, err)
	}
	return size, nil
}

func shortRead(loc Location, got int64) error {
	return fmt.Errorf("%w: %w: needle %s: got %d of %d bytes", ErrIOFault, ErrShortRead, loc, got, loc.Size)
}
