package engine

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/hupe1980/haystack/internal/blockio"
	"github.com/hupe1980/haystack/internal/fs"
	"github.com/hupe1980/haystack/internal/needle"
	"github.com/hupe1980/haystack/internal/shard"
)

// Write stores blob as a new needle and returns its location.
func (s *Stacker) Write(blob []byte) (Location, error) {
	if len(blob) == 0 {
		return Location{}, fmt.Errorf("%w: blob must not be empty", ErrInvalidInput)
	}
	return s.write(bytes.NewReader(blob), int64(len(blob)))
}

// WriteFrom stores exactly size bytes read from r as a new needle.
//
// The size is needed up front because the index record is appended before
// the data. If r ends early the shard is left torn, ErrIOFault is returned and
// Recover must run before the next write.
func (s *Stacker) WriteFrom(r io.Reader, size int64) (Location, error) {
	if size <= 0 {
		return Location{}, fmt.Errorf("%w: blob size must be positive, got %d", ErrInvalidInput, size)
	}
	return s.write(r, size)
}

// WriteFile stores the contents of the named file as a new needle.
func (s *Stacker) WriteFile(path string) (Location, error) {
	f, err := s.fs.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return Location{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Location{}, ioFault("open", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Location{}, ioFault("stat", path, err)
	}
	if info.Size() == 0 {
		return Location{}, fmt.Errorf("%w: %s is empty", ErrInvalidInput, path)
	}
	return s.write(f, info.Size())
}

func (s *Stacker) write(src io.Reader, size int64) (Location, error) {
	start := time.Now()

	infos, err := s.list()
	if err != nil {
		return Location{}, err
	}
	target := shard.Select(infos, size, s.cfg.MaxStackSize)
	if target > math.MaxInt32 {
		return Location{}, fmt.Errorf("%w: shard number %d exceeds the record format", ErrInvalidInput, target)
	}
	paths := shard.PathsFor(s.cfg.Dir, target)

	if err := s.ensureShard(paths); err != nil {
		return Location{}, err
	}

	indexLen, err := fs.Size(s.fs, paths.Index)
	if err != nil {
		return Location{}, ioFault("stat", paths.Index, err)
	}
	if !needle.Aligned(indexLen) {
		return Location{}, fmt.Errorf("%w: %w: shard %d index length %d", ErrIOFault, ErrInconsistent, target, indexLen)
	}
	stackLen, err := fs.Size(s.fs, paths.Stack)
	if err != nil {
		return Location{}, ioFault("stat", paths.Stack, err)
	}

	n := needle.Count(indexLen)
	if n > math.MaxInt32 {
		return Location{}, fmt.Errorf("%w: shard %d holds the maximum number of needles", ErrInvalidInput, target)
	}
	rec := needle.Record{
		Shard:  int32(target),
		Needle: int32(n),
		Offset: stackLen,
		Size:   size,
	}

	// The record is durable before the first blob byte is written.
	if err := s.appendRecord(paths.Index, indexLen, rec); err != nil {
		return Location{}, err
	}
	if err := s.appendBlob(paths.Stack, rec.Offset, src, size); err != nil {
		return Location{}, err
	}

	loc := locationOf(rec)
	s.logger.Debug("Needle written",
		"shard", loc.Shard,
		"needle", loc.Needle,
		"offset", loc.Offset,
		"size", loc.Size,
		"duration", time.Since(start),
	)
	return loc, nil
}

// ensureShard creates the index and stack file of a shard if absent.
func (s *Stacker) ensureShard(paths shard.Paths) error {
	created := false
	for _, path := range []string{paths.Index, paths.Stack} {
		ok, err := fs.Exists(s.fs, path)
		if err != nil {
			return ioFault("stat", path, err)
		}
		if ok {
			continue
		}
		f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return ioFault("create", path, err)
		}
		if err := f.Close(); err != nil {
			return ioFault("create", path, err)
		}
		created = true
	}
	if created && s.durability == DurabilitySync {
		if err := fs.SyncDir(s.fs, s.cfg.Dir); err != nil {
			return ioFault("sync", s.cfg.Dir, err)
		}
	}
	return nil
}

func (s *Stacker) appendRecord(path string, offset int64, rec needle.Record) error {
	var buf [needle.RecordSize]byte
	rec.Put(buf[:])
	return s.appendAt(indexIO, path, offset, bytes.NewReader(buf[:]), needle.RecordSize)
}

func (s *Stacker) appendBlob(path string, offset int64, src io.Reader, size int64) error {
	return s.appendAt(s.bio, path, offset, src, size)
}

// appendAt writes exactly size bytes of src at offset through bio and makes
// them durable according to the configured mode.
func (s *Stacker) appendAt(bio blockio.IO, path string, offset int64, src io.Reader, size int64) error {
	w, err := bio.OpenForWrite(s.fs, path)
	if err != nil {
		return ioFault("open", path, err)
	}
	if err := w.Seek(offset); err != nil {
		_ = w.Close()
		return ioFault("seek", path, err)
	}
	if _, err := blockio.Copy(w, src, size, bio.BlockSize()); err != nil {
		_ = w.Close()
		return ioFault("append", path, err)
	}

	flush := w.Flush
	if s.durability == DurabilitySync {
		flush = w.Sync
	}
	if err := flush(); err != nil {
		_ = w.Close()
		return ioFault("sync", path, err)
	}
	if err := w.Close(); err != nil {
		return ioFault("close", path, err)
	}
	return nil
}
