package haystack

import (
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/haystack/internal/engine"
	"github.com/hupe1980/haystack/internal/fs"
)

// Location identifies a stored needle: its shard, its needle number within
// the shard and the byte range it occupies in the shard's stack file.
type Location = engine.Location

// ShardInfo summarizes one shard on disk.
type ShardInfo = engine.ShardInfo

// RecoveryReport summarizes one Recover pass.
type RecoveryReport = engine.Report

// ShardRepair describes what Recover did to one shard.
type ShardRepair = engine.ShardRepair

// RepairAction is the repair Recover applied to a shard.
type RepairAction = engine.Action

const (
	// RepairNone means the shard was consistent.
	RepairNone = engine.ActionNone
	// RepairTrimIndex means a partial trailing index record was dropped.
	RepairTrimIndex = engine.ActionTrimIndex
	// RepairRollback means the last needle was dropped because its blob was
	// not fully written.
	RepairRollback = engine.ActionRollback
)

// Stats is a point-in-time summary of a Store.
type Stats struct {
	Shards      int
	Needles     int64
	DataSize    int64
	CacheHits   int64
	CacheMisses int64
}

// Store is a haystack group rooted at one directory.
//
// A Store supports a single writer; reads of completed writes may run
// concurrently with it.
type Store struct {
	dir     string
	engine  *engine.Stacker
	logger  *Logger
	metrics MetricsCollector
}

// Open opens the haystack group stored in dir.
//
// The directory must exist unless WithCreateDir is given. No file is created
// until the first write.
func Open(dir string, optFns ...Option) (*Store, error) {
	o := applyOptions(optFns)

	if o.createDir && dir != "" {
		if err := fs.Default.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create %s: %w", ErrIOFault, dir, err)
		}
	}

	cfg := engine.Config{Dir: dir, MaxStackSize: o.maxStackSize}
	eng, err := engine.New(cfg,
		engine.WithBlockIO(o.blockIO),
		engine.WithDurability(o.durability),
		engine.WithLogger(o.logger.Logger),
		engine.WithReadCache(o.readCache),
	)
	if err != nil {
		return nil, translateError(err)
	}

	s := &Store{
		dir:     dir,
		engine:  eng,
		logger:  o.logger.WithDir(dir),
		metrics: o.metricsCollector,
	}
	if o.recoverOnOpen {
		if _, err := s.Recover(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string { return s.dir }

// MaxStackSize returns the configured stack size cap.
func (s *Store) MaxStackSize() int64 { return s.engine.Config().MaxStackSize }

// Write stores blob as a new needle and returns where it was placed.
// An empty blob is rejected with ErrInvalidInput and leaves no trace.
func (s *Store) Write(blob []byte) (Location, error) {
	start := time.Now()
	loc, err := s.engine.Write(blob)
	return s.finishWrite(int64(len(blob)), start, loc, err)
}

// WriteFrom stores exactly size bytes read from r as a new needle.
//
// If r ends before size bytes, the shard is left torn and an ErrIOFault is
// returned; Recover must run before the next write.
func (s *Store) WriteFrom(r io.Reader, size int64) (Location, error) {
	start := time.Now()
	loc, err := s.engine.WriteFrom(r, size)
	return s.finishWrite(size, start, loc, err)
}

// WriteFile stores the contents of the named file as a new needle.
func (s *Store) WriteFile(path string) (Location, error) {
	start := time.Now()
	loc, err := s.engine.WriteFile(path)
	return s.finishWrite(loc.Size, start, loc, err)
}

func (s *Store) finishWrite(size int64, start time.Time, loc Location, err error) (Location, error) {
	err = translateError(err)
	s.metrics.RecordWrite(size, time.Since(start), err)
	s.logger.LogWrite(size, err)
	if err != nil {
		return Location{}, err
	}
	return loc, nil
}

// Read returns the bytes of needle n in shard sh.
func (s *Store) Read(sh, n int) ([]byte, error) {
	start := time.Now()
	data, err := s.engine.Read(sh, n)
	err = s.finishRead(sh, n, int64(len(data)), start, err)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// ReadTo streams needle n of shard sh into w and returns the bytes copied.
func (s *Store) ReadTo(w io.Writer, sh, n int) (int64, error) {
	start := time.Now()
	copied, err := s.engine.ReadTo(w, sh, n)
	return copied, s.finishRead(sh, n, copied, start, err)
}

// ReadFile writes needle n of shard sh to the named file, replacing it.
func (s *Store) ReadFile(path string, sh, n int) (int64, error) {
	start := time.Now()
	copied, err := s.engine.ReadFile(path, sh, n)
	return copied, s.finishRead(sh, n, copied, start, err)
}

func (s *Store) finishRead(sh, n int, size int64, start time.Time, err error) error {
	err = translateError(err)
	s.metrics.RecordRead(size, time.Since(start), err)
	s.logger.LogRead(sh, n, err)
	return err
}

// Locate returns the index record of needle n in shard sh without reading
// the blob.
func (s *Store) Locate(sh, n int) (Location, error) {
	loc, err := s.engine.Locate(sh, n)
	return loc, translateError(err)
}

// Recover repairs shards torn by a crash or I/O fault during their last
// write. Consistent shards are left untouched, so running it again is a
// no-op.
func (s *Store) Recover() (RecoveryReport, error) {
	start := time.Now()
	report, err := s.engine.Recover()
	err = translateError(err)
	s.metrics.RecordRecover(report.Inspected, report.Repaired(), time.Since(start), err)
	s.logger.LogRecovery(report.Inspected, report.Repaired(), err)
	return report, err
}

// DataSize returns the total number of bytes held in stack files.
func (s *Store) DataSize() (int64, error) {
	size, err := s.engine.DataSize()
	return size, translateError(err)
}

// NeedleCount returns the number of needles across all shards.
func (s *Store) NeedleCount() (int64, error) {
	count, err := s.engine.NeedleCount()
	return count, translateError(err)
}

// Shards lists every shard in shard order.
func (s *Store) Shards() ([]ShardInfo, error) {
	shards, err := s.engine.Shards()
	return shards, translateError(err)
}

// Stats returns a summary of the store computed from the files on disk.
func (s *Store) Stats() (Stats, error) {
	shards, err := s.Shards()
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Shards: len(shards)}
	for _, sh := range shards {
		st.Needles += sh.Needles
		st.DataSize += sh.StackSize
	}
	st.CacheHits, st.CacheMisses = s.engine.CacheStats()
	return st, nil
}
