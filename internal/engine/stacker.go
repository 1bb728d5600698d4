package engine

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/hupe1980/haystack/internal/blockio"
	"github.com/hupe1980/haystack/internal/cache"
	"github.com/hupe1980/haystack/internal/fs"
	"github.com/hupe1980/haystack/internal/needle"
	"github.com/hupe1980/haystack/internal/shard"
)

// Location identifies a stored needle and where its bytes live.
type Location struct {
	Shard  int
	Needle int
	Offset int64
	Size   int64
}

func (l Location) String() string {
	return fmt.Sprintf("%d/%d@%d+%d", l.Shard, l.Needle, l.Offset, l.Size)
}

func locationOf(rec needle.Record) Location {
	return Location{Shard: int(rec.Shard), Needle: int(rec.Needle), Offset: rec.Offset, Size: rec.Size}
}

// ShardInfo summarizes one shard pair on disk.
type ShardInfo struct {
	Number    int
	IndexSize int64
	StackSize int64
	Needles   int64
}

// Stacker is the haystack storage engine.
type Stacker struct {
	cfg        Config
	fs         fs.FileSystem
	bio        blockio.IO
	durability Durability
	logger     *slog.Logger

	cacheCapacity int64
	cache         *cache.LRU
}

// New creates a Stacker over an existing directory.
func New(cfg Config, opts ...Option) (*Stacker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Stacker{
		cfg:        cfg,
		fs:         fs.Default,
		bio:        blockio.Direct{},
		durability: DurabilitySync,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	info, err := s.fs.Stat(cfg.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: storage directory %s", ErrNotFound, cfg.Dir)
		}
		return nil, ioFault("stat", cfg.Dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidInput, cfg.Dir)
	}

	if s.cacheCapacity > 0 {
		s.cache = cache.NewLRU(s.cacheCapacity)
	}
	return s, nil
}

// Config returns the configuration the Stacker was created with.
func (s *Stacker) Config() Config { return s.cfg }

// CacheStats returns read cache hits and misses; zero when the cache is off.
func (s *Stacker) CacheStats() (hits, misses int64) {
	if s.cache == nil {
		return 0, 0
	}
	return s.cache.Stats()
}

func (s *Stacker) list() ([]shard.Info, error) {
	infos, err := shard.List(s.fs, s.cfg.Dir)
	if err != nil {
		return nil, ioFault("list", s.cfg.Dir, err)
	}
	return infos, nil
}

// DataSize returns the total number of bytes held in stack files.
func (s *Stacker) DataSize() (int64, error) {
	infos, err := s.list()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, info := range infos {
		total += info.StackSize
	}
	return total, nil
}

// NeedleCount returns the total number of index records across all shards.
func (s *Stacker) NeedleCount() (int64, error) {
	infos, err := s.list()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, info := range infos {
		total += info.IndexSize
	}
	return needle.Count(total), nil
}

// Shards lists every shard with an index or stack file, in shard order.
func (s *Stacker) Shards() ([]ShardInfo, error) {
	infos, err := s.list()
	if err != nil {
		return nil, err
	}
	out := make([]ShardInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, ShardInfo{
			Number:    info.Number,
			IndexSize: info.IndexSize,
			StackSize: info.StackSize,
			Needles:   needle.Count(info.IndexSize),
		})
	}
	return out, nil
}

// sync commits f when the durability mode asks for it.
// indexIO carries index records. A record is one block, so a torn append
// leaves at most one partial record.
var indexIO blockio.IO = blockio.Direct{Block: needle.RecordSize}

// readRecord decodes the index record starting at byte pos of path.
func (s *Stacker) readRecord(path string, pos int64) (needle.Record, error) {
	r, err := indexIO.OpenForRead(s.fs, path)
	if err != nil {
		return needle.Record{}, err
	}
	defer r.Close()

	if err := r.Seek(pos); err != nil {
		return needle.Record{}, err
	}
	var buf [needle.RecordSize]byte
	if _, err := blockio.ReadFull(r, buf[:], indexIO.BlockSize()); err != nil {
		return needle.Record{}, err
	}
	return needle.Decode(buf[:])
}
