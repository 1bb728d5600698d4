package engine

import (
	"fmt"
	"log/slog"

	"github.com/hupe1980/haystack/internal/blockio"
	"github.com/hupe1980/haystack/internal/fs"
)

// Config is the immutable configuration of one Stacker.
type Config struct {
	// Dir is the directory holding the stack and index files.
	Dir string
	// MaxStackSize is the soft cap, in bytes, checked before a blob is
	// admitted into an existing shard.
	MaxStackSize int64
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("%w: storage directory is required", ErrInvalidInput)
	}
	if c.MaxStackSize <= 0 {
		return fmt.Errorf("%w: maximum stack size must be positive, got %d", ErrInvalidInput, c.MaxStackSize)
	}
	return nil
}

// Durability controls whether appends are fsync'd.
type Durability int

const (
	// DurabilitySync fsyncs the index and stack file after every append.
	DurabilitySync Durability = iota
	// DurabilityAsync hands appends to the OS page cache only.
	DurabilityAsync
)

func (d Durability) String() string {
	switch d {
	case DurabilitySync:
		return "sync"
	case DurabilityAsync:
		return "async"
	default:
		return fmt.Sprintf("Durability(%d)", int(d))
	}
}

// Option defines a configuration option for the Stacker.
type Option func(*Stacker)

// WithFileSystem sets the file system.
// This is primarily used for testing and fault injection.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(s *Stacker) {
		if fsys != nil {
			s.fs = fsys
		}
	}
}

// WithBlockIO sets the block I/O variant used for stack files.
func WithBlockIO(bio blockio.IO) Option {
	return func(s *Stacker) {
		if bio != nil {
			s.bio = bio
		}
	}
}

// WithDurability sets the durability mode. Defaults to DurabilitySync.
func WithDurability(d Durability) Option {
	return func(s *Stacker) {
		s.durability = d
	}
}

// WithLogger sets the logger for the engine.
func WithLogger(l *slog.Logger) Option {
	return func(s *Stacker) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithReadCache enables an LRU cache of needle bytes bounded by capacity bytes.
func WithReadCache(capacity int64) Option {
	return func(s *Stacker) {
		s.cacheCapacity = capacity
	}
}
