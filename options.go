package haystack

import (
	"log/slog"

	"github.com/hupe1980/haystack/internal/blockio"
	"github.com/hupe1980/haystack/internal/engine"
)

// DefaultMaxStackSize is the stack size cap used when none is configured.
const DefaultMaxStackSize int64 = 10 * 1000 * 1000 * 1000

// Durability controls whether appends are fsync'd.
type Durability = engine.Durability

const (
	// DurabilitySync fsyncs the index and stack file after every append.
	DurabilitySync = engine.DurabilitySync
	// DurabilityAsync hands appends to the OS page cache only. A crash may
	// lose recently returned needles; Recover still restores consistency.
	DurabilityAsync = engine.DurabilityAsync
)

type options struct {
	maxStackSize     int64
	blockIO          blockio.IO
	durability       Durability
	metricsCollector MetricsCollector
	logger           *Logger
	readCache        int64
	recoverOnOpen    bool
	createDir        bool
}

// Option configures Open.
type Option func(*options)

// WithMaxStackSize sets the soft cap, in bytes, of a stack file.
//
// A blob is admitted into an existing shard only if the shard stays within
// the cap. A blob larger than the cap is still accepted into a new shard of
// its own.
func WithMaxStackSize(size int64) Option {
	return func(o *options) {
		o.maxStackSize = size
	}
}

// WithDirectIO reads and writes stack files unbuffered in blocks of
// blockSize bytes (4 KiB when blockSize <= 0). This is the default.
func WithDirectIO(blockSize int) Option {
	return func(o *options) {
		o.blockIO = blockio.Direct{Block: blockSize}
	}
}

// WithLargeIO reads and writes stack files through buffers of blockSize
// bytes (1 MiB when blockSize <= 0) and hints sequential access to the OS.
// Suited to large blobs such as video.
func WithLargeIO(blockSize int) Option {
	return func(o *options) {
		o.blockIO = blockio.Large{Block: blockSize}
	}
}

// WithDurability sets the durability mode. Defaults to DurabilitySync.
func WithDurability(d Durability) Option {
	return func(o *options) {
		o.durability = d
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &haystack.BasicMetricsCollector{}
//	store, _ := haystack.Open(dir, haystack.WithMetricsCollector(metrics))
//	// ... use store ...
//	stats := metrics.GetStats()
//	fmt.Printf("Writes: %d, Avg latency: %dns\n", stats.WriteCount, stats.WriteAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithReadCache keeps recently read needles in an LRU cache bounded by
// capacity bytes. Recover invalidates the entries of every shard it repairs.
func WithReadCache(capacity int64) Option {
	return func(o *options) {
		o.readCache = capacity
	}
}

// WithRecoverOnOpen runs Recover before Open returns.
func WithRecoverOnOpen() Option {
	return func(o *options) {
		o.recoverOnOpen = true
	}
}

// WithCreateDir creates the storage directory if it does not exist.
func WithCreateDir() Option {
	return func(o *options) {
		o.createDir = true
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		maxStackSize:     DefaultMaxStackSize,
		blockIO:          blockio.Direct{},
		durability:       DurabilitySync,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
