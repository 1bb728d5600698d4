package backup

import (
	"log/slog"
	"strings"

	"github.com/hupe1980/haystack/internal/fs"
	"github.com/hupe1980/haystack/internal/resource"
)

// DefaultConcurrency is the number of files transferred at once.
const DefaultConcurrency = 4

type options struct {
	compression Compression
	concurrency int
	rateLimit   int64
	prefix      string
	logger      *slog.Logger
	fs          fs.FileSystem
}

// Option configures Export and Restore.
type Option func(*options)

// WithCompression sets the compression used by Export. Restore always uses
// the compression recorded in the manifest.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithConcurrency sets the number of files transferred in parallel.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithRateLimit caps the transfer throughput in uncompressed bytes per second.
// Zero disables the limit.
func WithRateLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.rateLimit = bytesPerSec
	}
}

// WithPrefix places all objects under prefix. A trailing slash is added when
// missing.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		o.prefix = prefix
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithFileSystem sets the file system used for the local side.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys != nil {
			o.fs = fsys
		}
	}
}

func applyOptions(opts []Option) *options {
	o := &options{
		compression: CompressionNone,
		concurrency: DefaultConcurrency,
		logger:      slog.New(slog.DiscardHandler),
		fs:          fs.Default,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) controller() *resource.Controller {
	return resource.NewController(resource.Config{
		MaxTransfers:       int64(o.concurrency),
		IOLimitBytesPerSec: o.rateLimit,
	})
}
