package haystack

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with haystack-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithDir adds the storage directory to the logger.
func (l *Logger) WithDir(dir string) *Logger {
	return &Logger{
		Logger: l.Logger.With("dir", dir),
	}
}

// WithShard adds a shard field to the logger.
func (l *Logger) WithShard(shard int) *Logger {
	return &Logger{
		Logger: l.Logger.With("shard", shard),
	}
}

// LogWrite logs a failed write. Successful writes are logged by the engine.
func (l *Logger) LogWrite(size int64, err error) {
	if err == nil {
		return
	}
	l.Error("write failed",
		"size", size,
		"error", err,
	)
}

// LogRead logs a failed read. Missing needles are logged at debug level.
func (l *Logger) LogRead(shard, needle int, err error) {
	if err == nil {
		return
	}
	level := slog.LevelError
	if isNotFound(err) {
		level = slog.LevelDebug
	}
	l.Log(context.Background(), level, "read failed",
		"shard", shard,
		"needle", needle,
		"error", err,
	)
}

// LogRecovery logs the outcome of a recovery pass.
func (l *Logger) LogRecovery(inspected, repaired int, err error) {
	if err != nil {
		l.Error("recovery failed",
			"inspected", inspected,
			"repaired", repaired,
			"error", err,
		)
		return
	}
	if repaired > 0 {
		l.Warn("recovery repaired torn shards",
			"inspected", inspected,
			"repaired", repaired,
		)
	}
}
