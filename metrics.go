package haystack

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; a
// Prometheus implementation lives in metrics/prometheus.
type MetricsCollector interface {
	// RecordWrite is called after each write operation.
	// size is the blob size, err is nil if successful.
	RecordWrite(size int64, duration time.Duration, err error)

	// RecordRead is called after each read operation.
	// size is the number of bytes returned.
	RecordRead(size int64, duration time.Duration, err error)

	// RecordRecover is called after each recovery pass.
	// inspected is the number of shards examined, repaired the number changed.
	RecordRecover(inspected, repaired int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordWrite(int64, time.Duration, error)      {}
func (NoopMetricsCollector) RecordRead(int64, time.Duration, error)       {}
func (NoopMetricsCollector) RecordRecover(int, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	WriteCount      atomic.Int64
	WriteErrors     atomic.Int64
	WriteBytes      atomic.Int64
	WriteTotalNanos atomic.Int64
	ReadCount       atomic.Int64
	ReadErrors      atomic.Int64
	ReadBytes       atomic.Int64
	ReadTotalNanos  atomic.Int64
	RecoverCount    atomic.Int64
	RecoverErrors   atomic.Int64
	RepairedShards  atomic.Int64
}

// RecordWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWrite(size int64, duration time.Duration, err error) {
	b.WriteCount.Add(1)
	b.WriteTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.WriteErrors.Add(1)
		return
	}
	b.WriteBytes.Add(size)
}

// RecordRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRead(size int64, duration time.Duration, err error) {
	b.ReadCount.Add(1)
	b.ReadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ReadErrors.Add(1)
		return
	}
	b.ReadBytes.Add(size)
}

// RecordRecover implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRecover(inspected, repaired int, duration time.Duration, err error) {
	b.RecoverCount.Add(1)
	b.RepairedShards.Add(int64(repaired))
	if err != nil {
		b.RecoverErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		WriteCount:     b.WriteCount.Load(),
		WriteErrors:    b.WriteErrors.Load(),
		WriteBytes:     b.WriteBytes.Load(),
		WriteAvgNanos:  avg(b.WriteTotalNanos.Load(), b.WriteCount.Load()),
		ReadCount:      b.ReadCount.Load(),
		ReadErrors:     b.ReadErrors.Load(),
		ReadBytes:      b.ReadBytes.Load(),
		ReadAvgNanos:   avg(b.ReadTotalNanos.Load(), b.ReadCount.Load()),
		RecoverCount:   b.RecoverCount.Load(),
		RecoverErrors:  b.RecoverErrors.Load(),
		RepairedShards: b.RepairedShards.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	WriteCount     int64
	WriteErrors    int64
	WriteBytes     int64
	WriteAvgNanos  int64
	ReadCount      int64
	ReadErrors     int64
	ReadBytes      int64
	ReadAvgNanos   int64
	RecoverCount   int64
	RecoverErrors  int64
	RepairedShards int64
}
