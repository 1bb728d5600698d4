// Package prometheus exports haystack operation metrics to Prometheus.
package prometheus

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hupe1980/haystack"
)

const namespace = "haystack"

// Collector implements haystack.MetricsCollector on top of Prometheus
// counters and histograms.
type Collector struct {
	operations  *prometheus.CounterVec
	bytes       *prometheus.CounterVec
	durations   *prometheus.HistogramVec
	repairs     prometheus.Counter
	inspections prometheus.Counter
}

var _ haystack.MetricsCollector = (*Collector)(nil)

// New registers the haystack metrics with reg and returns the collector.
// A nil reg uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Number of store operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		bytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_total",
			Help:      "Needle bytes written or read successfully",
		}, []string{"operation"}),
		durations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of store operations",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"operation"}),
		repairs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recovery_repaired_shards_total",
			Help:      "Shards changed by recovery",
		}),
		inspections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recovery_inspected_shards_total",
			Help:      "Shards examined by recovery",
		}),
	}
}

// RecordWrite implements haystack.MetricsCollector.
func (c *Collector) RecordWrite(size int64, duration time.Duration, err error) {
	c.record("write", size, duration, err)
}

// RecordRead implements haystack.MetricsCollector.
func (c *Collector) RecordRead(size int64, duration time.Duration, err error) {
	c.record("read", size, duration, err)
}

// RecordRecover implements haystack.MetricsCollector.
func (c *Collector) RecordRecover(inspected, repaired int, duration time.Duration, err error) {
	c.operations.WithLabelValues("recover", outcome(err)).Inc()
	c.durations.WithLabelValues("recover").Observe(duration.Seconds())
	c.inspections.Add(float64(inspected))
	c.repairs.Add(float64(repaired))
}

func (c *Collector) record(op string, size int64, duration time.Duration, err error) {
	c.operations.WithLabelValues(op, outcome(err)).Inc()
	c.durations.WithLabelValues(op).Observe(duration.Seconds())
	if err == nil {
		c.bytes.WithLabelValues(op).Add(float64(size))
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, haystack.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, haystack.ErrNotFound):
		return "not_found"
	case errors.Is(err, haystack.ErrIOFault):
		return "io_fault"
	default:
		return "error"
	}
}
