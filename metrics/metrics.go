// Package metrics instruments the storage engine with Prometheus counters
// and histograms, grounded on dd0wney-graphdb/pkg/metrics's promauto-based
// Registry but scaled to this engine's own operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every metric this engine exposes.
type Registry struct {
	registry *prometheus.Registry

	OperationsTotal    *prometheus.CounterVec
	OperationDuration  *prometheus.HistogramVec
	MemtableEntries    prometheus.Gauge
	SegmentsTotal      prometheus.Gauge
	FlushesTotal       prometheus.Counter
	CompactionsTotal   prometheus.Counter
	CompactionDuration prometheus.Histogram
	FuzzyGetMatches    prometheus.Histogram
}

// NewRegistry creates a new, independent metrics registry with every metric
// initialized — independent registries keep engine instances in tests from
// colliding on prometheus's default global registry.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		registry: reg,
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lsmkv_operations_total",
				Help: "Total number of put/get/delete/fuzzy_get calls by outcome",
			},
			[]string{"operation", "status"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lsmkv_operation_duration_seconds",
				Help:    "Duration of put/get/delete/fuzzy_get calls",
				Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
			[]string{"operation"},
		),
		MemtableEntries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "lsmkv_memtable_entries",
			Help: "Number of keys the memtable held at its most recent flush",
		}),
		SegmentsTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "lsmkv_segments_total",
			Help: "Current number of on-disk SSTable segments",
		}),
		FlushesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "lsmkv_flushes_total",
			Help: "Total number of memtable flushes to a new segment",
		}),
		CompactionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "lsmkv_compactions_total",
			Help: "Total number of completed compaction runs",
		}),
		CompactionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "lsmkv_compaction_duration_seconds",
			Help:    "Duration of compaction runs",
			Buckets: prometheus.DefBuckets,
		}),
		FuzzyGetMatches: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "lsmkv_fuzzy_get_matches",
			Help:    "Number of matches returned per fuzzy_get call",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
	}
}

// PrometheusRegistry returns the underlying registry for exposition.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// RecordOperation records one put/get/delete/fuzzy_get call's outcome and
// duration.
func (r *Registry) RecordOperation(operation, status string, duration time.Duration) {
	r.OperationsTotal.WithLabelValues(operation, status).Inc()
	r.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordFlush increments the flush counter and updates segment/memtable
// gauges after a flush completes.
func (r *Registry) RecordFlush(memtableEntries, segments int) {
	r.FlushesTotal.Inc()
	r.MemtableEntries.Set(float64(memtableEntries))
	r.SegmentsTotal.Set(float64(segments))
}

// RecordCompaction records a completed compaction's duration and resulting
// segment count.
func (r *Registry) RecordCompaction(duration time.Duration, segments int) {
	r.CompactionsTotal.Inc()
	r.CompactionDuration.Observe(duration.Seconds())
	r.SegmentsTotal.Set(float64(segments))
}

// RecordFuzzyGet records how many matches a fuzzy_get call returned.
func (r *Registry) RecordFuzzyGet(matches int) {
	r.FuzzyGetMatches.Observe(float64(matches))
}
