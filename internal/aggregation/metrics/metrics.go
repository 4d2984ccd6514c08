package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers the summary read path. Nil receivers are no-ops.
type Metrics struct {
	CacheLookups     *prometheus.CounterVec
	CacheErrors      prometheus.Counter
	SnapshotDuration prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tallysync_summary_cache_lookups_total",
			Help: "Campaign summary cache lookups by result (hit, miss)",
		}, []string{"result"}),
		CacheErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "tallysync_summary_cache_errors_total",
			Help: "Cache reads or writes that failed and fell back to the store",
		}),
		SnapshotDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "tallysync_summary_snapshot_duration_seconds",
			Help:    "Time to load stations and the tally snapshot for a campaign summary",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncCacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) IncCacheError() {
	if m == nil {
		return
	}
	m.CacheErrors.Inc()
}

func (m *Metrics) ObserveSnapshot(start time.Time) {
	if m == nil {
		return
	}
	m.SnapshotDuration.Observe(time.Since(start).Seconds())
}
