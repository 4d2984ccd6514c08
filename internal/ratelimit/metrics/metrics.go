package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts limiter decisions. Methods are safe on a nil receiver.
type Metrics struct {
	Rejections  *prometheus.CounterVec
	StoreErrors prometheus.Counter
	Degraded    prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tallysync_ratelimit_rejections_total",
			Help: "Requests refused with 429, by route class",
		}, []string{"class"}),
		StoreErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "tallysync_ratelimit_store_errors_total",
			Help: "Shared limiter checks that failed",
		}),
		Degraded: f.NewGauge(prometheus.GaugeOpts{
			Name: "tallysync_ratelimit_degraded",
			Help: "1 while limits are enforced per process because the shared store is unhealthy",
		}),
	}
}

func (m *Metrics) IncRejection(class string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(class).Inc()
}

func (m *Metrics) IncStoreError() {
	if m == nil {
		return
	}
	m.StoreErrors.Inc()
}

func (m *Metrics) SetDegraded(degraded bool) {
	if m == nil {
		return
	}
	if degraded {
		m.Degraded.Set(1)
		return
	}
	m.Degraded.Set(0)
}
