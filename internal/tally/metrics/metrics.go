package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for tally ingestion. Every method is safe on
// a nil receiver so services can run without metrics in tests.
type Metrics struct {
	Submissions           *prometheus.CounterVec
	ValidationFailures    *prometheus.CounterVec
	InsertRaces           prometheus.Counter
	ConflictWriteFailures prometheus.Counter
	ConflictsResolved     prometheus.Counter
	SubmitDuration        prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tallysync_tally_submissions_total",
			Help: "Tally submissions by outcome and submitting device class",
		}, []string{"outcome", "device"}),
		ValidationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tallysync_tally_validation_failures_total",
			Help: "Tally submissions rejected before any write, by kind",
		}, []string{"kind"}),
		InsertRaces: f.NewCounter(prometheus.CounterOpts{
			Name: "tallysync_tally_insert_races_total",
			Help: "First submissions that lost the insert race and were reclassified",
		}),
		ConflictWriteFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "tallysync_tally_conflict_write_failures_total",
			Help: "Conflicts detected whose audit record could not be stored",
		}),
		ConflictsResolved: f.NewCounter(prometheus.CounterOpts{
			Name: "tallysync_tally_conflicts_resolved_total",
			Help: "Conflict records stamped as resolved by a reviewer",
		}),
		SubmitDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "tallysync_tally_submit_duration_seconds",
			Help:    "Duration of SubmitTally including validation and the store round trip",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncSubmission(outcome, device string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome, device).Inc()
}

func (m *Metrics) IncValidationFailure(kind string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncInsertRace() {
	if m == nil {
		return
	}
	m.InsertRaces.Inc()
}

func (m *Metrics) IncConflictWriteFailure() {
	if m == nil {
		return
	}
	m.ConflictWriteFailures.Inc()
}

func (m *Metrics) AddConflictsResolved(n int) {
	if m == nil {
		return
	}
	m.ConflictsResolved.Add(float64(n))
}

// ObserveSubmit records the duration of a SubmitTally call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSubmit(start time.Time) {
	if m == nil {
		return
	}
	m.SubmitDuration.Observe(time.Since(start).Seconds())
}
