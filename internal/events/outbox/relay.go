package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"tallysync/internal/events"
)

const (
	defaultBatchSize = 100
	defaultInterval  = time.Second
	batchTimeout     = 30 * time.Second
)

type Store interface {
	Pending(ctx context.Context, limit int) ([]Message, error)
	MarkPublished(ctx context.Context, msgID uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, msgID uuid.UUID) error
	CountPending(ctx context.Context) (int, error)
}

// Sink delivers one event and reports whether the broker acknowledged it.
type Sink interface {
	Deliver(ctx context.Context, event events.Event) error
}

type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Relay moves outbox rows to the sink in creation order. A delivery failure
// ends the batch so later events of the same table are not sent ahead of it.
type Relay struct {
	store     Store
	sink      Sink
	tx        Transactor
	logger    *slog.Logger
	batchSize int
	interval  time.Duration
	now       func() time.Time
	metrics   *relayMetrics
}

type relayMetrics struct {
	relayed  prometheus.Counter
	failures prometheus.Counter
	backlog  prometheus.Gauge
}

type RelayOption func(*Relay)

func WithRelayLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) {
		r.logger = logger
	}
}

func WithBatchSize(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithClock(now func() time.Time) RelayOption {
	return func(r *Relay) {
		r.now = now
	}
}

func WithRelayMetrics(reg prometheus.Registerer) RelayOption {
	return func(r *Relay) {
		f := promauto.With(reg)
		r.metrics = &relayMetrics{
			relayed: f.NewCounter(prometheus.CounterOpts{
				Name: "tallysync_outbox_relayed_total",
				Help: "Outbox events delivered to the broker",
			}),
			failures: f.NewCounter(prometheus.CounterOpts{
				Name: "tallysync_outbox_delivery_failures_total",
				Help: "Outbox deliveries that failed and will be retried",
			}),
			backlog: f.NewGauge(prometheus.GaugeOpts{
				Name: "tallysync_outbox_pending",
				Help: "Outbox events not yet delivered",
			}),
		}
	}
}

func NewRelay(store Store, sink Sink, tx Transactor, opts ...RelayOption) *Relay {
	r := &Relay{
		store:     store,
		sink:      sink,
		tx:        tx,
		logger:    slog.Default(),
		batchSize: defaultBatchSize,
		interval:  defaultInterval,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// Drain a backlog without waiting a full tick between batches.
			for {
				n, err := r.RunOnce(ctx)
				if err != nil {
					r.logger.WarnContext(ctx, "outbox relay batch failed", "error", err)
					break
				}
				if n < r.batchSize {
					break
				}
			}
			r.observeBacklog(ctx)
		}
	}
}

// RunOnce relays one batch and returns how many events were delivered.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, batchTimeout)
	defer cancel()

	delivered := 0
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		pending, err := r.store.Pending(ctx, r.batchSize)
		if err != nil {
			return err
		}
		for _, msg := range pending {
			if err := r.sink.Deliver(ctx, msg.Event); err != nil {
				r.incFailure()
				r.logger.WarnContext(ctx, "outbox delivery failed",
					"outbox_id", msg.ID.String(),
					"type", string(msg.Event.Type),
					"attempts", msg.Attempts+1,
					"error", err,
				)
				// Commit what was delivered so far; this row is retried next tick.
				return r.store.MarkFailed(ctx, msg.ID)
			}
			if err := r.store.MarkPublished(ctx, msg.ID, r.now().UTC()); err != nil {
				return err
			}
			delivered++
			r.incRelayed()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return delivered, nil
}

func (r *Relay) observeBacklog(ctx context.Context) {
	if r.metrics == nil {
		return
	}
	n, err := r.store.CountPending(ctx)
	if err != nil {
		return
	}
	r.metrics.backlog.Set(float64(n))
}

func (r *Relay) incRelayed() {
	if r.metrics != nil {
		r.metrics.relayed.Inc()
	}
}

func (r *Relay) incFailure() {
	if r.metrics != nil {
		r.metrics.failures.Inc()
	}
}
