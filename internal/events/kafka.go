package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/twmb/franz-go/pkg/kgo"

	"tallysync/pkg/platform/circuit"
)

// KafkaPublisher produces events asynchronously. Publish only fails on
// encoding errors; broker errors are reported by the produce callback and
// counted. After repeated failures events are dropped until a probe lands.
type KafkaPublisher struct {
	client  *kgo.Client
	topic   string
	logger  *slog.Logger
	breaker *circuit.Breaker
	probing atomic.Bool
	metrics *kafkaMetrics
}

type kafkaMetrics struct {
	produced prometheus.Counter
	failed   prometheus.Counter
	skipped  prometheus.Counter
}

type KafkaOption func(*KafkaPublisher)

func WithKafkaLogger(logger *slog.Logger) KafkaOption {
	return func(p *KafkaPublisher) {
		p.logger = logger
	}
}

// WithKafkaMetrics registers produce counters on reg.
func WithKafkaMetrics(reg prometheus.Registerer) KafkaOption {
	return func(p *KafkaPublisher) {
		f := promauto.With(reg)
		p.metrics = &kafkaMetrics{
			produced: f.NewCounter(prometheus.CounterOpts{
				Name: "tallysync_events_produced_total",
				Help: "Tally events acknowledged by the broker",
			}),
			failed: f.NewCounter(prometheus.CounterOpts{
				Name: "tallysync_events_produce_failures_total",
				Help: "Tally events the broker rejected or that timed out",
			}),
			skipped: f.NewCounter(prometheus.CounterOpts{
				Name: "tallysync_events_skipped_total",
				Help: "Tally events dropped while the producer circuit was open",
			}),
		}
	}
}

func NewKafkaPublisher(client *kgo.Client, topic string, opts ...KafkaOption) *KafkaPublisher {
	p := &KafkaPublisher{
		client:  client,
		topic:   topic,
		logger:  slog.Default(),
		breaker: circuit.New("kafka-events", circuit.WithFailureThreshold(10), circuit.WithSuccessThreshold(1)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}
	probe := false
	if p.breaker.IsOpen() {
		// One record in flight probes the broker; the rest are dropped.
		if !p.probing.CompareAndSwap(false, true) {
			p.incSkipped()
			return nil
		}
		probe = true
	}
	record := p.record(event, value)
	// The request context ends with the response; the record must outlive it.
	p.client.Produce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		if probe {
			defer p.probing.Store(false)
		}
		if err != nil {
			_, change := p.breaker.RecordFailure()
			p.incFailed()
			p.logger.Warn("failed to produce tally event",
				"type", string(event.Type),
				"key", string(r.Key),
				"error", err,
			)
			if change.Opened {
				p.logger.Error("tally event producer circuit opened", "topic", p.topic)
			}
			return
		}
		if _, change := p.breaker.RecordSuccess(); change.Closed {
			p.logger.Info("tally event producer circuit closed", "topic", p.topic)
		}
		p.incProduced()
	})
	return nil
}

// Deliver produces synchronously for the outbox relay. The breaker is
// bypassed; the relay already retries in order.
func (p *KafkaPublisher) Deliver(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}
	if err := p.client.ProduceSync(ctx, p.record(event, value)).FirstErr(); err != nil {
		p.incFailed()
		return fmt.Errorf("produce %s event: %w", event.Type, err)
	}
	p.incProduced()
	return nil
}

func (p *KafkaPublisher) record(event Event, value []byte) *kgo.Record {
	return &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.Key()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "type", Value: []byte(event.Type)},
		},
	}
}

// Close flushes buffered records and closes the client.
func (p *KafkaPublisher) Close(ctx context.Context) error {
	err := p.client.Flush(ctx)
	p.client.Close()
	if err != nil {
		return fmt.Errorf("flush tally events: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) incProduced() {
	if p.metrics != nil {
		p.metrics.produced.Inc()
	}
}

func (p *KafkaPublisher) incFailed() {
	if p.metrics != nil {
		p.metrics.failed.Inc()
	}
}

func (p *KafkaPublisher) incSkipped() {
	if p.metrics != nil {
		p.metrics.skipped.Inc()
	}
}
