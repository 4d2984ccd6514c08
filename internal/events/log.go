package events

import (
	"context"
	"log/slog"
)

// LogPublisher writes events to the structured log. Used when no broker is
// configured so notifications still leave a trace.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	p.logger.InfoContext(ctx, "tally event",
		"type", string(event.Type),
		"tenant_id", event.TenantID.String(),
		"station_id", event.StationID.String(),
		"table_number", event.TableNumber,
		"conflict_id", event.ConflictID,
		"request_id", event.RequestID,
	)
	return nil
}

// Deliver lets the outbox relay drain into the log.
func (p *LogPublisher) Deliver(ctx context.Context, event Event) error {
	return p.Publish(ctx, event)
}
