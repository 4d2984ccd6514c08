// Package outbox makes tally event delivery durable: events are stored with
// the write they describe and relayed to the broker afterwards.
package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tallysync/internal/events"
	"tallysync/pkg/platform/tx"
)

// Message is a pending outbox row.
type Message struct {
	ID       uuid.UUID
	Event    events.Event
	Attempts int
}

// PostgresOutbox implements events.Publisher by inserting into tally_outbox.
// Publish joins the transaction on ctx when there is one.
type PostgresOutbox struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresOutbox {
	return &PostgresOutbox{db: db}
}

func (o *PostgresOutbox) Publish(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}
	query := `
		INSERT INTO tally_outbox (id, event_type, event_key, payload)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.Use(ctx, o.db).ExecContext(ctx, query, uuid.New(), string(event.Type), event.Key(), payload); err != nil {
		return fmt.Errorf("append outbox event: %w", err)
	}
	return nil
}

// Pending claims up to limit unpublished rows, oldest first. Rows locked by
// another relay are skipped so several instances can run side by side; the
// claim lasts until the caller's transaction ends.
func (o *PostgresOutbox) Pending(ctx context.Context, limit int) ([]Message, error) {
	query := `
		SELECT id, payload, attempts
		FROM tally_outbox
		WHERE published_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := tx.Use(ctx, o.db).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending outbox: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var payload []byte
		if err := rows.Scan(&m.ID, &payload, &m.Attempts); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		if err := json.Unmarshal(payload, &m.Event); err != nil {
			return nil, fmt.Errorf("decode outbox row %s: %w", m.ID, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return out, nil
}

func (o *PostgresOutbox) MarkPublished(ctx context.Context, msgID uuid.UUID, at time.Time) error {
	_, err := tx.Use(ctx, o.db).ExecContext(ctx,
		`UPDATE tally_outbox SET published_at = $2, attempts = attempts + 1 WHERE id = $1`, msgID, at)
	if err != nil {
		return fmt.Errorf("mark outbox %s published: %w", msgID, err)
	}
	return nil
}

func (o *PostgresOutbox) MarkFailed(ctx context.Context, msgID uuid.UUID) error {
	_, err := tx.Use(ctx, o.db).ExecContext(ctx,
		`UPDATE tally_outbox SET attempts = attempts + 1 WHERE id = $1`, msgID)
	if err != nil {
		return fmt.Errorf("mark outbox %s failed: %w", msgID, err)
	}
	return nil
}

// CountPending is used by the relay's backlog gauge.
func (o *PostgresOutbox) CountPending(ctx context.Context) (int, error) {
	var n int
	err := o.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tally_outbox WHERE published_at IS NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending outbox: %w", err)
	}
	return n, nil
}
