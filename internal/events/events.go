// Package events publishes tally lifecycle notifications for dashboards,
// exporters and alerting. Delivery is best effort; the tally store remains
// the source of truth.
package events

import (
	"context"
	"fmt"
	"time"

	id "tallysync/pkg/domain"
)

type Type string

const (
	TallyAccepted         Type = "tally_accepted"
	TallyConflictDetected Type = "tally_conflict_detected"
	TallyConflictResolved Type = "tally_conflict_resolved"
)

// Event is the wire record. Keep it flat; consumers are not Go.
type Event struct {
	Type            Type         `json:"type"`
	TenantID        id.TenantID  `json:"tenant_id"`
	StationID       id.StationID `json:"station_id"`
	TableNumber     int          `json:"table_number"`
	CandidateVotes  int          `json:"candidate_votes,omitempty"`
	TotalTableVotes int          `json:"total_table_votes,omitempty"`
	IncomingVotes   *int         `json:"incoming_candidate_votes,omitempty"`
	IncomingTotal   *int         `json:"incoming_total_table_votes,omitempty"`
	ConflictID      string       `json:"conflict_id,omitempty"`
	ActorID         id.SubjectID `json:"actor_id,omitempty"`
	RequestID       string       `json:"request_id,omitempty"`
	OccurredAt      time.Time    `json:"occurred_at"`
}

// Key partitions by table so every event of one table stays ordered.
func (e Event) Key() string {
	return fmt.Sprintf("%s/%s/%d", e.TenantID, e.StationID, e.TableNumber)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
