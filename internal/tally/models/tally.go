package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	id "tallysync/pkg/domain"
)

// TallyKey is the natural key of a table's count.
type TallyKey struct {
	TenantID    id.TenantID
	StationID   id.StationID
	TableNumber int
}

func (k TallyKey) String() string {
	return fmt.Sprintf("%s/%s/%d", k.TenantID, k.StationID, k.TableNumber)
}

// TallyReport is one polling table's vote count as accepted from a witness.
//
// Invariants:
//   - 0 <= CandidateVotes <= TotalTableVotes
//   - one report per TallyKey; written once, never overwritten, never deleted
//
// ImageRef and Observations are supporting evidence and play no part in
// deciding whether two submissions agree.
type TallyReport struct {
	TenantID        id.TenantID  `json:"tenant_id"`
	StationID       id.StationID `json:"station_id"`
	TableNumber     int          `json:"table_number"`
	CandidateVotes  int          `json:"candidate_votes"`
	TotalTableVotes int          `json:"total_table_votes"`
	ImageRef        string       `json:"image_ref,omitempty"`
	Observations    string       `json:"observations,omitempty"`
	SubmitterID     id.SubjectID `json:"submitter_id"`
	ReceivedAt      time.Time    `json:"received_at"`
}

// Key returns the report's natural key.
func (r *TallyReport) Key() TallyKey {
	return TallyKey{TenantID: r.TenantID, StationID: r.StationID, TableNumber: r.TableNumber}
}

// OpponentVotes is every valid vote at the table not cast for the candidate.
func (r *TallyReport) OpponentVotes() int {
	return r.TotalTableVotes - r.CandidateVotes
}

// ConflictRecord is the append-only trail of a divergent submission for a
// table that already has an accepted report. The stored report is never
// changed; a reviewer may only stamp the resolution once.
type ConflictRecord struct {
	ID             uuid.UUID    `json:"id"`
	TenantID       id.TenantID  `json:"tenant_id"`
	StationID      id.StationID `json:"station_id"`
	TableNumber    int          `json:"table_number"`
	Incoming       TallyReport  `json:"incoming"`
	Stored         TallyReport  `json:"stored"`
	DetectedAt     time.Time    `json:"detected_at"`
	ResolvedAt     *time.Time   `json:"resolved_at,omitempty"`
	ResolvedBy     id.SubjectID `json:"resolved_by,omitempty"`
	ResolutionNote string       `json:"resolution_note,omitempty"`
}

// IsOpen reports whether the conflict still awaits adjudication.
func (c *ConflictRecord) IsOpen() bool {
	return c.ResolvedAt == nil
}

// NewConflictRecord captures both versions of a divergent submission.
func NewConflictRecord(stored, incoming TallyReport, detectedAt time.Time) *ConflictRecord {
	return &ConflictRecord{
		ID:          uuid.New(),
		TenantID:    stored.TenantID,
		StationID:   stored.StationID,
		TableNumber: stored.TableNumber,
		Incoming:    incoming,
		Stored:      stored,
		DetectedAt:  detectedAt,
	}
}

// Resolution is a reviewer's confirmation of the stored count after checking
// the paper record.
type Resolution struct {
	ReviewerID id.SubjectID
	Note       string
	ResolvedAt time.Time
}

// ConflictFilter narrows the review queue.
type ConflictFilter struct {
	StationID id.StationID
	OpenOnly  bool
}

// StationTally is the per-station rollup read from the store in one snapshot.
// Tables with an open conflict are excluded from the sums.
type StationTally struct {
	TablesReported  int
	TablesPending   int
	CandidateVotes  int
	TotalTableVotes int
}

// ResolutionResult reports a reviewer's adjudication of a table.
type ResolutionResult struct {
	Report     *TallyReport
	Resolved   int
	ResolvedAt time.Time
}
