package handler

import (
	"time"

	"tallysync/internal/tally/models"
)

type TallyResponse struct {
	StationID       string    `json:"station_id"`
	TableNumber     int       `json:"table_number"`
	CandidateVotes  int       `json:"candidate_votes"`
	TotalTableVotes int       `json:"total_table_votes"`
	OpponentVotes   int       `json:"opponent_votes"`
	ImageRef        string    `json:"image_ref,omitempty"`
	Observations    string    `json:"observations,omitempty"`
	SubmitterID     string    `json:"submitter_id"`
	ReceivedAt      time.Time `json:"received_at"`
}

func FromReport(r *models.TallyReport) *TallyResponse {
	if r == nil {
		return nil
	}
	return &TallyResponse{
		StationID:       r.StationID.String(),
		TableNumber:     r.TableNumber,
		CandidateVotes:  r.CandidateVotes,
		TotalTableVotes: r.TotalTableVotes,
		OpponentVotes:   r.OpponentVotes(),
		ImageRef:        r.ImageRef,
		Observations:    r.Observations,
		SubmitterID:     r.SubmitterID.String(),
		ReceivedAt:      r.ReceivedAt,
	}
}

// SubmitResponse carries the outcome tag. Created and duplicate fill Tally;
// conflict fills Stored and Incoming so the device can show both.
type SubmitResponse struct {
	Outcome    string         `json:"outcome"`
	Tally      *TallyResponse `json:"tally,omitempty"`
	Stored     *TallyResponse `json:"stored,omitempty"`
	Incoming   *TallyResponse `json:"incoming,omitempty"`
	ConflictID string         `json:"conflict_id,omitempty"`
}

func FromOutcome(o *models.Outcome) *SubmitResponse {
	resp := &SubmitResponse{Outcome: string(o.Kind)}
	if o.Kind != models.OutcomeConflict {
		resp.Tally = FromReport(o.Record)
		return resp
	}
	resp.Stored = FromReport(o.Record)
	resp.Incoming = FromReport(o.Incoming)
	if o.ConflictID != nil {
		resp.ConflictID = *o.ConflictID
	}
	return resp
}

type ValidationResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Kind             string `json:"kind"`
	Field            string `json:"field"`
}

type ConflictResponse struct {
	ID             string         `json:"id"`
	StationID      string         `json:"station_id"`
	TableNumber    int            `json:"table_number"`
	Stored         *TallyResponse `json:"stored"`
	Incoming       *TallyResponse `json:"incoming"`
	DetectedAt     time.Time      `json:"detected_at"`
	Status         string         `json:"status"`
	ResolvedAt     *time.Time     `json:"resolved_at,omitempty"`
	ResolvedBy     string         `json:"resolved_by,omitempty"`
	ResolutionNote string         `json:"resolution_note,omitempty"`
}

type ConflictListResponse struct {
	Items []*ConflictResponse `json:"items"`
	Total int                 `json:"total"`
}

func FromConflicts(records []*models.ConflictRecord) *ConflictListResponse {
	items := make([]*ConflictResponse, 0, len(records))
	for _, c := range records {
		status := "resolved"
		if c.IsOpen() {
			status = "open"
		}
		items = append(items, &ConflictResponse{
			ID:             c.ID.String(),
			StationID:      c.StationID.String(),
			TableNumber:    c.TableNumber,
			Stored:         FromReport(&c.Stored),
			Incoming:       FromReport(&c.Incoming),
			DetectedAt:     c.DetectedAt,
			Status:         status,
			ResolvedAt:     c.ResolvedAt,
			ResolvedBy:     c.ResolvedBy.String(),
			ResolutionNote: c.ResolutionNote,
		})
	}
	return &ConflictListResponse{Items: items, Total: len(items)}
}

type ResolveResponse struct {
	Tally      *TallyResponse `json:"tally"`
	Resolved   int            `json:"resolved"`
	ResolvedAt time.Time      `json:"resolved_at"`
}
