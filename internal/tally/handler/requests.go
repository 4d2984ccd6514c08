package handler

import (
	"strings"

	"tallysync/internal/tally/models"
	id "tallysync/pkg/domain"
	dErrors "tallysync/pkg/domain-errors"
)

// SubmitTallyRequest is the HTTP body for POST /v1/tallies. Counts are
// pointers so a missing field is told apart from an explicit zero.
type SubmitTallyRequest struct {
	StationID       string `json:"station_id"`
	TableNumber     *int   `json:"table_number"`
	CandidateVotes  *int   `json:"candidate_votes"`
	TotalTableVotes *int   `json:"total_table_votes"`
	ImageRef        string `json:"image_ref"`
	Observations    string `json:"observations"`

	parsedStationID id.StationID
}

// Validate checks presence and identifier syntax. Range rules live in the
// service so every entry point shares them.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *SubmitTallyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.TableNumber == nil {
		return dErrors.New(dErrors.CodeValidation, "table_number is required")
	}
	if r.CandidateVotes == nil {
		return dErrors.New(dErrors.CodeValidation, "candidate_votes is required")
	}
	if r.TotalTableVotes == nil {
		return dErrors.New(dErrors.CodeValidation, "total_table_votes is required")
	}
	stationID, err := id.ParseStationID(r.StationID)
	if err != nil {
		return err
	}
	r.parsedStationID = stationID
	return nil
}

// ToModel builds the service request. Call only after Validate.
func (r *SubmitTallyRequest) ToModel() models.SubmitTallyRequest {
	return models.SubmitTallyRequest{
		StationID:       r.parsedStationID,
		TableNumber:     *r.TableNumber,
		CandidateVotes:  *r.CandidateVotes,
		TotalTableVotes: *r.TotalTableVotes,
		ImageRef:        r.ImageRef,
		Observations:    r.Observations,
	}
}

// ResolveRequest is the body for POST /v1/tallies/{stationID}/{tableNumber}/resolve.
type ResolveRequest struct {
	Note string `json:"note"`
}

func (r *ResolveRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Note = strings.TrimSpace(r.Note)
	if len(r.Note) > models.MaxObservationsLength {
		return dErrors.New(dErrors.CodeValidation, "note is too long")
	}
	return nil
}
