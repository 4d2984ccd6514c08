package models

import (
	"fmt"
	"strings"

	id "tallysync/pkg/domain"
)

const (
	MaxImageRefLength     = 512
	MaxObservationsLength = 2000
)

// ValidationKind classifies why a submission was rejected before any write.
type ValidationKind string

const (
	ValidationOutOfRange     ValidationKind = "out_of_range"
	ValidationMalformed      ValidationKind = "malformed"
	ValidationUnknownStation ValidationKind = "unknown_station"
)

// ValidationError is the caller's fault and is never retried automatically.
type ValidationError struct {
	Kind    ValidationKind
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func outOfRange(field, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: ValidationOutOfRange, Field: field, Message: fmt.Sprintf(format, args...)}
}

func malformed(field, message string) *ValidationError {
	return &ValidationError{Kind: ValidationMalformed, Field: field, Message: message}
}

// SubmitTallyRequest is the witness payload. Tenant and submitter come from
// the trust boundary, never from the body.
type SubmitTallyRequest struct {
	StationID       id.StationID
	TableNumber     int
	CandidateVotes  int
	TotalTableVotes int
	ImageRef        string
	Observations    string
}

// Normalize trims free-text fields.
func (r *SubmitTallyRequest) Normalize() {
	r.ImageRef = strings.TrimSpace(r.ImageRef)
	r.Observations = strings.TrimSpace(r.Observations)
}

// ValidateShape checks everything that does not need the station record.
func (r *SubmitTallyRequest) ValidateShape() *ValidationError {
	if r.StationID == "" {
		return malformed("station_id", "is required")
	}
	if r.TotalTableVotes < 0 {
		return outOfRange("total_table_votes", "must be >= 0, got %d", r.TotalTableVotes)
	}
	if r.CandidateVotes < 0 {
		return outOfRange("candidate_votes", "must be >= 0, got %d", r.CandidateVotes)
	}
	if r.CandidateVotes > r.TotalTableVotes {
		return outOfRange("candidate_votes", "must not exceed total_table_votes (%d > %d)", r.CandidateVotes, r.TotalTableVotes)
	}
	if r.TableNumber < 1 {
		return outOfRange("table_number", "must be >= 1, got %d", r.TableNumber)
	}
	if len(r.ImageRef) > MaxImageRefLength {
		return malformed("image_ref", fmt.Sprintf("must be at most %d characters", MaxImageRefLength))
	}
	if len(r.Observations) > MaxObservationsLength {
		return malformed("observations", fmt.Sprintf("must be at most %d characters", MaxObservationsLength))
	}
	return nil
}

// ValidateTable checks the table number against the station's table count.
func ValidateTable(tableNumber, totalTables int) *ValidationError {
	if tableNumber < 1 || tableNumber > totalTables {
		return outOfRange("table_number", "must be between 1 and %d, got %d", totalTables, tableNumber)
	}
	return nil
}

// UnknownStation reports a station id that does not exist for the tenant.
func UnknownStation(stationID id.StationID) *ValidationError {
	return &ValidationError{Kind: ValidationUnknownStation, Field: "station_id", Message: fmt.Sprintf("station %q not found", stationID)}
}
