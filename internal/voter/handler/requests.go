package handler

import (
	"tallysync/internal/voter/models"
	dErrors "tallysync/pkg/domain-errors"
)

// SubmitVoterRequest is the HTTP body for POST /v1/voters.
type SubmitVoterRequest struct {
	NationalID      string `json:"national_id"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	StationID       string `json:"station_id"`
	ConsentAccepted bool   `json:"consent_accepted"`
}

// Validate only rejects an empty body; field rules run in the service.
func (r *SubmitVoterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return nil
}

func (r *SubmitVoterRequest) ToModel() models.SubmitVoterRequest {
	return models.SubmitVoterRequest{
		NationalID:      r.NationalID,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Phone:           r.Phone,
		Email:           r.Email,
		StationID:       r.StationID,
		ConsentAccepted: r.ConsentAccepted,
	}
}
