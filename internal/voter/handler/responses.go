package handler

import (
	"time"

	"tallysync/internal/voter/models"
)

type VoterResponse struct {
	NationalID      string    `json:"national_id"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Phone           string    `json:"phone,omitempty"`
	Email           string    `json:"email,omitempty"`
	StationID       string    `json:"station_id,omitempty"`
	ConsentAccepted bool      `json:"consent_accepted"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type SubmitResponse struct {
	Outcome string         `json:"outcome"`
	Voter   *VoterResponse `json:"voter"`
}

func FromRecord(v *models.VoterRecord) *VoterResponse {
	if v == nil {
		return nil
	}
	return &VoterResponse{
		NationalID:      v.NationalID.String(),
		FirstName:       v.FirstName,
		LastName:        v.LastName,
		Phone:           v.Phone,
		Email:           v.Email,
		StationID:       v.StationID.String(),
		ConsentAccepted: v.ConsentAccepted,
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
	}
}
