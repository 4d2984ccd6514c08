package models

import (
	"net/mail"
	"strings"
	"time"

	id "tallysync/pkg/domain"
	dErrors "tallysync/pkg/domain-errors"
)

const (
	MaxNameLength  = 100
	MaxPhoneLength = 20
	MaxEmailLength = 254
)

// VoterRecord is a field registration. NationalID, TenantID and CreatedAt
// never change; every other field is last-writer-wins.
type VoterRecord struct {
	TenantID        id.TenantID   `json:"tenant_id"`
	NationalID      id.NationalID `json:"national_id"`
	FirstName       string        `json:"first_name"`
	LastName        string        `json:"last_name"`
	Phone           string        `json:"phone,omitempty"`
	Email           string        `json:"email,omitempty"`
	StationID       id.StationID  `json:"station_id,omitempty"`
	RegistrarID     id.SubjectID  `json:"registrar_id"`
	ConsentAccepted bool          `json:"consent_accepted"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type OutcomeKind string

const (
	OutcomeCreated OutcomeKind = "created"
	OutcomeUpdated OutcomeKind = "updated"
)

type VoterOutcome struct {
	Kind   OutcomeKind
	Record *VoterRecord
}

// SubmitVoterRequest is the registrar payload; tenant and registrar come
// from the trust boundary.
type SubmitVoterRequest struct {
	NationalID      string
	FirstName       string
	LastName        string
	Phone           string
	Email           string
	StationID       string
	ConsentAccepted bool
}

func (r *SubmitVoterRequest) Normalize() {
	r.NationalID = strings.TrimSpace(r.NationalID)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.StationID = strings.TrimSpace(r.StationID)
}

// Validate checks the payload and returns the parsed identifiers. The
// station's existence is checked by the service against the tenant.
func (r *SubmitVoterRequest) Validate() (id.NationalID, id.StationID, error) {
	nationalID, err := id.ParseNationalID(r.NationalID)
	if err != nil {
		return "", "", dErrors.Wrap(err, dErrors.CodeValidation, dErrors.MessageOf(err))
	}
	if r.FirstName == "" {
		return "", "", dErrors.New(dErrors.CodeValidation, "first_name is required")
	}
	if r.LastName == "" {
		return "", "", dErrors.New(dErrors.CodeValidation, "last_name is required")
	}
	if len(r.FirstName) > MaxNameLength || len(r.LastName) > MaxNameLength {
		return "", "", dErrors.New(dErrors.CodeValidation, "names must be at most 100 characters")
	}
	if r.Phone != "" && !validPhone(r.Phone) {
		return "", "", dErrors.New(dErrors.CodeValidation, "phone may contain only digits, spaces, '+' and '-' (max 20)")
	}
	if r.Email != "" {
		if len(r.Email) > MaxEmailLength {
			return "", "", dErrors.New(dErrors.CodeValidation, "email is too long")
		}
		addr, err := mail.ParseAddress(r.Email)
		if err != nil || addr.Address != r.Email {
			return "", "", dErrors.New(dErrors.CodeValidation, "email is not a valid address")
		}
	}
	var stationID id.StationID
	if r.StationID != "" {
		stationID, err = id.ParseStationID(r.StationID)
		if err != nil {
			return "", "", dErrors.Wrap(err, dErrors.CodeValidation, dErrors.MessageOf(err))
		}
	}
	return nationalID, stationID, nil
}

func validPhone(p string) bool {
	if len(p) > MaxPhoneLength {
		return false
	}
	digits := 0
	for _, c := range p {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '+' || c == '-' || c == ' ':
		default:
			return false
		}
	}
	return digits > 0
}
