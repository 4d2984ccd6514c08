package domain

import (
	"strings"
	"unicode/utf8"

	dErrors "tallysync/pkg/domain-errors"
)

// Identifiers arriving from the trust boundary or from field devices are opaque
// strings. Distinct types keep a station id from being passed where a tenant id
// is expected.
type (
	TenantID   string
	SubjectID  string
	StationID  string
	NationalID string
)

const (
	maxOpaqueIDLength   = 64
	maxNationalIDLength = 20
)

func (id TenantID) String() string   { return string(id) }
func (id SubjectID) String() string  { return string(id) }
func (id StationID) String() string  { return string(id) }
func (id NationalID) String() string { return string(id) }

// IsNil reports whether the tenant id is unset.
func (id TenantID) IsNil() bool { return id == "" }

// IsNil reports whether the subject id is unset.
func (id SubjectID) IsNil() bool { return id == "" }

// ParseTenantID validates a tenant identifier supplied by the trust boundary.
func ParseTenantID(s string) (TenantID, error) {
	v, err := parseOpaque(s, "tenant_id")
	return TenantID(v), err
}

// ParseSubjectID validates the identifier of the authenticated submitter,
// registrar, or reviewer.
func ParseSubjectID(s string) (SubjectID, error) {
	v, err := parseOpaque(s, "subject_id")
	return SubjectID(v), err
}

// ParseStationID validates a polling station identifier.
func ParseStationID(s string) (StationID, error) {
	v, err := parseOpaque(s, "station_id")
	return StationID(v), err
}

// ParseNationalID validates a national identity document number: letters,
// digits and hyphens, at most 20 characters.
func ParseNationalID(s string) (NationalID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "national_id is required")
	}
	if len(s) > maxNationalIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "national_id must be at most 20 characters")
	}
	for _, r := range s {
		if !isAlnum(r) && r != '-' {
			return "", dErrors.New(dErrors.CodeInvalidInput, "national_id contains invalid characters")
		}
	}
	return NationalID(s), nil
}

func parseOpaque(s, field string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	if !utf8.ValidString(s) || len(s) > maxOpaqueIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, field+" is malformed")
	}
	for _, r := range s {
		if !isAlnum(r) && !strings.ContainsRune("-_.:", r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, field+" contains invalid characters")
		}
	}
	return s, nil
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
