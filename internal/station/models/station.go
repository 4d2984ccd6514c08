package models

import (
	"strings"

	id "tallysync/pkg/domain"
)

// Station is a polling station (puesto) as provided by the territory setup
// collaborator. It is read-only here.
//
// Invariants:
//   - TotalTables >= 0; a tally's table number must lie in [1, TotalTables]
//   - every station belongs to exactly one tenant
type Station struct {
	TenantID     id.TenantID  `json:"tenant_id"`
	ID           id.StationID `json:"id"`
	Name         string       `json:"name"`
	Department   string       `json:"department"`
	Municipality string       `json:"municipality"`
	TotalTables  int          `json:"total_tables"`
}

// HasTable reports whether tableNumber is a valid table of this station.
func (s *Station) HasTable(tableNumber int) bool {
	return tableNumber >= 1 && tableNumber <= s.TotalTables
}

// Filter narrows a station listing. Empty fields match everything.
type Filter struct {
	Department   string
	Municipality string
	NameContains string
}

// Normalize trims the filter fields.
func (f *Filter) Normalize() {
	f.Department = strings.TrimSpace(f.Department)
	f.Municipality = strings.TrimSpace(f.Municipality)
	f.NameContains = strings.TrimSpace(f.NameContains)
}

// Matches applies the filter case-insensitively.
func (f Filter) Matches(s *Station) bool {
	if f.Department != "" && !strings.EqualFold(s.Department, f.Department) {
		return false
	}
	if f.Municipality != "" && !strings.EqualFold(s.Municipality, f.Municipality) {
		return false
	}
	if f.NameContains != "" && !strings.Contains(strings.ToLower(s.Name), strings.ToLower(f.NameContains)) {
		return false
	}
	return true
}

// Less orders stations by name, then id, so pagination is stable.
func Less(a, b *Station) bool {
	an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
	if an != bn {
		return an < bn
	}
	return a.ID < b.ID
}
