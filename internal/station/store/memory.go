package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"tallysync/internal/station/models"
	id "tallysync/pkg/domain"
	"tallysync/pkg/platform/sentinel"
)

// ErrNotFound is returned when a station does not exist for the tenant.
var ErrNotFound = sentinel.ErrNotFound

type stationKey struct {
	tenantID  id.TenantID
	stationID id.StationID
}

// InMemory is a station directory for development and tests.
type InMemory struct {
	mu       sync.RWMutex
	stations map[stationKey]*models.Station
}

// NewInMemory constructs an empty in-memory directory.
func NewInMemory() *InMemory {
	return &InMemory{stations: make(map[stationKey]*models.Station)}
}

// LoadFile seeds the directory from a JSON array of stations.
func LoadFile(path string) (*InMemory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stations file: %w", err)
	}
	var stations []models.Station
	if err := json.Unmarshal(raw, &stations); err != nil {
		return nil, fmt.Errorf("decode stations file: %w", err)
	}
	s := NewInMemory()
	for i := range stations {
		if err := s.Put(&stations[i]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Put adds or replaces a station. Reference data is loaded out of band; the
// tally and voter services never call this.
func (s *InMemory) Put(station *models.Station) error {
	if station.TenantID == "" || station.ID == "" {
		return fmt.Errorf("station requires tenant_id and id")
	}
	if station.TotalTables < 0 {
		return fmt.Errorf("station %s: total_tables must be >= 0", station.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *station
	s.stations[stationKey{station.TenantID, station.ID}] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, tenantID id.TenantID, stationID id.StationID) (*models.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stations[stationKey{tenantID, stationID}]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (s *InMemory) List(_ context.Context, tenantID id.TenantID, filter models.Filter) ([]*models.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Station
	for key, st := range s.stations {
		if key.tenantID != tenantID || !filter.Matches(st) {
			continue
		}
		cp := *st
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return models.Less(out[i], out[j]) })
	return out, nil
}
