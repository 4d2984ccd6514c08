package store

import (
	"context"
	"sort"
	"sync"

	"tallysync/internal/tally/models"
	id "tallysync/pkg/domain"
)

// InMemory is the test double and single-process store. One RWMutex guards
// reports and conflicts together so StationStats sees a consistent snapshot.
type InMemory struct {
	mu        sync.RWMutex
	reports   map[models.TallyKey]models.TallyReport
	conflicts []models.ConflictRecord
}

func NewInMemory() *InMemory {
	return &InMemory{reports: make(map[models.TallyKey]models.TallyReport)}
}

func (s *InMemory) Get(_ context.Context, tenantID id.TenantID, stationID id.StationID, tableNumber int) (*models.TallyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[models.TallyKey{TenantID: tenantID, StationID: stationID, TableNumber: tableNumber}]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *InMemory) InsertIfAbsent(_ context.Context, report *models.TallyReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := report.Key()
	if current, ok := s.reports[key]; ok {
		return &AlreadyExistsError{Current: &current}
	}
	s.reports[key] = *report
	return nil
}

func (s *InMemory) AppendConflict(_ context.Context, record *models.ConflictRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conflicts = append(s.conflicts, *record)
	return nil
}

// ListConflicts returns newest first.
func (s *InMemory) ListConflicts(_ context.Context, tenantID id.TenantID, filter models.ConflictFilter) ([]*models.ConflictRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ConflictRecord
	for i := range s.conflicts {
		c := s.conflicts[i]
		if c.TenantID != tenantID {
			continue
		}
		if filter.StationID != "" && c.StationID != filter.StationID {
			continue
		}
		if filter.OpenOnly && !c.IsOpen() {
			continue
		}
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DetectedAt.Equal(out[j].DetectedAt) {
			return out[i].DetectedAt.After(out[j].DetectedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *InMemory) ResolveConflicts(_ context.Context, tenantID id.TenantID, stationID id.StationID, tableNumber int, res models.Resolution) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resolved := 0
	for i := range s.conflicts {
		c := &s.conflicts[i]
		if c.TenantID != tenantID || c.StationID != stationID || c.TableNumber != tableNumber || !c.IsOpen() {
			continue
		}
		at := res.ResolvedAt
		c.ResolvedAt = &at
		c.ResolvedBy = res.ReviewerID
		c.ResolutionNote = res.Note
		resolved++
	}
	return resolved, nil
}

// StationStats rolls up accepted reports per station. An empty stationID
// means every station of the tenant.
func (s *InMemory) StationStats(_ context.Context, tenantID id.TenantID, stationID id.StationID) (map[id.StationID]models.StationTally, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	open := make(map[models.TallyKey]struct{})
	for i := range s.conflicts {
		c := &s.conflicts[i]
		if c.TenantID == tenantID && c.IsOpen() {
			open[models.TallyKey{TenantID: c.TenantID, StationID: c.StationID, TableNumber: c.TableNumber}] = struct{}{}
		}
	}

	out := make(map[id.StationID]models.StationTally)
	for key, r := range s.reports {
		if key.TenantID != tenantID || (stationID != "" && key.StationID != stationID) {
			continue
		}
		agg := out[key.StationID]
		if _, pending := open[key]; pending {
			agg.TablesPending++
		} else {
			agg.TablesReported++
			agg.CandidateVotes += r.CandidateVotes
			agg.TotalTableVotes += r.TotalTableVotes
		}
		out[key.StationID] = agg
	}
	return out, nil
}
