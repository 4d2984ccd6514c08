package store

import (
	"context"
	"errors"
	"sync"

	"tallysync/internal/voter/models"
	id "tallysync/pkg/domain"
	"tallysync/pkg/platform/sentinel"
)

var ErrNotFound = sentinel.ErrNotFound

// ErrUnknownStation is returned when a record names a station the tenant
// does not have. Only the Postgres store enforces it; the service checks first.
var ErrUnknownStation = errors.New("unknown polling station")

type voterKey struct {
	tenantID   id.TenantID
	nationalID id.NationalID
}

// InMemory keeps one record per (tenant, national id).
type InMemory struct {
	mu     sync.RWMutex
	voters map[voterKey]models.VoterRecord
}

func NewInMemory() *InMemory {
	return &InMemory{voters: make(map[voterKey]models.VoterRecord)}
}

// Upsert inserts the record or overwrites its mutable fields. The returned
// record is what is now stored; CreatedAt survives updates.
func (s *InMemory) Upsert(_ context.Context, record *models.VoterRecord) (*models.VoterRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := voterKey{record.TenantID, record.NationalID}
	stored := *record
	existing, ok := s.voters[key]
	if ok {
		stored.CreatedAt = existing.CreatedAt
	}
	s.voters[key] = stored
	return &stored, !ok, nil
}

func (s *InMemory) FindByNationalID(_ context.Context, tenantID id.TenantID, nationalID id.NationalID) (*models.VoterRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.voters[voterKey{tenantID, nationalID}]
	if !ok {
		return nil, ErrNotFound
	}
	return &v, nil
}

func (s *InMemory) CountByTenant(_ context.Context, tenantID id.TenantID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for k := range s.voters {
		if k.tenantID == tenantID {
			n++
		}
	}
	return n, nil
}
