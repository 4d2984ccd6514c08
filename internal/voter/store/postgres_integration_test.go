//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tallysync/internal/voter/models"
	"tallysync/internal/voter/store"
	"tallysync/pkg/testutil/containers"
)

type PostgresVoterStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresVoterStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresVoterStoreSuite))
}

func (s *PostgresVoterStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresVoterStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "tally_conflicts", "tally_reports", "voters", "polling_stations"))
	s.Require().NoError(s.postgres.SeedStation(ctx, "t1", "kennedy", "Colegio Kennedy", "Cundinamarca", "Bogotá", 2))
}

func (s *PostgresVoterStoreSuite) TestUpsertReportsInsertAndKeepsCreatedAt() {
	ctx := context.Background()
	first := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)
	record := &models.VoterRecord{
		TenantID: "t1", NationalID: "123", FirstName: "Ana", LastName: "Rojas",
		Phone: "3001112233", StationID: "kennedy", RegistrarID: "registrar-1",
		CreatedAt: first, UpdatedAt: first,
	}

	_, inserted, err := s.store.Upsert(ctx, record)
	s.Require().NoError(err)
	s.True(inserted)

	update := *record
	update.Phone = "3009998877"
	update.StationID = ""
	update.UpdatedAt = later
	stored, inserted, err := s.store.Upsert(ctx, &update)
	s.Require().NoError(err)
	s.False(inserted)
	s.Equal(first, stored.CreatedAt)

	got, err := s.store.FindByNationalID(ctx, "t1", "123")
	s.Require().NoError(err)
	s.Equal("3009998877", got.Phone)
	s.Empty(got.StationID)
	s.Equal(later, got.UpdatedAt)

	n, err := s.store.CountByTenant(ctx, "t1")
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *PostgresVoterStoreSuite) TestStationMustBelongToTenant() {
	record := &models.VoterRecord{
		TenantID: "t2", NationalID: "123", FirstName: "Ana", LastName: "Rojas",
		StationID: "kennedy", RegistrarID: "registrar-1",
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	_, _, err := s.store.Upsert(context.Background(), record)
	s.ErrorIs(err, store.ErrUnknownStation, "foreign key rejects another tenant's station")
}
