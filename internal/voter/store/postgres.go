package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tallysync/internal/platform/postgres"
	"tallysync/internal/voter/models"
	id "tallysync/pkg/domain"
	"tallysync/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Upsert relies on the (tenant_id, national_id) primary key; xmax is zero
// only for a freshly inserted row.
func (s *PostgresStore) Upsert(ctx context.Context, record *models.VoterRecord) (*models.VoterRecord, bool, error) {
	query := `
		INSERT INTO voters (tenant_id, national_id, first_name, last_name, phone, email,
		                    station_id, registrar_id, consent_accepted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10, $10)
		ON CONFLICT (tenant_id, national_id) DO UPDATE SET
			first_name       = EXCLUDED.first_name,
			last_name        = EXCLUDED.last_name,
			phone            = EXCLUDED.phone,
			email            = EXCLUDED.email,
			station_id       = EXCLUDED.station_id,
			registrar_id     = EXCLUDED.registrar_id,
			consent_accepted = EXCLUDED.consent_accepted,
			updated_at       = EXCLUDED.updated_at
		RETURNING created_at, (xmax = 0) AS inserted
	`
	stored := *record
	var inserted bool
	err := tx.Use(ctx, s.db).QueryRowContext(ctx, query,
		record.TenantID.String(),
		record.NationalID.String(),
		record.FirstName,
		record.LastName,
		record.Phone,
		record.Email,
		record.StationID.String(),
		record.RegistrarID.String(),
		record.ConsentAccepted,
		record.UpdatedAt,
	).Scan(&stored.CreatedAt, &inserted)
	if postgres.IsForeignKeyViolation(err) {
		return nil, false, fmt.Errorf("upsert voter: %w", ErrUnknownStation)
	}
	if err != nil {
		return nil, false, fmt.Errorf("upsert voter: %w", err)
	}
	stored.CreatedAt = stored.CreatedAt.UTC()
	return &stored, inserted, nil
}

func (s *PostgresStore) FindByNationalID(ctx context.Context, tenantID id.TenantID, nationalID id.NationalID) (*models.VoterRecord, error) {
	query := `
		SELECT tenant_id, national_id, first_name, last_name, phone, email,
		       COALESCE(station_id, ''), registrar_id, consent_accepted, created_at, updated_at
		FROM voters
		WHERE tenant_id = $1 AND national_id = $2
	`
	var v models.VoterRecord
	var tenant, national, station, registrar string
	err := s.db.QueryRowContext(ctx, query, tenantID.String(), nationalID.String()).Scan(
		&tenant, &national, &v.FirstName, &v.LastName, &v.Phone, &v.Email,
		&station, &registrar, &v.ConsentAccepted, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find voter: %w", err)
	}
	v.TenantID = id.TenantID(tenant)
	v.NationalID = id.NationalID(national)
	v.StationID = id.StationID(station)
	v.RegistrarID = id.SubjectID(registrar)
	v.CreatedAt = v.CreatedAt.UTC()
	v.UpdatedAt = v.UpdatedAt.UTC()
	return &v, nil
}

func (s *PostgresStore) CountByTenant(ctx context.Context, tenantID id.TenantID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM voters WHERE tenant_id = $1`, tenantID.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count voters: %w", err)
	}
	return n, nil
}
