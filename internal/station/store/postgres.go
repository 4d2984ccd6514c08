package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tallysync/internal/station/models"
	id "tallysync/pkg/domain"
)

// PostgresStore reads polling stations from the shared database.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed station directory.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByID(ctx context.Context, tenantID id.TenantID, stationID id.StationID) (*models.Station, error) {
	query := `
		SELECT tenant_id, id, name, department, municipality, total_tables
		FROM polling_stations
		WHERE tenant_id = $1 AND id = $2
	`
	st, err := scanStation(s.db.QueryRowContext(ctx, query, tenantID.String(), stationID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find station: %w", err)
	}
	return st, nil
}

// List matches the in-memory semantics: case-insensitive equality on
// department and municipality, case-insensitive substring on name. Ordering
// uses byte order under "C" so pages line up with models.Less whatever the
// database collation is.
func (s *PostgresStore) List(ctx context.Context, tenantID id.TenantID, filter models.Filter) ([]*models.Station, error) {
	query := `
		SELECT tenant_id, id, name, department, municipality, total_tables
		FROM polling_stations
		WHERE tenant_id = $1
		  AND ($2 = '' OR lower(department) = lower($2))
		  AND ($3 = '' OR lower(municipality) = lower($3))
		  AND ($4 = '' OR strpos(lower(name), lower($4)) > 0)
		ORDER BY lower(name) COLLATE "C", id COLLATE "C"
	`
	rows, err := s.db.QueryContext(ctx, query, tenantID.String(), filter.Department, filter.Municipality, filter.NameContains)
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	defer rows.Close()

	var out []*models.Station
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stations: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStation(row rowScanner) (*models.Station, error) {
	var st models.Station
	var tenantID, stationID string
	if err := row.Scan(&tenantID, &stationID, &st.Name, &st.Department, &st.Municipality, &st.TotalTables); err != nil {
		return nil, err
	}
	st.TenantID = id.TenantID(tenantID)
	st.ID = id.StationID(stationID)
	return &st, nil
}
