package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"tallysync/internal/tally/models"
	id "tallysync/pkg/domain"
	"tallysync/pkg/platform/tx"
)

// PostgresStore persists tallies and the conflict trail in PostgreSQL. The
// primary key on (tenant_id, station_id, table_number) is what serializes
// concurrent first submissions. Writes join a transaction carried on ctx.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const reportColumns = `tenant_id, station_id, table_number, candidate_votes, total_table_votes,
	image_ref, observations, submitter_id, received_at`

func (s *PostgresStore) Get(ctx context.Context, tenantID id.TenantID, stationID id.StationID, tableNumber int) (*models.TallyReport, error) {
	query := `SELECT ` + reportColumns + `
		FROM tally_reports
		WHERE tenant_id = $1 AND station_id = $2 AND table_number = $3`
	r, err := scanReport(tx.Use(ctx, s.db).QueryRowContext(ctx, query, tenantID.String(), stationID.String(), tableNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get tally: %w", err)
	}
	return r, nil
}

// InsertIfAbsent writes the report unless the key is taken, in which case it
// returns *AlreadyExistsError carrying the stored row. ON CONFLICT DO NOTHING
// waits for a concurrent inserter to commit and keeps an enclosing
// transaction usable for the follow-up read.
func (s *PostgresStore) InsertIfAbsent(ctx context.Context, report *models.TallyReport) error {
	query := `INSERT INTO tally_reports (` + reportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (tenant_id, station_id, table_number) DO NOTHING`
	result, err := tx.Use(ctx, s.db).ExecContext(ctx, query,
		report.TenantID.String(),
		report.StationID.String(),
		report.TableNumber,
		report.CandidateVotes,
		report.TotalTableVotes,
		report.ImageRef,
		report.Observations,
		report.SubmitterID.String(),
		report.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("insert tally: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert tally rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}
	current, err := s.Get(ctx, report.TenantID, report.StationID, report.TableNumber)
	if err != nil {
		return fmt.Errorf("read tally after insert conflict: %w", err)
	}
	return &AlreadyExistsError{Current: current}
}

func (s *PostgresStore) AppendConflict(ctx context.Context, record *models.ConflictRecord) error {
	incoming, err := json.Marshal(record.Incoming)
	if err != nil {
		return fmt.Errorf("marshal incoming tally: %w", err)
	}
	stored, err := json.Marshal(record.Stored)
	if err != nil {
		return fmt.Errorf("marshal stored tally: %w", err)
	}
	query := `
		INSERT INTO tally_conflicts (id, tenant_id, station_id, table_number, incoming, stored, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = tx.Use(ctx, s.db).ExecContext(ctx, query,
		record.ID,
		record.TenantID.String(),
		record.StationID.String(),
		record.TableNumber,
		incoming,
		stored,
		record.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("append conflict: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListConflicts(ctx context.Context, tenantID id.TenantID, filter models.ConflictFilter) ([]*models.ConflictRecord, error) {
	query := `
		SELECT id, tenant_id, station_id, table_number, incoming, stored,
		       detected_at, resolved_at, resolved_by, resolution_note
		FROM tally_conflicts
		WHERE tenant_id = $1
		  AND ($2 = '' OR station_id = $2)
		  AND (NOT $3 OR resolved_at IS NULL)
		ORDER BY detected_at DESC, id
	`
	rows, err := s.db.QueryContext(ctx, query, tenantID.String(), filter.StationID.String(), filter.OpenOnly)
	if err != nil {
		return nil, fmt.Errorf("list conflicts: %w", err)
	}
	defer rows.Close()

	var out []*models.ConflictRecord
	for rows.Next() {
		c, err := scanConflict(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conflicts: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ResolveConflicts(ctx context.Context, tenantID id.TenantID, stationID id.StationID, tableNumber int, res models.Resolution) (int, error) {
	query := `
		UPDATE tally_conflicts
		SET resolved_at = $4, resolved_by = $5, resolution_note = $6
		WHERE tenant_id = $1 AND station_id = $2 AND table_number = $3
		  AND resolved_at IS NULL
	`
	result, err := tx.Use(ctx, s.db).ExecContext(ctx, query,
		tenantID.String(), stationID.String(), tableNumber,
		res.ResolvedAt, res.ReviewerID.String(), res.Note,
	)
	if err != nil {
		return 0, fmt.Errorf("resolve conflicts: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("resolve conflicts rows affected: %w", err)
	}
	return int(n), nil
}

// StationStats is a single statement so the rollup comes from one snapshot.
// An empty stationID means every station of the tenant.
func (s *PostgresStore) StationStats(ctx context.Context, tenantID id.TenantID, stationID id.StationID) (map[id.StationID]models.StationTally, error) {
	query := `
		WITH open_conflicts AS (
			SELECT DISTINCT station_id, table_number
			FROM tally_conflicts
			WHERE tenant_id = $1 AND resolved_at IS NULL
		)
		SELECT r.station_id,
		       COUNT(*) FILTER (WHERE oc.table_number IS NULL),
		       COUNT(*) FILTER (WHERE oc.table_number IS NOT NULL),
		       COALESCE(SUM(r.candidate_votes) FILTER (WHERE oc.table_number IS NULL), 0),
		       COALESCE(SUM(r.total_table_votes) FILTER (WHERE oc.table_number IS NULL), 0)
		FROM tally_reports r
		LEFT JOIN open_conflicts oc
		       ON oc.station_id = r.station_id AND oc.table_number = r.table_number
		WHERE r.tenant_id = $1
		  AND ($2 = '' OR r.station_id = $2)
		GROUP BY r.station_id
	`
	rows, err := s.db.QueryContext(ctx, query, tenantID.String(), stationID.String())
	if err != nil {
		return nil, fmt.Errorf("station stats: %w", err)
	}
	defer rows.Close()

	out := make(map[id.StationID]models.StationTally)
	for rows.Next() {
		var sid string
		var agg models.StationTally
		if err := rows.Scan(&sid, &agg.TablesReported, &agg.TablesPending, &agg.CandidateVotes, &agg.TotalTableVotes); err != nil {
			return nil, fmt.Errorf("scan station stats: %w", err)
		}
		out[id.StationID(sid)] = agg
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate station stats: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*models.TallyReport, error) {
	var r models.TallyReport
	var tenantID, stationID, submitterID string
	if err := row.Scan(
		&tenantID, &stationID, &r.TableNumber, &r.CandidateVotes, &r.TotalTableVotes,
		&r.ImageRef, &r.Observations, &submitterID, &r.ReceivedAt,
	); err != nil {
		return nil, err
	}
	r.TenantID = id.TenantID(tenantID)
	r.StationID = id.StationID(stationID)
	r.SubmitterID = id.SubjectID(submitterID)
	r.ReceivedAt = r.ReceivedAt.UTC()
	return &r, nil
}

func scanConflict(row rowScanner) (*models.ConflictRecord, error) {
	var c models.ConflictRecord
	var conflictID uuid.UUID
	var tenantID, stationID string
	var incoming, stored []byte
	var resolvedAt sql.NullTime
	var resolvedBy sql.NullString
	if err := row.Scan(
		&conflictID, &tenantID, &stationID, &c.TableNumber, &incoming, &stored,
		&c.DetectedAt, &resolvedAt, &resolvedBy, &c.ResolutionNote,
	); err != nil {
		return nil, fmt.Errorf("scan conflict: %w", err)
	}
	if err := json.Unmarshal(incoming, &c.Incoming); err != nil {
		return nil, fmt.Errorf("decode incoming tally: %w", err)
	}
	if err := json.Unmarshal(stored, &c.Stored); err != nil {
		return nil, fmt.Errorf("decode stored tally: %w", err)
	}
	c.ID = conflictID
	c.TenantID = id.TenantID(tenantID)
	c.StationID = id.StationID(stationID)
	c.DetectedAt = c.DetectedAt.UTC()
	if resolvedAt.Valid {
		at := resolvedAt.Time.UTC()
		c.ResolvedAt = &at
	}
	c.ResolvedBy = id.SubjectID(resolvedBy.String)
	return &c, nil
}
