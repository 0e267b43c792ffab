package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tour-playback-service/internal/domain"
	"tour-playback-service/internal/platform/obs"
)

// Postgres-backed implementation of the RunRepository port.
type SQLRunRepository struct{ DB *sql.DB }

func NewSQLRunRepository(db *sql.DB) *SQLRunRepository {
	return &SQLRunRepository{DB: db}
}

func (s *SQLRunRepository) SaveRun(ctx context.Context, rec *domain.RunRecord) (err error) {
	defer obs.Time(ctx, "runs.sql.SaveRun")(&err)

	if s.DB == nil {
		return errors.New("run repository: db is nil")
	}
	if rec == nil || rec.RunID == "" {
		return errors.New("save run: run id must not be empty")
	}

	row, err := encodeRun(rec)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	query := `
	INSERT INTO runs (` + runColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (run_id) DO UPDATE
	SET status = EXCLUDED.status,
		cities = EXCLUDED.cities,
		tour = EXCLUDED.tour,
		cost = EXCLUDED.cost,
		total_supply = EXCLUDED.total_supply,
		supply_weight = EXCLUDED.supply_weight,
		stress_factor = EXCLUDED.stress_factor,
		created_at = EXCLUDED.created_at,
		finished_at = EXCLUDED.finished_at;
	`
	_, err = s.DB.ExecContext(ctx, query,
		rec.RunID, string(rec.Status), row.cities, row.tour,
		rec.Cost, rec.TotalSupply, rec.SupplyWeight, rec.StressFactor,
		row.createdAt, row.finishedAt,
	)
	if err != nil {
		return fmt.Errorf("save run run_id=%s: %w", rec.RunID, err)
	}
	return nil
}

func (s *SQLRunRepository) FinishRun(ctx context.Context, runID string, status domain.RunStatus, at time.Time) error {
	if s.DB == nil {
		return errors.New("run repository: db is nil")
	}

	query := `
	UPDATE runs
	SET status = $1, finished_at = $2
	WHERE run_id = $3;
	`
	if _, err := s.DB.ExecContext(ctx, query, string(status), at.UnixMilli(), runID); err != nil {
		return fmt.Errorf("finish run run_id=%s: %w", runID, err)
	}
	return nil
}

func (s *SQLRunRepository) ListRuns(ctx context.Context, limit int) (_ []*domain.RunRecord, err error) {
	defer obs.Time(ctx, "runs.sql.ListRuns")(&err)

	if s.DB == nil {
		return nil, errors.New("run repository: db is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
	SELECT ` + runColumns + `
	FROM runs
	ORDER BY created_at DESC, run_id
	LIMIT $1;
	`
	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: query runs table: %w", err)
	}
	defer rows.Close()

	out, err := scanRuns(rows)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}
