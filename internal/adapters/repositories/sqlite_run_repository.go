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

// SQLite-backed implementation of the RunRepository port.
type SqliteRunRepository struct{ DB *sql.DB }

func NewSqliteRunRepository(db *sql.DB) *SqliteRunRepository {
	return &SqliteRunRepository{DB: db}
}

// Insert or replace one archived run.
func (s *SqliteRunRepository) SaveRun(ctx context.Context, rec *domain.RunRecord) (err error) {
	defer obs.Time(ctx, "runs.sqlite.SaveRun")(&err)

	if s.DB == nil {
		return errors.New("sqlite run repository: DB is nil")
	}
	if rec == nil || rec.RunID == "" {
		return errors.New("save run: run id must not be empty")
	}

	row, err := encodeRun(rec)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	query := `
	INSERT OR REPLACE INTO runs (` + runColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
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

// Set the terminal status of a run. Unknown ids are not an error.
func (s *SqliteRunRepository) FinishRun(ctx context.Context, runID string, status domain.RunStatus, at time.Time) error {
	if s.DB == nil {
		return errors.New("sqlite run repository: DB is nil")
	}

	query := `
	UPDATE runs
	SET status = ?, finished_at = ?
	WHERE run_id = ?;
	`
	if _, err := s.DB.ExecContext(ctx, query, string(status), at.UnixMilli(), runID); err != nil {
		return fmt.Errorf("finish run run_id=%s: %w", runID, err)
	}
	return nil
}

// Return up to limit runs, newest first.
func (s *SqliteRunRepository) ListRuns(ctx context.Context, limit int) (_ []*domain.RunRecord, err error) {
	defer obs.Time(ctx, "runs.sqlite.ListRuns")(&err)

	if s.DB == nil {
		return nil, errors.New("sqlite run repository: DB is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
	SELECT ` + runColumns + `
	FROM runs
	ORDER BY created_at DESC, run_id
	LIMIT ?;
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
