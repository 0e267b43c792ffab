package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the database schema. The DDL is shared by SQLite and Postgres:
// timestamps are unix milliseconds and list columns hold JSON text.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createRunsQuery := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		cities TEXT NOT NULL,
		tour TEXT NOT NULL,
		cost DOUBLE PRECISION NOT NULL,
		total_supply DOUBLE PRECISION NOT NULL,
		supply_weight DOUBLE PRECISION NOT NULL,
		stress_factor DOUBLE PRECISION NOT NULL,
		created_at BIGINT NOT NULL,
		finished_at BIGINT
	);
	`

	createDatasetsQuery := `
	CREATE TABLE IF NOT EXISTS datasets (
		name TEXT PRIMARY KEY,
		csv_data TEXT NOT NULL
	);
	`

	createSolveCacheQuery := `
	CREATE TABLE IF NOT EXISTS solve_cache (
		cache_key TEXT PRIMARY KEY,
		result TEXT NOT NULL,
		expires_at BIGINT
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_runs_created_at
	ON runs(created_at);
	`

	statements := []string{
		createRunsQuery,
		createDatasetsQuery,
		createSolveCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
