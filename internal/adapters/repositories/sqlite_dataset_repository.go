package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tour-playback-service/internal/domain"
)

// SQLite-backed implementation of the DatasetRepository port.
type SqliteDatasetRepository struct{ DB *sql.DB }

func NewSqliteDatasetRepository(db *sql.DB) *SqliteDatasetRepository {
	return &SqliteDatasetRepository{DB: db}
}

func (s *SqliteDatasetRepository) GetDataset(ctx context.Context, name string) (*domain.Dataset, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite dataset repository: DB is nil")
	}

	query := `
	SELECT name, csv_data
	FROM datasets
	WHERE name = ?;
	`
	var ds domain.Dataset
	err := s.DB.QueryRowContext(ctx, query, name).Scan(&ds.Name, &ds.CSVData)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get dataset %q: %w", name, domain.ErrDatasetNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get dataset %q: %w", name, err)
	}
	return &ds, nil
}

func (s *SqliteDatasetRepository) ListDatasets(ctx context.Context) ([]string, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite dataset repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT name FROM datasets ORDER BY name;`)
	if err != nil {
		return nil, fmt.Errorf("list datasets: query datasets table: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0, 8)
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("list datasets: scan row: %w", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list datasets: row iteration: %w", err)
	}
	return names, nil
}

func (s *SqliteDatasetRepository) PutDataset(ctx context.Context, ds domain.Dataset) error {
	if s.DB == nil {
		return errors.New("sqlite dataset repository: DB is nil")
	}

	query := `
	INSERT OR REPLACE INTO datasets (name, csv_data)
	VALUES (?, ?);
	`
	if _, err := s.DB.ExecContext(ctx, query, ds.Name, ds.CSVData); err != nil {
		return fmt.Errorf("put dataset %q: %w", ds.Name, err)
	}
	return nil
}
