package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tour-playback-service/internal/domain"
)

// Postgres-backed implementation of the DatasetRepository port.
type SQLDatasetRepository struct{ DB *sql.DB }

func NewSQLDatasetRepository(db *sql.DB) *SQLDatasetRepository {
	return &SQLDatasetRepository{DB: db}
}

func (s *SQLDatasetRepository) GetDataset(ctx context.Context, name string) (*domain.Dataset, error) {
	if s.DB == nil {
		return nil, errors.New("dataset repository: db is nil")
	}

	var ds domain.Dataset
	err := s.DB.QueryRowContext(ctx, `SELECT name, csv_data FROM datasets WHERE name = $1;`, name).
		Scan(&ds.Name, &ds.CSVData)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get dataset %q: %w", name, domain.ErrDatasetNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get dataset %q: %w", name, err)
	}
	return &ds, nil
}

func (s *SQLDatasetRepository) ListDatasets(ctx context.Context) ([]string, error) {
	if s.DB == nil {
		return nil, errors.New("dataset repository: db is nil")
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

func (s *SQLDatasetRepository) PutDataset(ctx context.Context, ds domain.Dataset) error {
	if s.DB == nil {
		return errors.New("dataset repository: db is nil")
	}

	query := `
	INSERT INTO datasets (name, csv_data)
	VALUES ($1, $2)
	ON CONFLICT (name) DO UPDATE
	SET csv_data = EXCLUDED.csv_data;
	`
	if _, err := s.DB.ExecContext(ctx, query, ds.Name, ds.CSVData); err != nil {
		return fmt.Errorf("put dataset %q: %w", ds.Name, err)
	}
	return nil
}
