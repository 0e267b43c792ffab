package repositories

import (
	"database/sql"
	"fmt"

	"tour-playback-service/internal/ports"
)

// DatasetStore reads and seeds named data sets.
type DatasetStore interface {
	ports.DatasetRepository
	DatasetWriter
}

type Stores struct {
	Runs     ports.RunRepository
	Datasets DatasetStore
}

// NewStores picks the repository flavour matching driver.
func NewStores(driver string, db *sql.DB) (Stores, error) {
	switch driver {
	case "sqlite":
		return Stores{
			Runs:     NewSqliteRunRepository(db),
			Datasets: NewSqliteDatasetRepository(db),
		}, nil
	case "postgres":
		return Stores{
			Runs:     NewSQLRunRepository(db),
			Datasets: NewSQLDatasetRepository(db),
		}, nil
	default:
		return Stores{}, fmt.Errorf("new stores: unknown driver %q", driver)
	}
}
