package ports

import (
	"context"

	"tour-playback-service/internal/domain"
)

// Port: named location data sets that can be loaded instead of uploaded CSV.
type DatasetRepository interface {
	// Returns domain.ErrDatasetNotFound when name is unknown.
	GetDataset(ctx context.Context, name string) (*domain.Dataset, error)
	ListDatasets(ctx context.Context) ([]string, error)
}
