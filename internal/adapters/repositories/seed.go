package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"tour-playback-service/internal/domain"
)

type DatasetSeed struct {
	Name    string `json:"name"`
	CSVData string `json:"csv_data"`
}

// DatasetWriter is implemented by both dataset repositories.
type DatasetWriter interface {
	PutDataset(ctx context.Context, ds domain.Dataset) error
}

// Populate the datasets table from a JSON file. Existing names are replaced.
func SeedFromJSON(ctx context.Context, w DatasetWriter, jsonPath string) (int, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed datasets: read %q: %w", jsonPath, err)
	}

	var data []DatasetSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return 0, fmt.Errorf("seed datasets: parse json: %w", err)
	}

	rows := make([]domain.Dataset, 0, len(data))
	for i, item := range data {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return 0, fmt.Errorf("seed datasets: item at index %d: name cannot be empty", i+1)
		}
		if strings.TrimSpace(item.CSVData) == "" {
			return 0, fmt.Errorf("seed datasets: item %q: csv_data cannot be empty", name)
		}
		rows = append(rows, domain.Dataset{Name: name, CSVData: item.CSVData})
	}

	for _, ds := range rows {
		if err := w.PutDataset(ctx, ds); err != nil {
			return 0, fmt.Errorf("seed datasets: %w", err)
		}
	}

	return len(rows), nil
}
