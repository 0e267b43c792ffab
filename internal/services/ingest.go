package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"tour-playback-service/internal/domain"
)

// ParseLocations reads location names from the first column of every data row.
// The first record is the header; rows with fewer than two columns are skipped.
func ParseLocations(text string) ([]domain.Location, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var names []string
	header := true
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse locations: %w: %w", ErrInvalidInput, err)
		}
		if header {
			header = false
			continue
		}
		if len(rec) < 2 {
			continue
		}
		names = append(names, strings.TrimSpace(rec[0]))
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("parse locations: %w: %w", ErrInvalidInput, ErrNoLocations)
	}
	return domain.LocationsFromNames(names), nil
}
