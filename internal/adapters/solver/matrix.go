package solver

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"tour-playback-service/internal/domain"
)

// ParseDistanceCSV reads a header row followed by one row per city: the city
// name, then its distance to every city in row order. Rows with fewer than two
// columns are skipped.
func ParseDistanceCSV(text string) ([]string, *mat.Dense, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, &domain.SolverError{Message: "No CSV data provided"}
	}

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	if _, err := r.Read(); err != nil {
		return nil, nil, &domain.SolverError{Message: fmt.Sprintf("read header: %v", err)}
	}

	var (
		cities []string
		rows   [][]float64
	)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, &domain.SolverError{Message: fmt.Sprintf("read row: %v", err)}
		}
		if len(rec) < 2 {
			continue
		}

		vals := make([]float64, 0, len(rec)-1)
		for _, f := range rec[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, nil, &domain.SolverError{Message: fmt.Sprintf("could not convert %q to float in row %q", f, rec[0])}
			}
			if v < 0 {
				return nil, nil, &domain.SolverError{Message: fmt.Sprintf("negative distance %g in row %q", v, rec[0])}
			}
			vals = append(vals, v)
		}
		cities = append(cities, strings.TrimSpace(rec[0]))
		rows = append(rows, vals)
	}

	n := len(cities)
	if n == 0 {
		return nil, nil, &domain.SolverError{Message: "no cities in CSV data"}
	}

	dist := mat.NewDense(n, n, nil)
	for i, row := range rows {
		if len(row) != n {
			return nil, nil, &domain.SolverError{
				Message: fmt.Sprintf("distance matrix must be %dx%d, row %q has %d values", n, n, cities[i], len(row)),
			}
		}
		dist.SetRow(i, row)
	}

	return cities, dist, nil
}

// toRows copies m into a plain slice of rows.
func toRows(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
		for j := range out[i] {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}
