package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"tour-playback-service/internal/domain"
)

const runColumns = `run_id, status, cities, tour, cost, total_supply, supply_weight, stress_factor, created_at, finished_at`

type runRow struct {
	cities     string
	tour       string
	createdAt  int64
	finishedAt sql.NullInt64
}

func encodeRun(rec *domain.RunRecord) (runRow, error) {
	cities, err := json.Marshal(rec.Cities)
	if err != nil {
		return runRow{}, fmt.Errorf("encode cities: %w", err)
	}
	tour, err := json.Marshal(rec.Tour)
	if err != nil {
		return runRow{}, fmt.Errorf("encode tour: %w", err)
	}

	row := runRow{cities: string(cities), tour: string(tour), createdAt: rec.CreatedAt.UnixMilli()}
	if rec.FinishedAt != nil {
		row.finishedAt = sql.NullInt64{Int64: rec.FinishedAt.UnixMilli(), Valid: true}
	}
	return row, nil
}

func scanRuns(rows *sql.Rows) ([]*domain.RunRecord, error) {
	out := make([]*domain.RunRecord, 0, 16)
	for rows.Next() {
		var (
			rec    domain.RunRecord
			status string
			row    runRow
		)
		err := rows.Scan(
			&rec.RunID, &status, &row.cities, &row.tour,
			&rec.Cost, &rec.TotalSupply, &rec.SupplyWeight, &rec.StressFactor,
			&row.createdAt, &row.finishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		rec.Status = domain.RunStatus(status)
		if err := json.Unmarshal([]byte(row.cities), &rec.Cities); err != nil {
			return nil, fmt.Errorf("decode cities run_id=%s: %w", rec.RunID, err)
		}
		if err := json.Unmarshal([]byte(row.tour), &rec.Tour); err != nil {
			return nil, fmt.Errorf("decode tour run_id=%s: %w", rec.RunID, err)
		}
		rec.CreatedAt = time.UnixMilli(row.createdAt).UTC()
		if row.finishedAt.Valid {
			at := time.UnixMilli(row.finishedAt.Int64).UTC()
			rec.FinishedAt = &at
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return out, nil
}
