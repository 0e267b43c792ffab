package ports

import (
	"context"
	"time"

	"tour-playback-service/internal/domain"
)

// Port: archive of solve-and-play runs.
type RunRepository interface {
	SaveRun(ctx context.Context, rec *domain.RunRecord) error
	// Record the terminal status of a run.
	FinishRun(ctx context.Context, runID string, status domain.RunStatus, at time.Time) error
	// Most recent runs first.
	ListRuns(ctx context.Context, limit int) ([]*domain.RunRecord, error)
}
