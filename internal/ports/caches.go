package ports

import (
	"context"

	"tour-playback-service/internal/domain"
)

// Cache of solver results keyed by a digest of the request.
type SolveCache interface {
	GetSolve(ctx context.Context, key string) (*domain.SolveResult, bool, error)
	PutSolve(ctx context.Context, key string, res *domain.SolveResult) error
}

// In-process cache of encoded frames keyed by scene fingerprint.
type FrameCache interface {
	Get(key uint64) ([]byte, bool)
	Add(key uint64, frame []byte)
}
