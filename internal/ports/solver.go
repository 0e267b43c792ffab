package ports

import (
	"context"

	"tour-playback-service/internal/domain"
)

// Contract for the external tour-solving collaborator.
type Solver interface {
	// Return a visiting order for the request's locations. Failures reported by
	// the solver itself are *domain.SolverError; anything else is transport.
	Solve(ctx context.Context, req domain.SolveRequest) (*domain.SolveResult, error)
}
