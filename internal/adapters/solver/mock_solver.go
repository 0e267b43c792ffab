package solver

import (
	"context"
	"slices"
	"sync"

	"tour-playback-service/internal/domain"
)

// MockSolver answers every request with a canned result or error.
// Block, when set, holds each call until it is closed or ctx ends.
type MockSolver struct {
	Result *domain.SolveResult
	Err    error
	Block  <-chan struct{}

	mu    sync.Mutex
	calls []domain.SolveRequest
}

func NewMockSolver(res *domain.SolveResult, err error) *MockSolver {
	return &MockSolver{Result: res, Err: err}
}

func (m *MockSolver) Solve(ctx context.Context, req domain.SolveRequest) (*domain.SolveResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.Err != nil {
		return nil, m.Err
	}
	res := *m.Result
	res.Tour = slices.Clone(m.Result.Tour)
	return &res, nil
}

// Calls returns the requests received so far.
func (m *MockSolver) Calls() []domain.SolveRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}
