package solver

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"

	"tour-playback-service/internal/domain"
	"tour-playback-service/internal/platform/obs"
)

// NearestNeighborSolver builds a tour greedily from city 0, always moving to
// the closest unvisited city. It is deterministic and needs no tuning, but
// makes no attempt at global optimisation and reports no demand.
type NearestNeighborSolver struct{}

func NewNearestNeighborSolver() *NearestNeighborSolver {
	return &NearestNeighborSolver{}
}

func (s *NearestNeighborSolver) Solve(ctx context.Context, req domain.SolveRequest) (_ *domain.SolveResult, err error) {
	defer obs.Time(ctx, "solver.nearest.Solve")(&err)

	cities, dist, err := ParseDistanceCSV(req.CSVData)
	if err != nil {
		return nil, err
	}

	tour := nearestNeighborTour(dist)
	return &domain.SolveResult{
		Cities:       cities,
		Tour:         tour,
		Cost:         tourLength(dist, tour),
		SupplyWeight: req.SupplyWeight,
		StressFactor: req.StressFactor,
	}, nil
}

func nearestNeighborTour(dist mat.Matrix) domain.Tour {
	n, _ := dist.Dims()
	visited := make([]bool, n)
	tour := make(domain.Tour, 0, n)

	cur := 0
	visited[cur] = true
	tour = append(tour, cur)

	for len(tour) < n {
		best := -1
		bestDist := math.Inf(1)
		// Strict comparison keeps the lowest index on ties.
		for next := 0; next < n; next++ {
			if visited[next] {
				continue
			}
			if d := dist.At(cur, next); best < 0 || d < bestDist {
				best, bestDist = next, d
			}
		}

		visited[best] = true
		tour = append(tour, best)
		cur = best
	}

	return tour
}

// tourLength sums the closed tour, including the return edge.
func tourLength(dist mat.Matrix, tour domain.Tour) float64 {
	total := 0.0
	for _, e := range tour.Edges() {
		total += dist.At(e.From, e.To)
	}
	return total
}
