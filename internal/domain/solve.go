package domain

import "fmt"

// Input handed to the tour solver.
type SolveRequest struct {
	CSVData      string
	WeatherMap   map[int]WeatherCode
	SupplyWeight float64
	StressFactor float64
}

// Best-so-far snapshot recorded by iterative solvers.
type IterationResult struct {
	Iteration  int
	BestLength float64
	BestPath   Tour
}

// Output contract of the tour solver.
// WeatherMatrix is optional; when present it supersedes local weather placeholders.
type SolveResult struct {
	Cities        []string
	Tour          Tour
	Cost          float64
	Demand        map[int]float64
	TotalSupply   float64
	SupplyWeight  float64
	StressFactor  float64
	WeatherMatrix [][]float64
	Iterations    []IterationResult
}

// TotalWeight is the load carried at departure.
func (r *SolveResult) TotalWeight() float64 {
	return r.TotalSupply * r.SupplyWeight
}

// SolverError carries a human-readable failure reported by the solver itself.
type SolverError struct {
	Message string
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("solver: %s", e.Message)
}
