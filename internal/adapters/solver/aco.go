package solver

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"tour-playback-service/internal/domain"
	"tour-playback-service/internal/platform/obs"
)

type ACOConfig struct {
	Ants       int
	Iterations int
	Alpha      float64 // pheromone exponent
	Beta       float64 // visibility exponent
	Rho        float64 // evaporation rate
	Q          float64 // deposit constant
	// Seed fixes the random stream; zero seeds from the clock.
	Seed uint64
	// Upper bound on ants walking at the same time.
	Workers int
}

func DefaultACOConfig() ACOConfig {
	return ACOConfig{
		Ants:       3,
		Iterations: 10,
		Alpha:      1,
		Beta:       2,
		Rho:        0.5,
		Q:          1,
		Workers:    4,
	}
}

// Demand is drawn per city from 100, 110, ..., 240.
const (
	demandBase  = 100
	demandStep  = 10
	demandLevel = 15
)

// ACOSolver is the in-process ant colony solver.
//
// Besides the tour it invents per-city demand and a weather matrix whose codes
// are added to the distances, then scores tours by a weight-aware cost: the
// courier leaves with the whole supply and sheds each city's demand on arrival,
// and the load carried so far accumulates as stress on every leg.
type ACOSolver struct {
	cfg ACOConfig

	mu  sync.Mutex
	rng *rand.Rand
}

func NewACOSolver(cfg ACOConfig) (*ACOSolver, error) {
	if cfg.Ants < 1 || cfg.Iterations < 1 {
		return nil, fmt.Errorf("new aco solver: ants and iterations must be positive, got %d and %d", cfg.Ants, cfg.Iterations)
	}
	if cfg.Rho < 0 || cfg.Rho > 1 {
		return nil, fmt.Errorf("new aco solver: rho must be within [0,1], got %g", cfg.Rho)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &ACOSolver{cfg: cfg, rng: rand.New(rand.NewSource(seed))}, nil
}

type walk struct {
	path   domain.Tour
	length float64
}

func (s *ACOSolver) Solve(ctx context.Context, req domain.SolveRequest) (_ *domain.SolveResult, err error) {
	defer obs.Time(ctx, "solver.aco.Solve")(&err)

	if req.SupplyWeight < 0 || req.StressFactor < 0 {
		return nil, &domain.SolverError{Message: "supply_weight and stress_factor must be non-negative"}
	}

	cities, dist, err := ParseDistanceCSV(req.CSVData)
	if err != nil {
		return nil, err
	}
	n := len(cities)

	// One solve at a time keeps the random stream, and so seeded runs, reproducible.
	s.mu.Lock()
	defer s.mu.Unlock()

	demand := make(map[int]float64, n)
	totalSupply := 0.0
	for i := 0; i < n; i++ {
		d := float64(demandBase + demandStep*s.rng.Intn(demandLevel))
		demand[i] = d
		totalSupply += d
	}

	weather := randomWeatherMatrix(n, s.rng)
	var cost mat.Dense
	cost.Add(dist, weather)

	pheromone := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			pheromone.Set(i, j, 1)
		}
	}

	scorer := tourScorer{cost: &cost, demand: demand, supplyWeight: req.SupplyWeight, stressFactor: req.StressFactor}

	var best walk
	best.length = math.Inf(1)
	iterations := make([]domain.IterationResult, 0, s.cfg.Iterations)

	for it := 0; it < s.cfg.Iterations; it++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("aco solve: iteration %d: %w", it+1, err)
		}

		walks := s.runAnts(&cost, pheromone, scorer)
		for _, w := range walks {
			if w.length < best.length {
				best = w
			}
		}

		pheromone.Scale(1-s.cfg.Rho, pheromone)
		for _, w := range walks {
			if w.length <= 0 {
				continue
			}
			deposit := s.cfg.Q / w.length
			for _, e := range w.path.Edges() {
				pheromone.Set(e.From, e.To, pheromone.At(e.From, e.To)+deposit)
				pheromone.Set(e.To, e.From, pheromone.At(e.To, e.From)+deposit)
			}
		}

		iterations = append(iterations, domain.IterationResult{
			Iteration:  it + 1,
			BestLength: best.length,
			BestPath:   slices.Clone(best.path),
		})
	}

	return &domain.SolveResult{
		Cities:        cities,
		Tour:          best.path,
		Cost:          best.length,
		Demand:        demand,
		TotalSupply:   totalSupply,
		SupplyWeight:  req.SupplyWeight,
		StressFactor:  req.StressFactor,
		WeatherMatrix: toRows(weather),
		Iterations:    iterations,
	}, nil
}

// runAnts walks every ant of one iteration, at most cfg.Workers at a time.
// Seeds are drawn up front so the outcome does not depend on scheduling.
func (s *ACOSolver) runAnts(cost, pheromone *mat.Dense, scorer tourScorer) []walk {
	seeds := make([]uint64, s.cfg.Ants)
	for i := range seeds {
		seeds[i] = s.rng.Uint64()
	}

	walks := make([]walk, s.cfg.Ants)
	sem := make(chan struct{}, s.cfg.Workers)
	var wg sync.WaitGroup

	for i, seed := range seeds {
		wg.Add(1)
		go func(i int, seed uint64) {
			sem <- struct{}{}
			defer wg.Done()
			defer func() { <-sem }()

			path := s.construct(cost, pheromone, rand.NewSource(seed))
			walks[i] = walk{path: path, length: scorer.score(path)}
		}(i, seed)
	}
	wg.Wait()

	return walks
}

// construct builds one tour, choosing each next city with probability proportional
// to pheromone^alpha * (1/cost)^beta.
func (s *ACOSolver) construct(cost, pheromone mat.Matrix, src rand.Source) domain.Tour {
	n, _ := cost.Dims()
	rng := rand.New(src)

	start := rng.Intn(n)
	path := make(domain.Tour, 0, n)
	path = append(path, start)

	allowed := make([]int, 0, n-1)
	for i := 0; i < n; i++ {
		if i != start {
			allowed = append(allowed, i)
		}
	}

	weights := make([]float64, 0, n)
	for len(allowed) > 0 {
		cur := path[len(path)-1]

		weights = weights[:0]
		for _, next := range allowed {
			d := math.Max(cost.At(cur, next), 1e-9)
			weights = append(weights, math.Pow(pheromone.At(cur, next), s.cfg.Alpha)*math.Pow(1/d, s.cfg.Beta))
		}

		pick := int(distuv.NewCategorical(weights, src).Rand())
		path = append(path, allowed[pick])
		allowed = slices.Delete(allowed, pick, pick+1)
	}

	return path
}

type tourScorer struct {
	cost         mat.Matrix
	demand       map[int]float64
	supplyWeight float64
	stressFactor float64
}

// score returns the weight-aware cost of the closed tour.
func (t tourScorer) score(path domain.Tour) float64 {
	totalDemand := 0.0
	for _, d := range t.demand {
		totalDemand += d
	}

	load := totalDemand * t.supplyWeight
	stress := 0.0
	total := 0.0
	for i, city := range path {
		next := path[(i+1)%len(path)]
		stress += load
		total += t.cost.At(city, next) + stress*t.stressFactor
		load -= t.demand[city] * t.supplyWeight
	}
	return total
}

// randomWeatherMatrix fills an n×n matrix with known weather codes and a zero diagonal.
func randomWeatherMatrix(n int, rng *rand.Rand) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			m.Set(i, j, float64(domain.WeatherCodes[rng.Intn(len(domain.WeatherCodes))]))
		}
	}
	return m
}
