package solver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tour-playback-service/internal/domain"
	"tour-playback-service/internal/platform/obs"
)

type apiSolveRequest struct {
	CSVData      string                     `json:"csv_data"`
	WeatherMap   map[int]domain.WeatherCode `json:"weather_map"`
	SupplyWeight float64                    `json:"supply_weight"`
	StressFactor float64                    `json:"stress_factor"`
}

type apiIteration struct {
	Iteration  int     `json:"iteration"`
	BestLength float64 `json:"best_length"`
	BestPath   []int   `json:"best_path"`
}

type apiSolveResponse struct {
	Success       bool            `json:"success"`
	Error         string          `json:"error"`
	Cities        []string        `json:"cities"`
	BestPath      []int           `json:"best_path"`
	BestLength    float64         `json:"best_length"`
	CityDemand    map[int]float64 `json:"city_demand"`
	TotalSupply   float64         `json:"total_supply"`
	SupplyWeight  float64         `json:"supply_weight"`
	StressFactor  float64         `json:"stress_factor"`
	WeatherMatrix [][]float64     `json:"weather_matrix"`
	Iterations    []apiIteration  `json:"iterations"`
}

// HTTPSolver calls a remote solver service speaking the /api/solve JSON contract.
//
// Transient transport failures (network errors, 429 and 5xx) are retried with
// exponential backoff up to maxAttempts; a failure reported by the solver in
// the response body is returned as *domain.SolverError and never retried.
type HTTPSolver struct {
	session     *http.Client
	baseURL     string
	maxAttempts int
	backoff     time.Duration
}

func NewHTTPSolver(baseURL string, timeout time.Duration, maxAttempts int) (*HTTPSolver, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("solver base url is empty")
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &HTTPSolver{
		session:     &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		maxAttempts: maxAttempts,
		backoff:     200 * time.Millisecond,
	}, nil
}

func (h *HTTPSolver) Solve(ctx context.Context, req domain.SolveRequest) (_ *domain.SolveResult, err error) {
	defer obs.Time(ctx, "solver.http.Solve")(&err)

	payload, err := json.Marshal(apiSolveRequest{
		CSVData:      req.CSVData,
		WeatherMap:   req.WeatherMap,
		SupplyWeight: req.SupplyWeight,
		StressFactor: req.StressFactor,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal solve request: %w", err)
	}

	endpoint := h.baseURL + "/api/solve"
	resp, err := h.doWithRetry(ctx, func() (*http.Request, error) {
		return h.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		var he *httpStatusError
		if errors.As(err, &he) {
			if msg, ok := solverMessage([]byte(he.Body)); ok {
				return nil, &domain.SolverError{Message: msg}
			}
		}
		return nil, fmt.Errorf("solve request failed: %w", err)
	}
	defer resp.Body.Close()

	var sr apiSolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode solve response: %w", err)
	}
	if !sr.Success {
		msg := sr.Error
		if msg == "" {
			msg = "solver reported failure"
		}
		return nil, &domain.SolverError{Message: msg}
	}

	return sr.result(), nil
}

// solverMessage extracts the error text of a {"success": false} body.
func solverMessage(body []byte) (string, bool) {
	var sr apiSolveResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return "", false
	}
	if sr.Success || sr.Error == "" {
		return "", false
	}
	return sr.Error, true
}

func (sr *apiSolveResponse) result() *domain.SolveResult {
	iterations := make([]domain.IterationResult, 0, len(sr.Iterations))
	for _, it := range sr.Iterations {
		iterations = append(iterations, domain.IterationResult{
			Iteration:  it.Iteration,
			BestLength: it.BestLength,
			BestPath:   domain.Tour(it.BestPath),
		})
	}

	return &domain.SolveResult{
		Cities:        sr.Cities,
		Tour:          domain.Tour(sr.BestPath),
		Cost:          sr.BestLength,
		Demand:        sr.CityDemand,
		TotalSupply:   sr.TotalSupply,
		SupplyWeight:  sr.SupplyWeight,
		StressFactor:  sr.StressFactor,
		WeatherMatrix: sr.WeatherMatrix,
		Iterations:    iterations,
	}
}
