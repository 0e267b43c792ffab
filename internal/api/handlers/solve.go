package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"tour-playback-service/internal/api/dto"
	"tour-playback-service/internal/domain"
	"tour-playback-service/internal/ports"
)

// SolveHandler exposes a solver over the /api/solve JSON contract, so one
// instance of this service can act as the remote solver of another.
type SolveHandler struct {
	Solver ports.Solver
}

func (h *SolveHandler) Solve(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if !allowOnly(w, r, http.MethodPost, http.MethodOptions) {
		return
	}

	var req dto.SolveRequest
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSolveError(w, r, "invalid json body")
		return
	}
	if strings.TrimSpace(req.CSVData) == "" {
		writeSolveError(w, r, "No CSV data provided")
		return
	}

	weather, err := weatherMap(req.WeatherMap)
	if err != nil {
		writeSolveError(w, r, err.Error())
		return
	}

	sr := domain.SolveRequest{
		CSVData:      req.CSVData,
		WeatherMap:   weather,
		SupplyWeight: defaultSupplyWeight,
		StressFactor: defaultStressFactor,
	}
	if req.SupplyWeight != nil {
		sr.SupplyWeight = *req.SupplyWeight
	}
	if req.StressFactor != nil {
		sr.StressFactor = *req.StressFactor
	}

	res, err := h.Solver.Solve(r.Context(), sr)
	if err != nil {
		var se *domain.SolverError
		if errors.As(err, &se) {
			writeSolveError(w, r, se.Message)
			return
		}
		log.Printf("api solve failed: %v", err)
		writeSolveError(w, r, err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, solveResponse(res, sr))
}

func writeSolveError(w http.ResponseWriter, r *http.Request, msg string) {
	writeJSON(w, r, http.StatusBadRequest, dto.SolveErrorResponse{Success: false, Error: msg})
}

func weatherMap(in map[string]int) (map[int]domain.WeatherCode, error) {
	out := make(map[int]domain.WeatherCode, len(in))
	for k, v := range in {
		idx, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("weather_map key %q is not a location index", k)
		}
		out[idx] = domain.WeatherCode(v)
	}
	return out, nil
}

func solveResponse(res *domain.SolveResult, req domain.SolveRequest) dto.SolveResponse {
	out := dto.SolveResponse{
		Success:       true,
		Cities:        res.Cities,
		BestPath:      []int(res.Tour),
		BestLength:    res.Cost,
		CityDemand:    res.Demand,
		TotalSupply:   res.TotalSupply,
		SupplyWeight:  req.SupplyWeight,
		StressFactor:  req.StressFactor,
		WeatherMatrix: res.WeatherMatrix,
		Iterations:    make([]dto.IterationResponse, 0, len(res.Iterations)),
	}
	for _, it := range res.Iterations {
		out.Iterations = append(out.Iterations, dto.IterationResponse{
			Iteration:  it.Iteration,
			BestLength: it.BestLength,
			BestPath:   []int(it.BestPath),
		})
	}
	return out
}
