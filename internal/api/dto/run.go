package dto

import "time"

// Omitted parameters default to 0.1, like the solver endpoint.
type StartRunRequest struct {
	SupplyWeight *float64 `json:"supply_weight"`
	StressFactor *float64 `json:"stress_factor"`
}

type EdgeResponse struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type AnimationResponse struct {
	EdgeIndex int     `json:"edge_index"`
	From      int     `json:"from"`
	To        int     `json:"to"`
	Progress  float64 `json:"progress"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

type RunViewResponse struct {
	Phase         string             `json:"phase"`
	RunID         string             `json:"run_id,omitempty"`
	Generation    uint64             `json:"generation"`
	Running       bool               `json:"running"`
	Locations     []LocationResponse `json:"locations"`
	Tour          []int              `json:"tour"`
	Trail         []EdgeResponse     `json:"trail"`
	Animation     *AnimationResponse `json:"animation"`
	Cost          float64            `json:"cost"`
	TotalSupply   float64            `json:"total_supply"`
	SupplyWeight  float64            `json:"supply_weight"`
	StressFactor  float64            `json:"stress_factor"`
	TotalWeight   float64            `json:"total_weight"`
	WeatherMatrix [][]float64        `json:"weather_matrix,omitempty"`
	LastError     string             `json:"last_error,omitempty"`
	Version       uint64             `json:"version"`
}

type RunRecordResponse struct {
	RunID        string     `json:"run_id"`
	Status       string     `json:"status"`
	Cities       []string   `json:"cities"`
	Tour         []int      `json:"tour"`
	Cost         float64    `json:"cost"`
	TotalSupply  float64    `json:"total_supply"`
	SupplyWeight float64    `json:"supply_weight"`
	StressFactor float64    `json:"stress_factor"`
	CreatedAt    time.Time  `json:"created_at"`
	FinishedAt   *time.Time `json:"finished_at"`
}

type RunHistoryResponse struct {
	Runs []RunRecordResponse `json:"runs"`
}
