package dto

// Body of POST /api/solve. Weather map keys are location indices as strings.
type SolveRequest struct {
	CSVData      string         `json:"csv_data"`
	WeatherMap   map[string]int `json:"weather_map"`
	SupplyWeight *float64       `json:"supply_weight"`
	StressFactor *float64       `json:"stress_factor"`
}

type IterationResponse struct {
	Iteration  int     `json:"iteration"`
	BestLength float64 `json:"best_length"`
	BestPath   []int   `json:"best_path"`
}

type SolveResponse struct {
	Success       bool                `json:"success"`
	Cities        []string            `json:"cities"`
	BestPath      []int               `json:"best_path"`
	BestLength    float64             `json:"best_length"`
	CityDemand    map[int]float64     `json:"city_demand"`
	TotalSupply   float64             `json:"total_supply"`
	SupplyWeight  float64             `json:"supply_weight"`
	StressFactor  float64             `json:"stress_factor"`
	WeatherMatrix [][]float64         `json:"weather_matrix"`
	Iterations    []IterationResponse `json:"iterations"`
}

type SolveErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
