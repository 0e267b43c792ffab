package dto

type LoadLocationsRequest struct {
	CSVData string `json:"csv_data"`
	Dataset string `json:"dataset"`
}

type LocationResponse struct {
	Index       int      `json:"index"`
	Name        string   `json:"name"`
	Weather     string   `json:"weather"`
	WeatherCode int      `json:"weather_code"`
	Demand      *float64 `json:"demand,omitempty"`
}

type ListLocationsResponse struct {
	Locations []LocationResponse `json:"locations"`
	Datasets  []string           `json:"datasets"`
}
