package handlers

import (
	"log"
	"net/http"
	"strings"

	"tour-playback-service/internal/api/dto"
	"tour-playback-service/internal/services"
)

type LocationHandler struct {
	Ctrl *services.RunController
}

func (h *LocationHandler) Locations(w http.ResponseWriter, r *http.Request) {
	if !allowOnly(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	if r.Method == http.MethodPost {
		h.load(w, r)
		return
	}

	v := h.Ctrl.View()
	datasets, err := h.Ctrl.Datasets(r.Context())
	if err != nil {
		log.Printf("list datasets failed: %v", err)
		datasets = []string{}
	}

	writeJSON(w, r, http.StatusOK, dto.ListLocationsResponse{
		Locations: locationResponses(v.Locations, v.Overlay),
		Datasets:  datasets,
	})
}

// load replaces the location set from uploaded CSV or a named data set.
func (h *LocationHandler) load(w http.ResponseWriter, r *http.Request) {
	var req dto.LoadLocationsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	csvData := strings.TrimSpace(req.CSVData)
	dataset := strings.TrimSpace(req.Dataset)
	if (csvData == "") == (dataset == "") {
		writeError(w, r, http.StatusBadRequest, "exactly one of csv_data or dataset is required")
		return
	}

	var (
		v   services.View
		err error
	)
	if dataset != "" {
		v, err = h.Ctrl.LoadDataset(r.Context(), dataset)
	} else {
		v, err = h.Ctrl.LoadLocations(req.CSVData)
	}
	if err != nil {
		writeServiceError(w, r, "load locations", err)
		return
	}

	writeJSON(w, r, http.StatusOK, viewResponse(v))
}
