package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"tour-playback-service/internal/api/dto"
	"tour-playback-service/internal/services"
)

const (
	defaultSupplyWeight = 0.1
	defaultStressFactor = 0.1
	maxThumbnailWidth   = 800
)

type RunHandler struct {
	Ctrl         *services.RunController
	Frames       *services.FrameService
	HistoryLimit int
}

// Start solves the loaded locations and begins playback. The response is sent
// once the solver has answered; playback continues after it.
func (h *RunHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.solve(w, r, h.Ctrl.Solve)
}

// Update draws fresh placeholder weather before solving.
func (h *RunHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.solve(w, r, h.Ctrl.Update)
}

func (h *RunHandler) solve(
	w http.ResponseWriter,
	r *http.Request,
	run func(ctx context.Context, p services.SolveParams) (services.View, error),
) {
	if !allowOnly(w, r, http.MethodPost) {
		return
	}

	var req dto.StartRunRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p := services.SolveParams{SupplyWeight: defaultSupplyWeight, StressFactor: defaultStressFactor}
	if req.SupplyWeight != nil {
		p.SupplyWeight = *req.SupplyWeight
	}
	if req.StressFactor != nil {
		p.StressFactor = *req.StressFactor
	}

	v, err := run(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, "start run", err)
		return
	}

	writeJSON(w, r, http.StatusAccepted, viewResponse(v))
}

func (h *RunHandler) Current(w http.ResponseWriter, r *http.Request) {
	if !allowOnly(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, r, http.StatusOK, viewResponse(h.Ctrl.View()))
}

// Frame serves the current scene as PNG; ?width= asks for a thumbnail.
func (h *RunHandler) Frame(w http.ResponseWriter, r *http.Request) {
	if !allowOnly(w, r, http.MethodGet) {
		return
	}

	var width uint64
	if raw := r.URL.Query().Get("width"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || n == 0 || n > maxThumbnailWidth {
			writeError(w, r, http.StatusBadRequest, "width must be between 1 and 800")
			return
		}
		width = n
	}

	b, err := h.Frames.Current(h.Ctrl.View().Scene(), uint(width))
	if err != nil {
		log.Printf("render frame failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(b); err != nil {
		log.Printf("write frame failed: %v", err)
	}
}

func (h *RunHandler) History(w http.ResponseWriter, r *http.Request) {
	if !allowOnly(w, r, http.MethodGet) {
		return
	}

	limit := h.HistoryLimit
	if limit <= 0 {
		limit = 50
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	recs, err := h.Ctrl.History(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, "run history", err)
		return
	}

	res := dto.RunHistoryResponse{Runs: make([]dto.RunRecordResponse, 0, len(recs))}
	for _, rec := range recs {
		res.Runs = append(res.Runs, runRecordResponse(rec))
	}
	writeJSON(w, r, http.StatusOK, res)
}
