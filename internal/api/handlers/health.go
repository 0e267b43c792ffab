package handlers

import (
	"net/http"

	"tour-playback-service/internal/services"
)

type HealthHandler struct {
	Frames *services.FrameService
}

// Health is a liveness check that also reports recent render timings.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if !allowOnly(w, r, http.MethodGet) {
		return
	}

	res := map[string]any{"status": "ok"}
	if h.Frames != nil {
		res["render"] = h.Frames.Stats()
	}
	writeJSON(w, r, http.StatusOK, res)
}
