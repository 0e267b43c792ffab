package api

import (
	"net/http"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/websocket"

	"tour-playback-service/internal/api/handlers"
	"tour-playback-service/internal/ports"
	"tour-playback-service/internal/services"
)

type RouterDeps struct {
	Ctrl   *services.RunController
	Frames *services.FrameService
	// Backs POST /api/solve.
	Solver       ports.Solver
	CORSOrigins  []string
	HistoryLimit int
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d RouterDeps) http.Handler {
	mux := http.NewServeMux()

	healthHandler := &handlers.HealthHandler{Frames: d.Frames}
	locHandler := &handlers.LocationHandler{Ctrl: d.Ctrl}
	runHandler := &handlers.RunHandler{
		Ctrl:         d.Ctrl,
		Frames:       d.Frames,
		HistoryLimit: d.HistoryLimit,
	}
	streamHandler := &handlers.StreamHandler{
		Ctrl: d.Ctrl,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(d.CORSOrigins),
		},
	}
	solveHandler := &handlers.SolveHandler{Solver: d.Solver}

	mux.HandleFunc("/health", healthHandler.Health)
	mux.HandleFunc("/locations", locHandler.Locations)
	mux.HandleFunc("/runs", runHandler.Start)
	mux.HandleFunc("/runs/update", runHandler.Update)
	mux.HandleFunc("/runs/current", runHandler.Current)
	mux.HandleFunc("/runs/current/frame.png", runHandler.Frame)
	mux.HandleFunc("/runs/history", runHandler.History)
	mux.HandleFunc("/runs/stream", streamHandler.Stream)
	mux.HandleFunc("/api/solve", solveHandler.Solve)

	cors := gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins(d.CORSOrigins),
		gorillahandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		gorillahandlers.AllowedHeaders([]string{"Content-Type", requestIDHeader}),
	)
	recovery := gorillahandlers.RecoveryHandler(gorillahandlers.PrintRecoveryStack(true))

	return requestIDMiddleware(loggingMiddleware(recovery(cors(mux))))
}

// originChecker accepts websocket upgrades from the configured CORS origins.
func originChecker(origins []string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}
