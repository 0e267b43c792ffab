package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"tour-playback-service/internal/services"
)

const (
	streamWriteWait  = 5 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = 50 * time.Second
)

// StreamHandler pushes the run view over a websocket after every state change.
// Changes that arrive faster than the client reads are coalesced.
type StreamHandler struct {
	Ctrl     *services.RunController
	Upgrader websocket.Upgrader
}

func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if !allowOnly(w, r, http.MethodGet) {
		return
	}

	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("stream upgrade failed: remote=%s err=%v", r.RemoteAddr, err)
		return
	}
	defer conn.Close()

	signal, release := h.Ctrl.Hub().Subscribe()
	defer release()

	// The client never sends data; reading only surfaces close frames and pongs.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(streamPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	send := func() error {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		return conn.WriteJSON(viewResponse(h.Ctrl.View()))
	}

	if err := send(); err != nil {
		log.Printf("stream write failed: remote=%s err=%v", r.RemoteAddr, err)
		return
	}

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-signal:
			if err := send(); err != nil {
				log.Printf("stream write failed: remote=%s err=%v", r.RemoteAddr, err)
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
