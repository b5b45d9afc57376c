package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/voltio/voltio-backend/internal/hub"
	"github.com/voltio/voltio-backend/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The browser client is served from another origin in development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WatchHandler streams project updates over a websocket. On connect the
// current document is sent, then every hub update until the peer goes away.
type WatchHandler struct {
	svc *service.ProjectService
	hub *hub.Hub
}

func NewWatchHandler(svc *service.ProjectService, h *hub.Hub) *WatchHandler {
	return &WatchHandler{svc: svc, hub: h}
}

// Watch GET /api/projects/{projectId}/watch
func (h *WatchHandler) Watch(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	initial, err := h.svc.Get(r.Context(), projectID)
	if err != nil {
		http.Error(w, "project not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("projectId", projectID).Msg("websocket upgrade failed")
		return
	}
	defer func() { _ = conn.Close() }()

	updates, cancel := h.hub.Subscribe(projectID)
	defer cancel()

	if err := conn.WriteJSON(initial); err != nil {
		return
	}

	// Reader goroutine: detect peer close so the subscription tears down.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case p, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(p); err != nil {
				log.Debug().Err(err).Str("projectId", projectID).Msg("watch write failed")
				return
			}
		}
	}
}
