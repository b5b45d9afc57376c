package api

import (
	"net/http"

	"github.com/voltio/voltio-backend/internal/api/respond"
	"github.com/voltio/voltio-backend/internal/store"
)

// HealthHandler reports service and storage health.
type HealthHandler struct {
	store store.Store
}

func NewHealthHandler(st store.Store) *HealthHandler { return &HealthHandler{store: st} }

// CheckHealth GET /api/health
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CheckStorageHealth GET /api/health/db
func (h *HealthHandler) CheckStorageHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.HealthPing(r.Context()); err != nil {
		respond.WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
