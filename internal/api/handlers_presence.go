package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/voltio/voltio-backend/internal/api/respond"
	"github.com/voltio/voltio-backend/internal/model"
	"github.com/voltio/voltio-backend/internal/presence"
)

// PresenceHandler exposes the active-user set of a project.
type PresenceHandler struct {
	tracker *presence.Tracker
}

func NewPresenceHandler(t *presence.Tracker) *PresenceHandler { return &PresenceHandler{tracker: t} }

// MarkActive PUT /api/projects/{projectId}/presence/{userId}
// Doubles as the heartbeat: clients re-PUT on an interval to stay active.
func (h *PresenceHandler) MarkActive(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req struct {
		DisplayName string `json:"displayName"`
		Email       string `json:"email"`
	}
	// Body is optional on heartbeats.
	_ = json.NewDecoder(r.Body).Decode(&req)

	h.tracker.MarkActive(model.Presence{
		UserID:      vars["userId"],
		ProjectID:   vars["projectId"],
		DisplayName: req.DisplayName,
		Email:       req.Email,
	})
	w.WriteHeader(http.StatusNoContent)
}

// MarkInactive DELETE /api/projects/{projectId}/presence/{userId}
func (h *PresenceHandler) MarkInactive(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	h.tracker.MarkInactive(vars["projectId"], vars["userId"])
	w.WriteHeader(http.StatusNoContent)
}

// ListActive GET /api/projects/{projectId}/presence
func (h *PresenceHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	active := h.tracker.ListActive(mux.Vars(r)["projectId"])
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"activeUsers": active, "count": len(active)})
}
