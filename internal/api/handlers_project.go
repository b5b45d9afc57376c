package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/voltio/voltio-backend/internal/api/respond"
	"github.com/voltio/voltio-backend/internal/api/validate"
	"github.com/voltio/voltio-backend/internal/model"
	"github.com/voltio/voltio-backend/internal/service"
)

// ProjectHandler is a thin HTTP transport over ProjectService.
type ProjectHandler struct {
	svc *service.ProjectService
}

func NewProjectHandler(svc *service.ProjectService) *ProjectHandler { return &ProjectHandler{svc: svc} }

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, err.Error())
	case errors.Is(err, model.ErrValidation):
		respond.WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrForbidden):
		respond.WriteForbidden(w, err.Error())
	default:
		respond.WriteInternalError(w, err.Error())
	}
}

// CreateProject POST /api/users/{userId}/projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	var req service.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Name(req.Name); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.svc.Create(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListProjects GET /api/users/{userId}/projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	lst, err := h.svc.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"projects": lst, "count": len(lst)})
}

// GetProject GET /api/projects/{projectId}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Get(r.Context(), mux.Vars(r)["projectId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// UpdateProject PATCH /api/projects/{projectId}
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var upd model.ProjectUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if upd.Name != nil {
		if err := validate.Name(*upd.Name); err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
	}
	out, err := h.svc.UpdateMeta(r.Context(), mux.Vars(r)["projectId"], upd)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// DeleteProject DELETE /api/projects/{projectId}
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), mux.Vars(r)["projectId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveProjectData PUT /api/projects/{projectId}/data
// This is the sync save path: full table snapshot plus the writing session.
func (h *ProjectHandler) SaveProjectData(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Data           model.TableSet `json:"data"`
		LastModifiedBy string         `json:"lastModifiedBy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	out, err := h.svc.SaveData(r.Context(), mux.Vars(r)["projectId"], req.Data, req.LastModifiedBy)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// DuplicateProject POST /api/projects/{projectId}/duplicate
func (h *ProjectHandler) DuplicateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OwnerID string `json:"ownerId"`
		Name    string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	out, err := h.svc.Duplicate(r.Context(), mux.Vars(r)["projectId"], req.OwnerID, req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// AddCollaborator POST /api/projects/{projectId}/collaborators
func (h *ProjectHandler) AddCollaborator(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Email(req.Email); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.svc.AddCollaborator(r.Context(), mux.Vars(r)["projectId"], req.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// RemoveCollaborator DELETE /api/projects/{projectId}/collaborators/{email}
// The requesting identity comes from the X-User-Id header; only the owner
// may remove.
func (h *ProjectHandler) RemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	requester := r.Header.Get("X-User-Id")
	out, err := h.svc.RemoveCollaborator(r.Context(), vars["projectId"], requester, vars["email"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}
