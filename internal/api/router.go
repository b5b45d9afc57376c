package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voltio/voltio-backend/internal/api/recovery"
	"github.com/voltio/voltio-backend/internal/hub"
	"github.com/voltio/voltio-backend/internal/presence"
	"github.com/voltio/voltio-backend/internal/service"
	"github.com/voltio/voltio-backend/internal/store"
)

// NewRouter creates the HTTP router with all API routes.
func NewRouter(st store.Store, h *hub.Hub, tracker *presence.Tracker) *mux.Router {
	router := mux.NewRouter()

	// Global middlewares
	router.Use(recovery.Middleware)

	projectService := service.NewProjectService(st, h)

	healthHandler := NewHealthHandler(st)
	projectHandler := NewProjectHandler(projectService)
	presenceHandler := NewPresenceHandler(tracker)
	watchHandler := NewWatchHandler(projectService, h)

	// Health endpoints
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")
	router.HandleFunc("/api/health/db", healthHandler.CheckStorageHealth).Methods("GET")

	// Project endpoints
	router.HandleFunc("/api/users/{userId}/projects", projectHandler.CreateProject).Methods("POST")
	router.HandleFunc("/api/users/{userId}/projects", projectHandler.ListProjects).Methods("GET")
	router.HandleFunc("/api/projects/{projectId}", projectHandler.GetProject).Methods("GET")
	router.HandleFunc("/api/projects/{projectId}", projectHandler.UpdateProject).Methods("PATCH")
	router.HandleFunc("/api/projects/{projectId}", projectHandler.DeleteProject).Methods("DELETE")
	router.HandleFunc("/api/projects/{projectId}/data", projectHandler.SaveProjectData).Methods("PUT")
	router.HandleFunc("/api/projects/{projectId}/duplicate", projectHandler.DuplicateProject).Methods("POST")

	// Collaborator endpoints
	router.HandleFunc("/api/projects/{projectId}/collaborators", projectHandler.AddCollaborator).Methods("POST")
	router.HandleFunc("/api/projects/{projectId}/collaborators/{email}", projectHandler.RemoveCollaborator).Methods("DELETE")

	// Presence endpoints
	router.HandleFunc("/api/projects/{projectId}/presence", presenceHandler.ListActive).Methods("GET")
	router.HandleFunc("/api/projects/{projectId}/presence/{userId}", presenceHandler.MarkActive).Methods("PUT")
	router.HandleFunc("/api/projects/{projectId}/presence/{userId}", presenceHandler.MarkInactive).Methods("DELETE")

	// Real-time watch (websocket)
	router.HandleFunc("/api/projects/{projectId}/watch", watchHandler.Watch).Methods("GET")

	// Metrics
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return router
}
