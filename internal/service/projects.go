// Package service contains the core business logic for project operations.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/voltio/voltio-backend/internal/hub"
	"github.com/voltio/voltio-backend/internal/model"
	"github.com/voltio/voltio-backend/internal/sheet"
	"github.com/voltio/voltio-backend/internal/store"
	syncer "github.com/voltio/voltio-backend/internal/sync"
)

// ProjectService owns project lifecycle and data persistence. Every data
// save is published to the hub so watch sessions see it.
type ProjectService struct {
	store store.Store
	hub   *hub.Hub
}

// NewProjectService creates a new project service.
func NewProjectService(st store.Store, h *hub.Hub) *ProjectService {
	return &ProjectService{store: st, hub: h}
}

// CreateProjectRequest carries the metadata for a new project.
type CreateProjectRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Type         string `json:"type"`
	Company      string `json:"company"`
	Location     string `json:"location"`
	Client       string `json:"client"`
	ContactEmail string `json:"contactEmail"`
	ContactPhone string `json:"contactPhone"`
}

// Create stores a new project with empty calculation tables.
func (s *ProjectService) Create(ctx context.Context, ownerID string, req CreateProjectRequest) (*model.Project, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner is required", model.ErrValidation)
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", model.ErrValidation)
	}
	typ := req.Type
	if typ == "" {
		typ = "residential"
	}

	p := &model.Project{
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		Type:          typ,
		Company:       req.Company,
		Location:      req.Location,
		Client:        req.Client,
		ContactEmail:  req.ContactEmail,
		ContactPhone:  req.ContactPhone,
		OwnerID:       ownerID,
		Collaborators: []string{},
		Data:          sheet.EmptyTables(),
	}

	log.Info().Str("ownerId", ownerID).Str("name", p.Name).Msg("Creating project")
	out, err := s.store.Projects().Create(ctx, p)
	if err != nil {
		log.Error().Err(err).Str("ownerId", ownerID).Msg("Failed to create project")
		return nil, err
	}
	return out, nil
}

// Get retrieves a project by ID.
func (s *ProjectService) Get(ctx context.Context, projectID string) (*model.Project, error) {
	if projectID == "" {
		return nil, fmt.Errorf("%w: project ID is required", model.ErrValidation)
	}
	return s.store.Projects().Get(ctx, projectID)
}

// List returns the projects a user owns or collaborates on, newest first.
func (s *ProjectService) List(ctx context.Context, userID string) ([]*model.Project, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", model.ErrValidation)
	}
	lst, err := s.store.Projects().ListByUser(ctx, userID)
	if err != nil {
		log.Warn().Str("userId", userID).Err(err).Msg("ListByUser failed")
	}
	return lst, err
}

// UpdateMeta applies a partial metadata update.
func (s *ProjectService) UpdateMeta(ctx context.Context, projectID string, upd model.ProjectUpdate) (*model.Project, error) {
	if projectID == "" {
		return nil, fmt.Errorf("%w: project ID is required", model.ErrValidation)
	}
	out, err := s.store.Projects().UpdateMeta(ctx, projectID, upd)
	if err != nil {
		return nil, err
	}
	s.hub.Publish(out)
	return out, nil
}

// SaveData overwrites a project's calculation tables and broadcasts the
// fresh document to watchers. modificationsCount increments by exactly one.
func (s *ProjectService) SaveData(ctx context.Context, projectID string, data model.TableSet, modifiedBy string) (*model.Project, error) {
	if projectID == "" {
		return nil, fmt.Errorf("%w: project ID is required", model.ErrValidation)
	}
	if modifiedBy == "" {
		return nil, fmt.Errorf("%w: lastModifiedBy is required", model.ErrValidation)
	}
	out, err := s.store.Projects().SaveData(ctx, projectID, data, modifiedBy)
	if err != nil {
		log.Error().Err(err).Str("projectId", projectID).Msg("Failed to save project data")
		return nil, err
	}
	s.hub.Publish(out)
	return out, nil
}

// Delete removes a project and everything it owns.
func (s *ProjectService) Delete(ctx context.Context, projectID string) error {
	if projectID == "" {
		return fmt.Errorf("%w: project ID is required", model.ErrValidation)
	}
	log.Info().Str("projectId", projectID).Msg("Deleting project")
	return s.store.Projects().Delete(ctx, projectID)
}

// Duplicate copies a project's metadata and tables into a new document
// owned by ownerID, with collaborators and the modification counter reset.
func (s *ProjectService) Duplicate(ctx context.Context, projectID, ownerID, name string) (*model.Project, error) {
	src, err := s.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if ownerID == "" {
		ownerID = src.OwnerID
	}
	if strings.TrimSpace(name) == "" {
		name = src.Name + " (Copia)"
	}

	copyProj := &model.Project{
		Name:          name,
		Description:   src.Description,
		Type:          src.Type,
		Company:       src.Company,
		Location:      src.Location,
		Client:        src.Client,
		ContactEmail:  src.ContactEmail,
		ContactPhone:  src.ContactPhone,
		OwnerID:       ownerID,
		Collaborators: []string{},
		Data:          src.Data,
	}
	log.Info().Str("sourceId", projectID).Str("ownerId", ownerID).Msg("Duplicating project")
	return s.store.Projects().Create(ctx, copyProj)
}

// AddCollaborator adds an identity to the collaborator list; duplicates are
// ignored.
func (s *ProjectService) AddCollaborator(ctx context.Context, projectID, email string) (*model.Project, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: collaborator email is required", model.ErrValidation)
	}
	out, err := s.store.Projects().AddCollaborator(ctx, projectID, email)
	if err != nil {
		return nil, err
	}
	s.hub.Publish(out)
	return out, nil
}

// RemoveCollaborator drops an identity from the collaborator list. Only the
// project owner may remove collaborators.
func (s *ProjectService) RemoveCollaborator(ctx context.Context, projectID, requesterID, email string) (*model.Project, error) {
	p, err := s.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != requesterID {
		return nil, fmt.Errorf("%w: only the owner can remove collaborators", model.ErrForbidden)
	}
	out, err := s.store.Projects().RemoveCollaborator(ctx, projectID, email)
	if err != nil {
		return nil, err
	}
	s.hub.Publish(out)
	return out, nil
}

// Remote adapts the service to the sync adapter's outbound interface, for
// sessions running in the same process.
func (s *ProjectService) Remote() syncer.Remote {
	return syncer.RemoteFunc(func(ctx context.Context, projectID string, data model.TableSet, modifiedBy string) error {
		_, err := s.SaveData(ctx, projectID, data, modifiedBy)
		return err
	})
}
