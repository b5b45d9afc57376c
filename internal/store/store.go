package store

import (
	"context"

	"github.com/voltio/voltio-backend/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
type Store interface {
	Projects() Projects
	HealthPing(ctx context.Context) error
}

// Projects persists project documents. Missing projects surface as
// model.ErrNotFound.
type Projects interface {
	Create(ctx context.Context, p *model.Project) (*model.Project, error)
	Get(ctx context.Context, projectID string) (*model.Project, error)
	// ListByUser returns projects the user owns or collaborates on,
	// newest-updated first.
	ListByUser(ctx context.Context, userID string) ([]*model.Project, error)
	UpdateMeta(ctx context.Context, projectID string, upd model.ProjectUpdate) (*model.Project, error)
	// SaveData overwrites the table data and increments modificationsCount
	// by exactly one, atomically.
	SaveData(ctx context.Context, projectID string, data model.TableSet, modifiedBy string) (*model.Project, error)
	Delete(ctx context.Context, projectID string) error
	AddCollaborator(ctx context.Context, projectID, email string) (*model.Project, error)
	RemoveCollaborator(ctx context.Context, projectID, email string) (*model.Project, error)
}
