package storetest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltio/voltio-backend/internal/model"
	"github.com/voltio/voltio-backend/internal/sheet"
	"github.com/voltio/voltio-backend/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// makeStore must return a clean, isolated store.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	ownerID := "u-" + uuid.New().String()

	// Create
	created, err := s.Projects().Create(ctx, &model.Project{
		Name:    "Planta Industrial",
		Type:    "industrial",
		OwnerID: ownerID,
		Data:    sheet.EmptyTables(),
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ProjectID)
	assert.Equal(t, 0, created.ModificationsCount)
	assert.Empty(t, created.Collaborators)
	assert.False(t, created.CreatedAt.IsZero())

	// Get
	got, err := s.Projects().Get(ctx, created.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, "Planta Industrial", got.Name)
	assert.Len(t, got.Data, len(sheet.Modules()))

	// Get missing
	_, err = s.Projects().Get(ctx, uuid.New().String())
	assert.ErrorIs(t, err, model.ErrNotFound)

	// List by owner
	lst, err := s.Projects().ListByUser(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, lst, 1)

	// Update metadata; untouched fields survive
	newName := "Planta Industrial Norte"
	upd, err := s.Projects().UpdateMeta(ctx, created.ProjectID, model.ProjectUpdate{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, newName, upd.Name)
	assert.Equal(t, "industrial", upd.Type)

	_, err = s.Projects().UpdateMeta(ctx, uuid.New().String(), model.ProjectUpdate{Name: &newName})
	assert.ErrorIs(t, err, model.ErrNotFound)

	// SaveData bumps modificationsCount by exactly one per call
	data := sheet.EmptyTables()
	data[sheet.ModuleDPMS] = []model.Row{sheet.NewDPMSRow()}
	saved, err := s.Projects().SaveData(ctx, created.ProjectID, data, "sessionA")
	require.NoError(t, err)
	assert.Equal(t, 1, saved.ModificationsCount)
	assert.Equal(t, "sessionA", saved.LastModifiedBy)
	require.Len(t, saved.Data[sheet.ModuleDPMS], 1)

	saved, err = s.Projects().SaveData(ctx, created.ProjectID, data, "sessionB")
	require.NoError(t, err)
	assert.Equal(t, 2, saved.ModificationsCount)
	assert.Equal(t, "sessionB", saved.LastModifiedBy)

	_, err = s.Projects().SaveData(ctx, uuid.New().String(), data, "sessionA")
	assert.ErrorIs(t, err, model.ErrNotFound)

	// Collaborators: add is idempotent, list queries see the project
	collab := "colega@example.test"
	withCollab, err := s.Projects().AddCollaborator(ctx, created.ProjectID, collab)
	require.NoError(t, err)
	assert.Equal(t, []string{collab}, withCollab.Collaborators)

	withCollab, err = s.Projects().AddCollaborator(ctx, created.ProjectID, collab)
	require.NoError(t, err)
	assert.Equal(t, []string{collab}, withCollab.Collaborators)

	byCollab, err := s.Projects().ListByUser(ctx, collab)
	require.NoError(t, err)
	require.Len(t, byCollab, 1)

	removed, err := s.Projects().RemoveCollaborator(ctx, created.ProjectID, collab)
	require.NoError(t, err)
	assert.Empty(t, removed.Collaborators)

	byCollab, err = s.Projects().ListByUser(ctx, collab)
	require.NoError(t, err)
	assert.Empty(t, byCollab)

	// Delete cascades to everything the document owns
	require.NoError(t, s.Projects().Delete(ctx, created.ProjectID))
	_, err = s.Projects().Get(ctx, created.ProjectID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, s.Projects().Delete(ctx, created.ProjectID), model.ErrNotFound)

	// Health
	require.NoError(t, s.HealthPing(ctx))
}
