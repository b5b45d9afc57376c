package sheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltio/voltio-backend/internal/model"
)

func TestAddRowDefaults(t *testing.T) {
	s := New()

	row, err := s.AddRow(ModuleDPMS)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len(ModuleDPMS))

	assert.NotEmpty(t, row["id"])
	assert.Equal(t, map[string]any{"x": 0.0, "y": 0.0, "h": 0.0}, row["dimensiones"])

	cargas, ok := row["cargas"].(map[string]any)
	require.True(t, ok)
	require.Len(t, cargas, len(ChargeCategories))
	for _, cat := range ChargeCategories {
		assert.Empty(t, cargas[cat], "charge list %s should start empty", cat)
	}
}

func TestAddRowUnknownModule(t *testing.T) {
	s := New()
	_, err := s.AddRow("nope")
	assert.ErrorIs(t, err, ErrUnknownModule)
}

func TestIDStableAcrossAddDelete(t *testing.T) {
	s := New()

	var ids []string
	for i := 0; i < 5; i++ {
		row, err := s.AddRow(ModuleThermal)
		require.NoError(t, err)
		ids = append(ids, row["id"].(string))
	}

	require.NoError(t, s.DeleteRow(ModuleThermal, ids[1]))
	require.NoError(t, s.DeleteRow(ModuleThermal, ids[3]))

	rows := s.Rows(ModuleThermal)
	require.Len(t, rows, 3)
	assert.Equal(t, ids[0], rows[0]["id"])
	assert.Equal(t, ids[2], rows[1]["id"])
	assert.Equal(t, ids[4], rows[2]["id"])

	seen := map[string]bool{}
	for _, r := range rows {
		id := r["id"].(string)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestNestedUpdateIsolation(t *testing.T) {
	s := New()
	a, err := s.AddRow(ModuleDPMS)
	require.NoError(t, err)
	b, err := s.AddRow(ModuleDPMS)
	require.NoError(t, err)

	require.NoError(t, s.UpdateRow(ModuleDPMS, a["id"].(string), "dimensiones.x", 5.0))

	rows := s.Rows(ModuleDPMS)
	gotA := rows[0]["dimensiones"].(map[string]any)
	assert.Equal(t, 5.0, gotA["x"])
	assert.Equal(t, 0.0, gotA["y"], "sibling nested keys untouched")
	assert.Equal(t, 0.0, gotA["h"])

	gotB := rows[1]["dimensiones"].(map[string]any)
	assert.Equal(t, map[string]any{"x": 0.0, "y": 0.0, "h": 0.0}, gotB, "other rows untouched")
	assert.Equal(t, b["id"], rows[1]["id"])
}

func TestScalarUpdate(t *testing.T) {
	s := New()
	row, err := s.AddRow(ModuleLoadsByPanel)
	require.NoError(t, err)

	id := row["id"].(string)
	require.NoError(t, s.UpdateRow(ModuleLoadsByPanel, id, "identificacionTablero", "TD-01"))
	require.NoError(t, s.UpdateRow(ModuleLoadsByPanel, id, "potenciaAparente", 12.5))

	got := s.Rows(ModuleLoadsByPanel)[0]
	assert.Equal(t, "TD-01", got["identificacionTablero"])
	assert.Equal(t, 12.5, got["potenciaAparente"])
}

func TestMissingIDLeavesStoreUntouched(t *testing.T) {
	s := New()
	row, err := s.AddRow(ModuleDPMS)
	require.NoError(t, err)
	_, err = s.AddSubRow(ModuleDPMS, row["id"].(string), "TUG")
	require.NoError(t, err)

	before := s.Snapshot()

	assert.ErrorIs(t, s.UpdateRow(ModuleDPMS, "ghost", "superficie", 1.0), ErrRowNotFound)
	assert.ErrorIs(t, s.DeleteRow(ModuleDPMS, "ghost"), ErrRowNotFound)
	assert.ErrorIs(t, s.UpdateSubRow(ModuleDPMS, "ghost", "TUG", "x", "dpms", 1.0), ErrRowNotFound)
	assert.ErrorIs(t, s.UpdateSubRow(ModuleDPMS, row["id"].(string), "TUG", "ghost", "dpms", 1.0), ErrRowNotFound)
	assert.ErrorIs(t, s.DeleteSubRow(ModuleDPMS, row["id"].(string), "TUG", "ghost"), ErrRowNotFound)

	assert.Equal(t, before, s.Snapshot(), "failed mutations must not change state")
}

func TestSubRowLifecycle(t *testing.T) {
	s := New()
	row, err := s.AddRow(ModuleDPMS)
	require.NoError(t, err)
	rowID := row["id"].(string)

	sub1, err := s.AddSubRow(ModuleDPMS, rowID, "TUG")
	require.NoError(t, err)
	sub2, err := s.AddSubRow(ModuleDPMS, rowID, "TUG")
	require.NoError(t, err)
	assert.NotEqual(t, sub1["id"], sub2["id"])

	assert.Equal(t, 0.0, sub1["cantidadBocas"])
	assert.Equal(t, "", sub1["identificacionCircuito"])

	require.NoError(t, s.UpdateSubRow(ModuleDPMS, rowID, "TUG", sub1["id"].(string), "dpms", 2200.0))

	cargas := s.Rows(ModuleDPMS)[0]["cargas"].(map[string]any)
	tug := cargas["TUG"].([]model.Row)
	require.Len(t, tug, 2)
	assert.Equal(t, 2200.0, tug[0]["dpms"])
	assert.Equal(t, 0.0, tug[1]["dpms"])

	require.NoError(t, s.DeleteSubRow(ModuleDPMS, rowID, "TUG", sub2["id"].(string)))
	cargas = s.Rows(ModuleDPMS)[0]["cargas"].(map[string]any)
	require.Len(t, cargas["TUG"].([]model.Row), 1)

	_, err = s.AddSubRow(ModuleDPMS, rowID, "XYZ")
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestDeleteRowCascades(t *testing.T) {
	s := New()
	row, err := s.AddRow(ModuleDPMS)
	require.NoError(t, err)
	rowID := row["id"].(string)

	sub, err := s.AddSubRow(ModuleDPMS, rowID, "TUG")
	require.NoError(t, err)
	_, err = s.AddSubRow(ModuleDPMS, rowID, "TUG")
	require.NoError(t, err)

	require.NoError(t, s.DeleteRow(ModuleDPMS, rowID))
	assert.Equal(t, 0, s.Len(ModuleDPMS))

	// No sub-row of a deleted row is addressable afterwards.
	err = s.UpdateSubRow(ModuleDPMS, rowID, "TUG", sub["id"].(string), "dpms", 1.0)
	assert.ErrorIs(t, err, ErrRowNotFound)
}

func TestReplaceAll(t *testing.T) {
	s := New()
	_, err := s.AddRow(ModuleDPMS)
	require.NoError(t, err)

	incoming := model.TableSet{
		ModuleDPMS: {
			{"id": "r1", "denominacionTablero": "TG", "dimensiones": map[string]any{"x": 3.0, "y": 4.0, "h": 2.6}},
		},
		ModuleThermal: {
			{"id": "t1", "circuito": "C1"},
		},
	}
	s.ReplaceAll(incoming)

	rows := s.Rows(ModuleDPMS)
	require.Len(t, rows, 1)
	assert.Equal(t, "r1", rows[0]["id"])
	assert.Equal(t, 1, s.Len(ModuleThermal))
	assert.Equal(t, 0, s.Len(ModuleLoadsByPanel), "absent tables become empty")

	// Snapshot is decoupled from the snapshot that was passed in.
	incoming[ModuleDPMS][0]["denominacionTablero"] = "mutated"
	assert.Equal(t, "TG", s.Rows(ModuleDPMS)[0]["denominacionTablero"])
}

func TestReplaceAllHandlesJSONShapes(t *testing.T) {
	// Sub-collections decoded from JSON arrive as []any of map[string]any.
	s := New()
	s.ReplaceAll(model.TableSet{
		ModuleDPMS: {
			{
				"id": "r1",
				"cargas": map[string]any{
					"TUG": []any{map[string]any{"id": "c1", "dpms": 2200.0}},
				},
			},
		},
	})

	require.NoError(t, s.UpdateSubRow(ModuleDPMS, "r1", "TUG", "c1", "fase", "R"))
	require.NoError(t, s.DeleteSubRow(ModuleDPMS, "r1", "TUG", "c1"))
}

func TestOnChangeFiresOnMutationsOnly(t *testing.T) {
	s := New()
	var calls int
	s.OnChange(func() { calls++ })

	row, err := s.AddRow(ModuleDPMS)
	require.NoError(t, err)
	require.NoError(t, s.UpdateRow(ModuleDPMS, row["id"].(string), "superficie", 1.0))
	assert.Equal(t, 2, calls)

	_ = s.UpdateRow(ModuleDPMS, "ghost", "superficie", 1.0)
	assert.Equal(t, 2, calls, "failed mutation must not notify")

	s.ReplaceAll(model.TableSet{})
	assert.Equal(t, 2, calls, "remote replace must not notify")
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := New()
	row, err := s.AddRow(ModuleDPMS)
	require.NoError(t, err)

	snap := s.Snapshot()
	snap[ModuleDPMS][0]["denominacionTablero"] = "mutated"
	snap[ModuleDPMS][0]["dimensiones"].(map[string]any)["x"] = 99.0

	got := s.Rows(ModuleDPMS)[0]
	assert.Equal(t, "", got["denominacionTablero"])
	assert.Equal(t, 0.0, got["dimensiones"].(map[string]any)["x"])
	assert.Equal(t, row["id"], got["id"])
}
