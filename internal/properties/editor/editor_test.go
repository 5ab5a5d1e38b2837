package editor_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/crestline/estatesite/internal/properties"
	"github.com/crestline/estatesite/internal/properties/editor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var tower = properties.Building{ID: "tower", Name: "Harbor Tower", Prefix: "HT"}

func towerUnits() []properties.Unit {
	return []properties.Unit{
		{ID: "HT-1", BuildingID: "tower", Title: "Unit 1", Floor: 1, Size: 80, Capacity: 6, Price: 1200, Status: properties.UnitAvailable, Condition: properties.ConditionBare},
		{ID: "HT-2", BuildingID: "tower", Title: "Unit 2", Floor: 2, Size: 95.5, Capacity: 8, Price: 1500, Status: properties.UnitTaken, Condition: properties.ConditionFitted},
	}
}

func TestEditor_EditTracksChanges(t *testing.T) {
	e := editor.New(tower, towerUnits(), nil)
	assert.False(t, e.HasUnsavedChanges())

	require.NoError(t, e.Edit("HT-1", editor.FieldPrice, 1350.0))
	require.NoError(t, e.Edit("HT-1", editor.FieldStatus, "Coming Soon"))

	row, ok := e.Row("HT-1")
	require.True(t, ok)
	assert.True(t, row.IsModified())
	assert.Equal(t, editor.StateModified, row.State())
	assert.Equal(t, editor.ChangeSet{
		editor.FieldPrice:  {Old: 1200.0, New: 1350.0},
		editor.FieldStatus: {Old: properties.UnitAvailable, New: properties.UnitComingSoon},
	}, row.Changes())
	assert.Equal(t, 1200.0, row.Original().Price)
	assert.True(t, e.HasUnsavedChanges())

	// setting values back to what was saved clears the row
	require.NoError(t, e.Edit("HT-1", editor.FieldPrice, 1200))
	require.NoError(t, e.Edit("HT-1", editor.FieldStatus, properties.UnitAvailable))
	assert.False(t, row.IsModified())
	assert.Empty(t, row.Changes())
	assert.False(t, e.HasUnsavedChanges())
}

func TestEditor_EditRejectsBadValues(t *testing.T) {
	e := editor.New(tower, towerUnits(), nil)

	assert.ErrorIs(t, e.Edit("HT-9", editor.FieldTitle, "x"), editor.ErrUnitNotFound)
	assert.Error(t, e.Edit("HT-1", editor.FieldStatus, "Sold"))
	assert.Error(t, e.Edit("HT-1", editor.FieldCondition, "Shiny"))
	assert.Error(t, e.Edit("HT-1", editor.FieldFloor, "three"))
	assert.Error(t, e.Edit("HT-1", editor.FieldPrice, -1.0))
	assert.Error(t, e.Edit("HT-1", editor.FieldPrice, math.NaN()))
	assert.Error(t, e.Edit("HT-1", editor.FieldSize, math.Inf(1)))
	assert.Error(t, e.Edit("HT-1", editor.Field("color"), "red"))
	assert.False(t, e.HasUnsavedChanges())
	row, _ := e.Row("HT-1")
	assert.Equal(t, editor.StateClean, row.State())
}

func TestParseValue(t *testing.T) {
	v, err := editor.ParseValue(editor.FieldFloor, " 4 ")
	require.NoError(t, err)
	assert.Equal(t, 4, v)

	v, err = editor.ParseValue(editor.FieldSize, "72.5")
	require.NoError(t, err)
	assert.Equal(t, 72.5, v)

	v, err = editor.ParseValue(editor.FieldCondition, "Warm Shell")
	require.NoError(t, err)
	assert.Equal(t, "Warm Shell", v)

	_, err = editor.ParseValue(editor.FieldCapacity, "many")
	assert.Error(t, err)

	for _, raw := range []string{"NaN", "Inf", "+Inf", "-Inf"} {
		_, err = editor.ParseValue(editor.FieldPrice, raw)
		assert.Error(t, err, raw)
	}
}

func TestEditor_AddAndRemove(t *testing.T) {
	e := editor.New(tower, towerUnits(), nil)

	row := e.Add(editor.DefaultUnitForm())
	assert.Equal(t, "HT-3", row.ID())
	assert.True(t, row.IsNew())
	assert.False(t, row.IsModified())
	assert.Equal(t, 1, row.Unit().Floor)
	assert.Equal(t, properties.UnitAvailable, row.Unit().Status)
	assert.Equal(t, properties.ConditionBare, row.Unit().Condition)
	assert.Equal(t, "tower", row.Unit().BuildingID)
	assert.True(t, e.HasUnsavedChanges())

	// editing a new row keeps it new
	require.NoError(t, e.Edit("HT-3", editor.FieldTitle, "Corner office"))
	assert.Equal(t, editor.StateNew, row.State())

	removed, err := e.Remove("HT-1", func(properties.Unit) bool { return false })
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Len(t, e.Rows(), 3)

	removed, err = e.Remove("HT-1", func(u properties.Unit) bool { return u.ID == "HT-1" })
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Len(t, e.Rows(), 2)
	assert.Equal(t, []properties.Unit{towerUnits()[0]}, e.Removed())

	// HT-3 is still taken, so the next id skips it
	assert.Equal(t, "HT-4", e.Add(editor.DefaultUnitForm()).ID())

	_, err = e.Remove("HT-99", nil)
	assert.ErrorIs(t, err, editor.ErrUnitNotFound)
}

func TestEditor_RemovalAloneIsUnsaved(t *testing.T) {
	e := editor.New(tower, towerUnits(), nil)
	_, err := e.Remove("HT-2", nil)
	require.NoError(t, err)
	assert.True(t, e.HasUnsavedChanges())

	e.Discard()
	assert.False(t, e.HasUnsavedChanges())
	assert.Equal(t, towerUnits(), e.Units())
}

func TestEditor_Save(t *testing.T) {
	ctrl := gomock.NewController(t)
	persister := NewMockPersister(ctrl)
	e := editor.New(tower, towerUnits(), persister)

	require.NoError(t, e.Edit("HT-2", editor.FieldCapacity, 10))
	e.Add(editor.DefaultUnitForm())
	want := e.Units()

	persister.EXPECT().
		SaveUnits(gomock.Any(), "tower", want).
		Return(want, nil)

	require.NoError(t, e.Save(context.Background()))
	assert.False(t, e.HasUnsavedChanges())
	for _, r := range e.Rows() {
		assert.Equal(t, editor.StateClean, r.State(), r.ID())
	}

	// discard after save goes back to the saved list, not the initial one
	require.NoError(t, e.Edit("HT-2", editor.FieldCapacity, 12))
	e.Discard()
	assert.Equal(t, want, e.Units())
}

func TestEditor_FailedSaveKeepsEdits(t *testing.T) {
	ctrl := gomock.NewController(t)
	persister := NewMockPersister(ctrl)
	e := editor.New(tower, towerUnits(), persister)

	require.NoError(t, e.Edit("HT-1", editor.FieldTitle, "Penthouse"))
	persister.EXPECT().
		SaveUnits(gomock.Any(), "tower", gomock.Any()).
		Return(nil, errors.New("connection reset"))

	err := e.Save(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.True(t, e.HasUnsavedChanges())

	row, _ := e.Row("HT-1")
	assert.Equal(t, "Penthouse", row.Unit().Title)
	assert.True(t, row.IsModified())
}

func TestEditor_SaveWithoutPersister(t *testing.T) {
	e := editor.New(tower, towerUnits(), nil)
	assert.ErrorIs(t, e.Save(context.Background()), editor.ErrNoPersister)
}
