package editor

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/crestline/estatesite/internal/apierr"
	"github.com/crestline/estatesite/internal/properties"

	log "github.com/sirupsen/logrus"
)

var (
	ErrUnitNotFound = apierr.New(apierr.NotFound, "unit not found")
	ErrNoPersister  = apierr.New(apierr.Dependency, "editor has no persister")
)

//go:generate mockgen -source=editor.go -destination=editor_mocks_test.go -package=editor_test

// Persister stores the full unit list of a building and returns the stored list.
type Persister interface {
	SaveUnits(ctx context.Context, buildingID string, units []properties.Unit) ([]properties.Unit, error)
}

// UnitForm holds the values used for a newly added unit.
type UnitForm struct {
	Title     string
	Floor     int
	Size      float64
	Capacity  int
	Price     float64
	Status    properties.UnitStatus
	Condition properties.Condition
}

func DefaultUnitForm() UnitForm {
	return UnitForm{
		Floor:     1,
		Status:    properties.UnitAvailable,
		Condition: properties.ConditionBare,
	}
}

// Editor tracks unsaved edits to the units of one building.
type Editor struct {
	building  properties.Building
	persister Persister
	snapshot  []properties.Unit
	rows      []*Row
}

func New(building properties.Building, units []properties.Unit, persister Persister) *Editor {
	e := &Editor{
		building:  building,
		persister: persister,
		snapshot:  slices.Clone(units),
	}
	e.reset()
	return e
}

func (e *Editor) reset() {
	e.rows = make([]*Row, 0, len(e.snapshot))
	for _, u := range e.snapshot {
		e.rows = append(e.rows, cleanRow(u))
	}
}

func (e *Editor) Building() properties.Building {
	return e.building
}

func (e *Editor) Rows() []*Row {
	return slices.Clone(e.rows)
}

// Units returns the current in-memory unit list, unsaved edits included.
func (e *Editor) Units() []properties.Unit {
	units := make([]properties.Unit, 0, len(e.rows))
	for _, r := range e.rows {
		units = append(units, r.current)
	}
	return units
}

func (e *Editor) Row(id string) (*Row, bool) {
	i := e.indexOf(id)
	if i < 0 {
		return nil, false
	}
	return e.rows[i], true
}

func (e *Editor) indexOf(id string) int {
	return slices.IndexFunc(e.rows, func(r *Row) bool {
		return r.current.ID == id
	})
}

// Edit sets one field of a unit. Setting a field back to its saved value drops the change.
func (e *Editor) Edit(id string, field Field, value any) error {
	row, ok := e.Row(id)
	if !ok {
		return ErrUnitNotFound
	}
	return row.set(field, value)
}

// Add appends a new unit built from form and returns its row.
func (e *Editor) Add(form UnitForm) *Row {
	u := properties.Unit{
		ID:         e.NextUnitID(),
		BuildingID: e.building.ID,
		Title:      form.Title,
		Floor:      form.Floor,
		Size:       form.Size,
		Capacity:   form.Capacity,
		Price:      form.Price,
		Status:     form.Status,
		Condition:  form.Condition,
	}
	if u.Title == "" {
		u.Title = "Unit " + strings.TrimPrefix(u.ID, e.building.Prefix+"-")
	}

	row := newRow(u)
	e.rows = append(e.rows, row)
	return row
}

// NextUnitID returns <prefix>-<n> for the first n, counting up from the row count, that is not taken.
func (e *Editor) NextUnitID() string {
	prefix := e.building.Prefix
	if prefix == "" {
		prefix = e.building.ID
	}

	for n := len(e.rows) + 1; ; n++ {
		id := prefix + "-" + strconv.Itoa(n)
		if e.indexOf(id) < 0 {
			return id
		}
	}
}

// Remove deletes a unit after confirm approves it. A nil confirm always approves.
func (e *Editor) Remove(id string, confirm func(properties.Unit) bool) (bool, error) {
	i := e.indexOf(id)
	if i < 0 {
		return false, ErrUnitNotFound
	}
	if confirm != nil && !confirm(e.rows[i].current) {
		return false, nil
	}

	e.rows = slices.Delete(e.rows, i, i+1)
	return true, nil
}

func (e *Editor) HasUnsavedChanges() bool {
	for _, r := range e.rows {
		if r.State() != StateClean {
			return true
		}
	}
	return len(e.Removed()) > 0
}

// Removed lists saved units that are no longer in the editor.
func (e *Editor) Removed() []properties.Unit {
	var removed []properties.Unit
	for _, u := range e.snapshot {
		if e.indexOf(u.ID) < 0 {
			removed = append(removed, u)
		}
	}
	return removed
}

// Save persists the current list. On failure every pending edit is kept.
func (e *Editor) Save(ctx context.Context) error {
	if e.persister == nil {
		return ErrNoPersister
	}

	saved, err := e.persister.SaveUnits(ctx, e.building.ID, e.Units())
	if err != nil {
		log.Errorf("save units of building %s: %s", e.building.ID, err)
		return fmt.Errorf("save units: %w", err)
	}

	e.snapshot = slices.Clone(saved)
	e.reset()
	log.Debugf("saved %d units of building %s", len(saved), e.building.ID)
	return nil
}

// Discard drops every pending edit and returns to the last saved list.
func (e *Editor) Discard() {
	e.reset()
}
