package editor

import (
	"fmt"
	"maps"
	"math"
	"strconv"
	"strings"

	"github.com/crestline/estatesite/internal/apierr"
	"github.com/crestline/estatesite/internal/properties"
)

type Field string

const (
	FieldTitle     Field = "title"
	FieldFloor     Field = "floor"
	FieldSize      Field = "size"
	FieldCapacity  Field = "capacity"
	FieldPrice     Field = "price"
	FieldStatus    Field = "status"
	FieldCondition Field = "condition"
)

var Fields = []Field{FieldTitle, FieldFloor, FieldSize, FieldCapacity, FieldPrice, FieldStatus, FieldCondition}

// FieldChange is the original and the current value of one edited field.
type FieldChange struct {
	Old any
	New any
}

type ChangeSet map[Field]FieldChange

type RowState int

const (
	StateClean RowState = iota
	StateModified
	StateNew
)

func (s RowState) String() string {
	switch s {
	case StateModified:
		return "modified"
	case StateNew:
		return "new"
	default:
		return "clean"
	}
}

// Row is one unit in the editor along with its last saved value.
type Row struct {
	current  properties.Unit
	original properties.Unit
	isNew    bool
	changes  ChangeSet
}

func cleanRow(u properties.Unit) *Row {
	return &Row{current: u, original: u, changes: ChangeSet{}}
}

func newRow(u properties.Unit) *Row {
	return &Row{current: u, isNew: true, changes: ChangeSet{}}
}

func (r *Row) ID() string {
	return r.current.ID
}

func (r *Row) Unit() properties.Unit {
	return r.current
}

func (r *Row) Original() properties.Unit {
	return r.original
}

func (r *Row) IsNew() bool {
	return r.isNew
}

func (r *Row) IsModified() bool {
	return !r.isNew && len(r.changes) > 0
}

func (r *Row) State() RowState {
	switch {
	case r.isNew:
		return StateNew
	case len(r.changes) > 0:
		return StateModified
	default:
		return StateClean
	}
}

func (r *Row) Changes() ChangeSet {
	return maps.Clone(r.changes)
}

// set applies a typed value and keeps the change set in line with the original.
func (r *Row) set(field Field, value any) error {
	if err := setField(&r.current, field, value); err != nil {
		return err
	}
	if r.isNew {
		return nil
	}

	oldValue := fieldValue(r.original, field)
	newValue := fieldValue(r.current, field)
	if oldValue == newValue {
		delete(r.changes, field)
	} else {
		r.changes[field] = FieldChange{Old: oldValue, New: newValue}
	}
	return nil
}

func fieldValue(u properties.Unit, field Field) any {
	switch field {
	case FieldTitle:
		return u.Title
	case FieldFloor:
		return u.Floor
	case FieldSize:
		return u.Size
	case FieldCapacity:
		return u.Capacity
	case FieldPrice:
		return u.Price
	case FieldStatus:
		return u.Status
	case FieldCondition:
		return u.Condition
	}
	return nil
}

func setField(u *properties.Unit, field Field, value any) error {
	invalid := func() error {
		return apierr.Newf(apierr.Validation, "invalid value %v for field %s", value, field)
	}

	switch field {
	case FieldTitle:
		v, ok := value.(string)
		if !ok {
			return invalid()
		}
		u.Title = v
	case FieldFloor, FieldCapacity:
		v, ok := value.(int)
		if !ok || (field == FieldCapacity && v < 0) {
			return invalid()
		}
		if field == FieldFloor {
			u.Floor = v
		} else {
			u.Capacity = v
		}
	case FieldSize, FieldPrice:
		var v float64
		switch n := value.(type) {
		case float64:
			v = n
		case int:
			v = float64(n)
		default:
			return invalid()
		}
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return invalid()
		}
		if field == FieldSize {
			u.Size = v
		} else {
			u.Price = v
		}
	case FieldStatus:
		v, ok := value.(properties.UnitStatus)
		if s, isString := value.(string); isString {
			v, ok = properties.UnitStatus(s), true
		}
		if !ok || !v.Valid() {
			return invalid()
		}
		u.Status = v
	case FieldCondition:
		v, ok := value.(properties.Condition)
		if s, isString := value.(string); isString {
			v, ok = properties.Condition(s), true
		}
		if !ok || !v.Valid() {
			return invalid()
		}
		u.Condition = v
	default:
		return apierr.Newf(apierr.Validation, "unknown field %q", field)
	}
	return nil
}

// ParseValue converts the text form of a field value (e.g. from a form input) to its typed value.
func ParseValue(field Field, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch field {
	case FieldTitle, FieldStatus, FieldCondition:
		return raw, nil
	case FieldFloor, FieldCapacity:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, apierr.Newf(apierr.Validation, "%s must be a whole number", field)
		}
		return v, nil
	case FieldSize, FieldPrice:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, apierr.Newf(apierr.Validation, "%s must be a number", field)
		}
		return v, nil
	}
	return nil, apierr.Newf(apierr.Validation, "unknown field %q", field)
}

func (c FieldChange) String() string {
	return fmt.Sprintf("%v -> %v", c.Old, c.New)
}
