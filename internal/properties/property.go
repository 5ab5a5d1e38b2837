package properties

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/crestline/estatesite/internal/apierr"
)

type UnitStatus string

const (
	UnitAvailable   UnitStatus = "Available"
	UnitUnavailable UnitStatus = "Unavailable"
	UnitTaken       UnitStatus = "Taken"
	UnitComingSoon  UnitStatus = "Coming Soon"
)

func (s UnitStatus) Valid() bool {
	switch s {
	case UnitAvailable, UnitUnavailable, UnitTaken, UnitComingSoon:
		return true
	}
	return false
}

type Condition string

const (
	ConditionBare      Condition = "Bare"
	ConditionWarmShell Condition = "Warm Shell"
	ConditionFitted    Condition = "Fitted"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionBare, ConditionWarmShell, ConditionFitted:
		return true
	}
	return false
}

type Building struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Prefix      string    `json:"prefix"`
	Address     string    `json:"address"`
	Description string    `json:"description"`
	ImagePath   string    `json:"imagePath"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Unit struct {
	ID         string     `json:"id"`
	BuildingID string     `json:"buildingId"`
	Title      string     `json:"title"`
	Floor      int        `json:"floor"`
	Size       float64    `json:"size"`
	Capacity   int        `json:"capacity"`
	Price      float64    `json:"price"`
	Status     UnitStatus `json:"status"`
	Condition  Condition  `json:"condition"`
}

func (b *Building) Validate() error {
	b.ID = strings.TrimSpace(b.ID)
	b.Name = strings.TrimSpace(b.Name)
	b.Prefix = strings.TrimSpace(b.Prefix)
	switch {
	case b.ID == "":
		return apierr.New(apierr.Validation, "building id is required")
	case b.Name == "":
		return apierr.New(apierr.Validation, "building name is required")
	case b.Prefix == "":
		return apierr.New(apierr.Validation, "building prefix is required")
	}
	return nil
}

// ValidateUnits checks a full unit set of one building, including id uniqueness.
func ValidateUnits(units []Unit) error {
	seen := make(map[string]bool, len(units))
	for i, u := range units {
		id := strings.TrimSpace(u.ID)
		if id == "" {
			return apierr.Newf(apierr.Validation, "unit #%d: id is required", i+1)
		}
		if seen[id] {
			return apierr.Newf(apierr.Validation, "duplicate unit id %q", id)
		}
		seen[id] = true
		if err := validateUnit(u); err != nil {
			return apierr.Newf(apierr.Validation, "unit %q: %s", id, err)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func validateUnit(u Unit) error {
	switch {
	case !u.Status.Valid():
		return fmt.Errorf("invalid status %q", u.Status)
	case !u.Condition.Valid():
		return fmt.Errorf("invalid condition %q", u.Condition)
	case u.Size < 0 || u.Price < 0 || u.Capacity < 0:
		return fmt.Errorf("size, capacity and price cannot be negative")
	case !finite(u.Size) || !finite(u.Price):
		return fmt.Errorf("size and price must be finite numbers")
	}
	return nil
}
