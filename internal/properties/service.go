package properties

import (
	"context"
	"strings"

	"github.com/crestline/estatesite/internal/telemetry/tracing"
	"github.com/crestline/estatesite/pkg"

	log "github.com/sirupsen/logrus"
)

type propertiesRepo interface {
	ListBuildings(ctx context.Context) ([]Building, error)
	GetBuilding(ctx context.Context, id string) (*Building, error)
	AddBuilding(ctx context.Context, b *Building) (*Building, error)
	UpdateBuilding(ctx context.Context, b *Building) error
	DeleteBuilding(ctx context.Context, id string) error
	ListUnits(ctx context.Context, buildingID string) ([]Unit, error)
	ReplaceUnits(ctx context.Context, buildingID string, units []Unit) error
}

type Service struct {
	repo  propertiesRepo
	cache *listingCache
}

func NewService(repo propertiesRepo, cacheSize int) *Service {
	return &Service{
		repo:  repo,
		cache: newListingCache(cacheSize),
	}
}

func (s *Service) Buildings(ctx context.Context) ([]Building, error) {
	var buildings []Building
	if s.cache.get(buildingsKey(), &buildings) {
		return buildings, nil
	}

	buildings, err := s.repo.ListBuildings(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.set(buildingsKey(), buildings)
	return buildings, nil
}

func (s *Service) Building(ctx context.Context, id string) (*Building, error) {
	var building Building
	if s.cache.get(buildingKey(id), &building) {
		return &building, nil
	}

	b, err := s.repo.GetBuilding(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.set(buildingKey(id), b)
	return b, nil
}

// Units lists the units of a building. Cached reads are for the public site,
// the unit editor loads with cached=false.
func (s *Service) Units(ctx context.Context, buildingID string, cached bool) ([]Unit, error) {
	var units []Unit
	if cached && s.cache.get(unitsKey(buildingID), &units) {
		return units, nil
	}

	if _, err := s.repo.GetBuilding(ctx, buildingID); err != nil {
		return nil, err
	}
	units, err := s.repo.ListUnits(ctx, buildingID)
	if err != nil {
		return nil, err
	}
	s.cache.set(unitsKey(buildingID), units)
	return units, nil
}

// SaveUnits replaces the unit set of a building with the given one.
func (s *Service) SaveUnits(ctx context.Context, buildingID string, units []Unit) (_ []Unit, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.properties.save_units")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	normalized := make([]Unit, len(units))
	for i, u := range units {
		u.ID = strings.TrimSpace(u.ID)
		u.Title = strings.TrimSpace(u.Title)
		u.BuildingID = buildingID
		normalized[i] = u
	}
	if err = ValidateUnits(normalized); err != nil {
		return nil, err
	}

	if err = s.repo.ReplaceUnits(ctx, buildingID, normalized); err != nil {
		return nil, err
	}
	s.cache.clear()

	log.Infof("saved %d units of building [%s]", len(normalized), buildingID)
	return normalized, nil
}

func (s *Service) CreateBuilding(ctx context.Context, b Building) (*Building, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	created, err := s.repo.AddBuilding(ctx, &b)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrBuildingExists
		}
		return nil, err
	}
	s.cache.clear()
	log.Infof("building created: [%s] %s", created.ID, created.Name)
	return created, nil
}

func (s *Service) UpdateBuilding(ctx context.Context, b Building) (*Building, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateBuilding(ctx, &b); err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrBuildingExists
		}
		return nil, err
	}
	s.cache.clear()
	return s.repo.GetBuilding(ctx, b.ID)
}

func (s *Service) DeleteBuilding(ctx context.Context, id string) error {
	if err := s.repo.DeleteBuilding(ctx, id); err != nil {
		return err
	}
	s.cache.clear()
	log.Warnf("building [%s] deleted with its units", id)
	return nil
}
