package region

import (
	"context"
	"errors"

	"basecode-go/internal/repository"
	"basecode-go/pkg/model"
)

// Store is the region persistence used by the service
type Store interface {
	FindByID(ctx context.Context, id int) (*model.Region, error)
	FindRegions(ctx context.Context, search model.RegionSearch) (*model.PaginatedList[model.Region], error)
	Create(ctx context.Context, region *model.Region) error
	Update(ctx context.Context, region model.Region) (*model.UpdateRegionResult, error)
	Delete(ctx context.Context, region model.Region) error
	DeleteByID(ctx context.Context, id int) error
	IsRegionExists(ctx context.Context, name string) (bool, error)
	IsNameTaken(ctx context.Context, name string, excludeID int) (bool, error)
	IsRegionInUsed(ctx context.Context, id int) (bool, error)
	GetRegionDropdownItems(ctx context.Context) ([]model.SelectListItem, error)
}

// RegionService manages region records
type RegionService struct {
	store Store
}

// NewRegionService creates a new region service
func NewRegionService(store Store) *RegionService {
	return &RegionService{store: store}
}

// Find returns nil when the region does not exist
func (s *RegionService) Find(ctx context.Context, id int) (*model.Region, error) {
	region, err := s.store.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return region, nil
}

// FindRegions returns one page of regions matching the search
func (s *RegionService) FindRegions(ctx context.Context, search model.RegionSearch) (*model.PaginatedList[model.Region], error) {
	return s.store.FindRegions(ctx, search)
}

func (s *RegionService) Create(ctx context.Context, region *model.Region) error {
	return s.store.Create(ctx, region)
}

// Update saves the region if nobody changed it since it was read.
// Conflicts are reported in the result, not as an error.
func (s *RegionService) Update(ctx context.Context, region model.Region) (*model.UpdateRegionResult, error) {
	return s.store.Update(ctx, region)
}

func (s *RegionService) Delete(ctx context.Context, region model.Region) error {
	return s.store.Delete(ctx, region)
}

func (s *RegionService) DeleteByID(ctx context.Context, id int) error {
	return s.store.DeleteByID(ctx, id)
}

func (s *RegionService) IsRegionExists(ctx context.Context, name string) (bool, error) {
	return s.store.IsRegionExists(ctx, name)
}

// IsNameTaken reports whether a region other than excludeID uses the name
func (s *RegionService) IsNameTaken(ctx context.Context, name string, excludeID int) (bool, error) {
	return s.store.IsNameTaken(ctx, name, excludeID)
}

func (s *RegionService) IsRegionInUsed(ctx context.Context, id int) (bool, error) {
	return s.store.IsRegionInUsed(ctx, id)
}

// GetRegionDropdownItems lists the regions offered on the registration form
func (s *RegionService) GetRegionDropdownItems(ctx context.Context, selected string) ([]model.SelectListItem, error) {
	items, err := s.store.GetRegionDropdownItems(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Selected = items[i].Value == selected
	}
	return items, nil
}
