package region

import (
	"context"

	"basecode-go/pkg/model"
)

// RegionValidator holds the business rules checked before a region is written.
// Each check returns a nil result when the operation may proceed.
type RegionValidator struct {
	regions *RegionService
}

func NewRegionValidator(regions *RegionService) *RegionValidator {
	return &RegionValidator{regions: regions}
}

// CanAdd rejects a missing region and a name already in use
func (v *RegionValidator) CanAdd(ctx context.Context, region *model.Region) (*model.ValidationResult, error) {
	if region == nil {
		return model.NewValidationResult(model.ErrorRecordInvalid), nil
	}

	exists, err := v.regions.IsRegionExists(ctx, region.RegionName)
	if err != nil {
		return nil, err
	}
	if exists {
		return model.NewValidationResult(model.ErrorRecordExists), nil
	}
	return nil, nil
}

// CanUpdate rejects a region that no longer exists and a rename onto another region's name
func (v *RegionValidator) CanUpdate(ctx context.Context, region *model.Region) (*model.ValidationResult, error) {
	if region == nil {
		return model.NewValidationResult(model.ErrorRecordInvalid), nil
	}

	stored, err := v.regions.Find(ctx, region.RegionID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return model.NewValidationResult(model.ErrorRecordNotExists), nil
	}

	taken, err := v.regions.IsNameTaken(ctx, region.RegionName, region.RegionID)
	if err != nil {
		return nil, err
	}
	if taken {
		return model.NewValidationResult(model.ErrorRecordExists), nil
	}
	return nil, nil
}

// CanDelete rejects a region that does not exist or is assigned to a user
func (v *RegionValidator) CanDelete(ctx context.Context, id int) (*model.ValidationResult, error) {
	stored, err := v.regions.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return model.NewValidationResult(model.ErrorRecordNotExists), nil
	}

	used, err := v.regions.IsRegionInUsed(ctx, id)
	if err != nil {
		return nil, err
	}
	if used {
		return model.NewValidationResult(model.ErrorRecordInUse), nil
	}
	return nil, nil
}
