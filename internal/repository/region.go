package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"basecode-go/pkg/model"
)

// description is nullable; a missing one reads as ""
const regionColumns = "region_id, region_name, region_code, region_key, COALESCE(description, '') AS description, row_version"

// RegionRepository stores regions in PostgreSQL
type RegionRepository struct {
	db *sqlx.DB
}

// NewRegionRepository creates a new region repository
func NewRegionRepository(db *sqlx.DB) *RegionRepository {
	return &RegionRepository{db: db}
}

// FindByID returns ErrNotFound when the region does not exist
func (r *RegionRepository) FindByID(ctx context.Context, id int) (*model.Region, error) {
	var region model.Region
	err := r.db.GetContext(ctx, &region, `SELECT `+regionColumns+` FROM regions WHERE region_id = $1`, id)
	if err != nil {
		return nil, classify("find region", err)
	}
	return &region, nil
}

// FindRegions returns one page of regions filtered by name
func (r *RegionRepository) FindRegions(ctx context.Context, search model.RegionSearch) (*model.PaginatedList[model.Region], error) {
	search.Normalize()

	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argIndex := 1

	if search.RegionName != "" {
		whereClause += fmt.Sprintf(" AND region_name ILIKE $%d ESCAPE '\\'", argIndex)
		args = append(args, "%"+escapeLike(search.RegionName)+"%")
		argIndex++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM regions %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, classify("count regions", err)
	}

	// region_id keeps paging stable when the sort column has duplicates
	query := fmt.Sprintf(`
        SELECT %s
        FROM regions %s
        ORDER BY %s %s, region_id
        LIMIT $%d OFFSET $%d
    `, regionColumns, whereClause, search.SortColumn(), search.SortSQL(), argIndex, argIndex+1)
	args = append(args, search.PageSize, search.Offset())

	regions := []model.Region{}
	if err := r.db.SelectContext(ctx, &regions, query, args...); err != nil {
		return nil, classify("list regions", err)
	}

	return model.NewPaginatedList(regions, total, search.Page, search.PageSize), nil
}

// Create inserts the region and fills in its id and row version
func (r *RegionRepository) Create(ctx context.Context, region *model.Region) error {
	err := r.db.QueryRowxContext(ctx, `
        INSERT INTO regions (region_name, region_code, region_key, description)
        VALUES ($1, $2, $3, NULLIF($4, ''))
        RETURNING region_id, row_version
    `, region.RegionName, region.RegionCode, region.RegionKey, region.Description).
		Scan(&region.RegionID, &region.RowVersion)
	return classify("create region", err)
}

// Update stores the region only when its row version still matches the
// database. On a mismatch nothing is written and the result lists how the
// stored row differs, together with the stored row version.
func (r *RegionRepository) Update(ctx context.Context, region model.Region) (*model.UpdateRegionResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, classify("begin region update", err)
	}
	defer tx.Rollback()

	result := &model.UpdateRegionResult{}

	var version int64
	err = tx.GetContext(ctx, &version, `
        UPDATE regions
        SET region_name = $1, region_code = $2, region_key = $3, description = NULLIF($4, ''),
            row_version = row_version + 1
        WHERE region_id = $5 AND row_version = $6
        RETURNING row_version
    `, region.RegionName, region.RegionCode, region.RegionKey, region.Description,
		region.RegionID, region.RowVersion)

	switch {
	case err == nil:
		result.RowVersion = version
	case errors.Is(err, sql.ErrNoRows):
		var current model.Region
		err = tx.GetContext(ctx, &current, `SELECT `+regionColumns+` FROM regions WHERE region_id = $1`, region.RegionID)
		if errors.Is(err, sql.ErrNoRows) {
			result.ValidationResults = append(result.ValidationResults,
				model.ValidationResult{Message: model.RegionDeletedOnSave})
			break
		}
		if err != nil {
			return nil, classify("reload region", err)
		}
		result.ValidationResults = append(regionConflicts(region, current),
			model.ValidationResult{Message: model.RegionModified})
		result.RowVersion = current.RowVersion
	default:
		return nil, classify("update region", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, classify("commit region update", err)
	}
	return result, nil
}

// regionConflicts lists the editable fields whose stored value differs from the posted one
func regionConflicts(posted, stored model.Region) []model.ValidationResult {
	fields := []struct {
		member  string
		display string
		posted  string
		stored  string
	}{
		{"RegionName", "Region", posted.RegionName, stored.RegionName},
		{"RegionCode", "Region Code", posted.RegionCode, stored.RegionCode},
		{"RegionKey", "Region Key", posted.RegionKey, stored.RegionKey},
		{"Description", "Description", posted.Description, stored.Description},
	}

	var results []model.ValidationResult
	for _, f := range fields {
		if f.posted == f.stored {
			continue
		}
		results = append(results, model.ValidationResult{
			MemberName: f.member,
			Message:    fmt.Sprintf("%s current value: %s", f.display, f.stored),
		})
	}
	return results
}

// Delete removes the region. A non-zero row version must still match.
func (r *RegionRepository) Delete(ctx context.Context, region model.Region) error {
	res, err := r.db.ExecContext(ctx, `
        DELETE FROM regions
        WHERE region_id = $1 AND ($2 = 0 OR row_version = $2)
    `, region.RegionID, region.RowVersion)
	if err != nil {
		return classify("delete region", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("delete region", err)
	}
	if n == 0 {
		return fmt.Errorf("delete region %d: %w", region.RegionID, ErrNotFound)
	}
	return nil
}

// DeleteByID removes the region if it exists
func (r *RegionRepository) DeleteByID(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM regions WHERE region_id = $1`, id)
	return classify("delete region", err)
}

// IsRegionExists reports whether a region with the name exists, ignoring case
func (r *RegionRepository) IsRegionExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM regions WHERE LOWER(region_name) = LOWER($1))`, strings.TrimSpace(name))
	if err != nil {
		return false, classify("check region name", err)
	}
	return exists, nil
}

// IsNameTaken reports whether another region already uses the name
func (r *RegionRepository) IsNameTaken(ctx context.Context, name string, excludeID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM regions WHERE LOWER(region_name) = LOWER($1) AND region_id <> $2)`,
		strings.TrimSpace(name), excludeID)
	if err != nil {
		return false, classify("check region name", err)
	}
	return exists, nil
}

// IsRegionInUsed reports whether any user references the region
func (r *RegionRepository) IsRegionInUsed(ctx context.Context, id int) (bool, error) {
	var used bool
	err := r.db.GetContext(ctx, &used, `SELECT EXISTS(SELECT 1 FROM app_users WHERE region_id = $1)`, id)
	if err != nil {
		return false, classify("check region usage", err)
	}
	return used, nil
}

// GetRegionDropdownItems lists every region as a dropdown option
func (r *RegionRepository) GetRegionDropdownItems(ctx context.Context) ([]model.SelectListItem, error) {
	var regions []model.Region
	err := r.db.SelectContext(ctx, &regions, `SELECT `+regionColumns+` FROM regions ORDER BY region_name`)
	if err != nil {
		return nil, classify("list region options", err)
	}

	items := make([]model.SelectListItem, 0, len(regions))
	for _, region := range regions {
		items = append(items, model.SelectListItem{
			Text:  region.RegionName,
			Value: strconv.Itoa(region.RegionID),
		})
	}
	return items, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
