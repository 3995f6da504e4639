package model

import "strings"

// Sort directions accepted by list pages
const (
	SortAscending  = "Ascending"
	SortDescending = "Descending"
)

// Font Awesome classes used by sortable column headers
const (
	SortIconUnsorted   = "fa-sort"
	SortIconAscending  = "fa-sort-asc"
	SortIconDescending = "fa-sort-desc"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 15
	MaxPageSize     = 100
)

// RegionSearch holds the filter, sort and paging parameters of the region list
type RegionSearch struct {
	RegionName string `form:"RegionName"`
	Page       int    `form:"Page"`
	PageSize   int    `form:"PageSize"`
	SortBy     string `form:"SortBy"`
	SortOrder  string `form:"SortOrder"`
}

// regionSortColumns whitelists the sortable columns
var regionSortColumns = map[string]string{
	"RegionName":  "region_name",
	"RegionCode":  "region_code",
	"RegionKey":   "region_key",
	"Description": "description",
}

// Normalize fills defaults and clamps values that would produce invalid SQL
func (s *RegionSearch) Normalize() {
	s.RegionName = strings.TrimSpace(s.RegionName)
	if s.Page < 1 {
		s.Page = DefaultPage
	}
	if s.PageSize < 1 {
		s.PageSize = DefaultPageSize
	}
	if s.PageSize > MaxPageSize {
		s.PageSize = MaxPageSize
	}
	if _, ok := regionSortColumns[s.SortBy]; !ok {
		s.SortBy = "RegionName"
	}
	if s.SortOrder != SortDescending {
		s.SortOrder = SortAscending
	}
}

// SortColumn returns the database column for SortBy
func (s RegionSearch) SortColumn() string {
	if col, ok := regionSortColumns[s.SortBy]; ok {
		return col
	}
	return "region_name"
}

// SortSQL returns the SQL keyword for SortOrder
func (s RegionSearch) SortSQL() string {
	if s.SortOrder == SortDescending {
		return "DESC"
	}
	return "ASC"
}

// Offset is the number of rows skipped for the current page
func (s RegionSearch) Offset() int {
	return (s.Page - 1) * s.PageSize
}

// PaginatedList is one page of a larger result set
type PaginatedList[T any] struct {
	Items      []T
	PageIndex  int
	PageSize   int
	TotalCount int
	TotalPages int
}

// NewPaginatedList computes the page count for a page of items
func NewPaginatedList[T any](items []T, total, page, pageSize int) *PaginatedList[T] {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return &PaginatedList[T]{
		Items:      items,
		PageIndex:  page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: totalPages,
	}
}

func (p *PaginatedList[T]) HasPreviousPage() bool {
	return p.PageIndex > 1
}

func (p *PaginatedList[T]) HasNextPage() bool {
	return p.PageIndex < p.TotalPages
}

// GetSortDirection returns the direction a column header link should request.
// Only the active column toggles; every other column starts ascending.
func GetSortDirection(source, sortBy, sortDirection string) string {
	if source != sortBy {
		return SortAscending
	}
	if sortDirection == SortAscending {
		return SortDescending
	}
	return SortAscending
}

// GetSortIcon returns the icon class shown next to a column header
func GetSortIcon(source, sortBy, sortDirection string) string {
	if source != sortBy {
		return SortIconUnsorted
	}
	if sortDirection == SortAscending {
		return SortIconAscending
	}
	return SortIconDescending
}
