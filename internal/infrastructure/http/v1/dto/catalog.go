package dto

import (
	"strings"

	"stockledger/internal/domain"
	"stockledger/internal/domain/catalogs/product"
)

// CatalogListQuery holds query parameters of the catalog list endpoints.
type CatalogListQuery struct {
	Search     string `form:"search"`
	CategoryID string `form:"categoryId"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
	SortBy     string `form:"sortBy"`
	SortOrder  string `form:"sortOrder"`
}

// ToListFilter returns the shared list filter.
func (q CatalogListQuery) ToListFilter() domain.ListFilter {
	return domain.ListFilter{
		Search:    strings.TrimSpace(q.Search),
		Page:      q.Page,
		Limit:     q.Limit,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
	}
}

// ToProductFilter returns the product filter.
func (q CatalogListQuery) ToProductFilter() (product.Filter, error) {
	f := product.Filter{ListFilter: q.ToListFilter()}
	var err error
	f.CategoryID, err = ParseOptionalID("categoryId", q.CategoryID)
	return f, err
}
