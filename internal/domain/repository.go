// Package domain provides shared types for domain services.
package domain

import (
	"context"
	"strings"
	"time"

	"stockledger/internal/core/apperror"
)

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Pagination defaults.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// ListFilter contains common filtering options for document lists.
type ListFilter struct {
	// Search matches the business number and counterpart name
	Search string

	DateFrom *time.Time
	DateTo   *time.Time

	// SortBy is a whitelisted field name (e.g. "createdAt"); SortOrder is asc|desc
	SortBy    string
	SortOrder string

	// Pagination is 1-based
	Page  int
	Limit int
}

// Normalize applies defaults and bounds. allowedSort maps API field names
// to storage columns; the first call argument is the default sort field.
func (f *ListFilter) Normalize(defaultSort string, allowedSort map[string]string) error {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.SortBy == "" {
		f.SortBy = defaultSort
	}
	if _, ok := allowedSort[f.SortBy]; !ok {
		return apperror.NewValidation("unsupported sort field").
			WithDetail("field", "sortBy").
			WithDetail("value", f.SortBy)
	}
	order, err := NormalizeSortOrder(f.SortOrder)
	if err != nil {
		return err
	}
	f.SortOrder = order
	if f.DateFrom != nil && f.DateTo != nil && f.DateTo.Before(*f.DateFrom) {
		return apperror.NewValidation("endDate is before startDate").WithDetail("field", "endDate")
	}
	return nil
}

// Offset returns the row offset of the current page.
func (f ListFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// NormalizeSortOrder lower-cases order and defaults it to desc.
func NormalizeSortOrder(order string) (string, error) {
	switch strings.ToLower(order) {
	case "":
		return SortDesc, nil
	case SortAsc:
		return SortAsc, nil
	case SortDesc:
		return SortDesc, nil
	}
	return "", apperror.NewValidation("sortOrder must be asc or desc").
		WithDetail("field", "sortOrder").
		WithDetail("value", order)
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
}

// Pages returns the number of pages for TotalCount at Limit.
func (r ListResult[T]) Pages() int {
	if r.Limit <= 0 {
		return 0
	}
	return int((r.TotalCount + int64(r.Limit) - 1) / int64(r.Limit))
}

// --- Hooks ---

// HookEvent represents lifecycle event type.
type HookEvent string

const (
	BeforeCreate HookEvent = "before_create"
	AfterCreate  HookEvent = "after_create"
	BeforeUpdate HookEvent = "before_update"
	AfterUpdate  HookEvent = "after_update"
	AfterApply   HookEvent = "after_apply"
)

// Hook is a function that runs at specific lifecycle points.
type Hook[T any] func(ctx context.Context, entity T) error

// HookRegistry stores lifecycle hooks for an entity type.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{
		hooks: make(map[HookEvent][]Hook[T]),
	}
}

// On registers a hook for the specified event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes all hooks for the specified event, stopping at the first error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, entity T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}
