// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"fmt"
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/documents"
)

// --- Pagination ---

// PaginationResponse contains pagination metadata.
type PaginationResponse struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// ListResponse wraps one page of results.
type ListResponse[T any] struct {
	Items      []T                `json:"items"`
	Pagination PaginationResponse `json:"pagination"`
}

// NewListResponse maps every item of result with fn.
func NewListResponse[S, T any](result domain.ListResult[S], fn func(S) T) ListResponse[T] {
	items := make([]T, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, fn(item))
	}
	return ListResponse[T]{
		Items: items,
		Pagination: PaginationResponse{
			Page:  result.Page,
			Limit: result.Limit,
			Total: result.TotalCount,
			Pages: result.Pages(),
		},
	}
}

// Identity is the mapper for items already shaped for the API.
func Identity[T any](v T) T { return v }

// --- Document list query ---

// DocumentListQuery holds query parameters shared by the document list endpoints.
type DocumentListQuery struct {
	Search          string `form:"search"`
	Status          string `form:"status"`
	WarehouseID     string `form:"warehouseId"`
	FromWarehouseID string `form:"fromWarehouseId"`
	ToWarehouseID   string `form:"toWarehouseId"`
	StartDate       string `form:"startDate"`
	EndDate         string `form:"endDate"`
	Page            int    `form:"page"`
	Limit           int    `form:"limit"`
	SortBy          string `form:"sortBy"`
	SortOrder       string `form:"sortOrder"`
}

// ToFilter parses the query into a domain filter. Bounds and defaults are
// applied later by the service.
func (q DocumentListQuery) ToFilter() (documents.ListFilter, error) {
	f := documents.ListFilter{
		ListFilter: domain.ListFilter{
			Search:    strings.TrimSpace(q.Search),
			Page:      q.Page,
			Limit:     q.Limit,
			SortBy:    q.SortBy,
			SortOrder: q.SortOrder,
		},
	}

	if q.Status != "" {
		status := entity.DocumentStatus(strings.ToUpper(q.Status))
		if !status.Valid() {
			return f, apperror.NewValidation("unknown status").
				WithDetail("field", "status").
				WithDetail("value", q.Status)
		}
		f.Status = &status
	}

	var err error
	if f.WarehouseID, err = ParseOptionalID("warehouseId", q.WarehouseID); err != nil {
		return f, err
	}
	if f.FromWarehouseID, err = ParseOptionalID("fromWarehouseId", q.FromWarehouseID); err != nil {
		return f, err
	}
	if f.ToWarehouseID, err = ParseOptionalID("toWarehouseId", q.ToWarehouseID); err != nil {
		return f, err
	}
	if f.DateFrom, err = ParseOptionalTime("startDate", q.StartDate, false); err != nil {
		return f, err
	}
	if f.DateTo, err = ParseOptionalTime("endDate", q.EndDate, true); err != nil {
		return f, err
	}
	return f, nil
}

// --- Parsing helpers ---

// ParseID parses a required id, naming field in the validation error.
func ParseID(field, value string) (id.ID, error) {
	parsed, err := id.Parse(strings.TrimSpace(value))
	if err != nil {
		return id.Nil(), apperror.NewValidation("invalid id format").
			WithDetail("field", field).
			WithDetail("value", value)
	}
	return parsed, nil
}

// ParseOptionalID parses an id, returning nil for an empty value.
func ParseOptionalID(field, value string) (*id.ID, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	parsed, err := ParseID(field, value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// ParseOptionalTime accepts RFC 3339 timestamps or plain dates. A plain date
// used as an upper bound covers the whole day.
func ParseOptionalTime(field, value string, endOfDay bool) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, apperror.NewValidation("invalid date").
			WithDetail("field", field).
			WithDetail("value", value)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// --- Lines ---

// LineRequest is one line of a document request.
type LineRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity"`
}

// ToLineItems parses request lines. Quantity and duplicate checks are left
// to the domain so that every entry point reports them the same way.
func ToLineItems(lines []LineRequest) ([]entity.LineItem, error) {
	out := make([]entity.LineItem, 0, len(lines))
	for i, line := range lines {
		productID, err := ParseID(fmt.Sprintf("items[%d].productId", i), line.ProductID)
		if err != nil {
			return nil, err
		}
		out = append(out, entity.LineItem{
			LineNo:    i + 1,
			ProductID: productID,
			Quantity:  line.Quantity,
		})
	}
	return out, nil
}

// --- Document header ---

// DocumentResponse contains fields shared by all document responses.
type DocumentResponse struct {
	ID        string     `json:"id"`
	Number    string     `json:"number"`
	Status    string     `json:"status"`
	Note      string     `json:"note,omitempty"`
	Version   int        `json:"version"`
	CreatedBy string     `json:"createdBy,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	AppliedAt *time.Time `json:"appliedAt,omitempty"`
}

// FromDocument creates DocumentResponse from entity.Document.
func FromDocument(d *entity.Document) DocumentResponse {
	return DocumentResponse{
		ID:        d.ID.String(),
		Number:    d.Number,
		Status:    string(d.Status),
		Note:      d.Note,
		Version:   d.Version,
		CreatedBy: d.CreatedBy,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		AppliedAt: d.AppliedAt,
	}
}

// LineResponse is one line of a document response.
type LineResponse struct {
	LineNo    int    `json:"lineNo"`
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

// FromLineItems converts document lines.
func FromLineItems(lines []entity.LineItem) []LineResponse {
	out := make([]LineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, LineResponse{LineNo: l.LineNo, ProductID: l.ProductID.String(), Quantity: l.Quantity})
	}
	return out
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
