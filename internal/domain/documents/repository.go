package documents

import (
	"context"
	"strings"

	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
)

// SortFields lists sortable document fields shared by all document types.
var SortFields = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"appliedAt": "applied_at",
	"number":    "number",
	"status":    "status",
}

// Record is implemented by every stock document type.
type Record interface {
	Header() *entity.Document

	// Warehouses returns the primary warehouse and, for transfers, the destination.
	Warehouses() (primary, secondary id.ID)

	// Counterpart is the supplier, customer or reason matched by search.
	Counterpart() string
}

// ListFilter filters document lists.
type ListFilter struct {
	domain.ListFilter

	Status *entity.DocumentStatus

	// WarehouseID matches either warehouse of a document.
	WarehouseID *id.ID

	// FromWarehouseID and ToWarehouseID apply to transfers only.
	FromWarehouseID *id.ID
	ToWarehouseID   *id.ID
}

// Normalize applies list defaults.
func (f *ListFilter) Normalize() error {
	return f.ListFilter.Normalize("createdAt", SortFields)
}

// Match evaluates the filter against a record in memory.
func (f ListFilter) Match(r Record) bool {
	h := r.Header()
	if f.Status != nil && h.Status != *f.Status {
		return false
	}
	primary, secondary := r.Warehouses()
	if f.WarehouseID != nil && primary != *f.WarehouseID && secondary != *f.WarehouseID {
		return false
	}
	if f.FromWarehouseID != nil && primary != *f.FromWarehouseID {
		return false
	}
	if f.ToWarehouseID != nil && secondary != *f.ToWarehouseID {
		return false
	}
	if f.DateFrom != nil && h.CreatedAt.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && h.CreatedAt.After(*f.DateTo) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(h.Number), q) &&
			!strings.Contains(strings.ToLower(r.Counterpart()), q) {
			return false
		}
	}
	return true
}

// Repository is the storage contract shared by document types.
// T is the document pointer type, L its line type.
type Repository[T Record, L any] interface {
	Create(ctx context.Context, doc T) error
	GetByID(ctx context.Context, id id.ID) (T, error)

	// GetForUpdate reads the document header under a row lock held until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id id.ID) (T, error)

	// Update writes header fields; fails with ConcurrentModification when the
	// stored version differs from doc.Version-1.
	Update(ctx context.Context, doc T) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[T], error)

	// SaveLines replaces all lines of a document.
	SaveLines(ctx context.Context, docID id.ID, lines []L) error
	GetLines(ctx context.Context, docID id.ID) ([]L, error)
}
