// Package product provides the read-mostly Product catalog used by stock documents.
package product

import (
	"context"

	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
)

// Filter narrows product listings.
type Filter struct {
	domain.ListFilter

	CategoryID *id.ID
}

// Repository defines the interface for Product persistence.
type Repository interface {
	Create(ctx context.Context, p *entity.Product) error
	GetByID(ctx context.Context, id id.ID) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	List(ctx context.Context, filter Filter) (domain.ListResult[entity.Product], error)

	// MissingIDs returns the subset of ids with no product row.
	MissingIDs(ctx context.Context, ids []id.ID) ([]id.ID, error)
}
