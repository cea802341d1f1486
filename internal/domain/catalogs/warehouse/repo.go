// Package warehouse provides the Warehouse catalog.
// Warehouses are physical locations holding stock.
package warehouse

import (
	"context"

	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
)

// Repository defines the interface for Warehouse persistence.
type Repository interface {
	Create(ctx context.Context, w *entity.Warehouse) error
	GetByID(ctx context.Context, id id.ID) (*entity.Warehouse, error)
	GetByName(ctx context.Context, name string) (*entity.Warehouse, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[entity.Warehouse], error)

	// Exists reports whether a warehouse row with the id exists.
	Exists(ctx context.Context, id id.ID) (bool, error)
}
