package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/catalogs/warehouse"
	"stockledger/internal/infrastructure/storage/postgres"
)

// WarehouseRepo implements warehouse.Repository.
type WarehouseRepo struct {
	*BaseCatalogRepo[entity.Warehouse]
}

var _ warehouse.Repository = (*WarehouseRepo)(nil)

// NewWarehouseRepo creates a new warehouse repository.
func NewWarehouseRepo(txm *postgres.TxManager) *WarehouseRepo {
	return &WarehouseRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[entity.Warehouse](txm, "warehouse", "warehouses", warehouse.SortFields, "name", "code"),
	}
}

func (r *WarehouseRepo) Create(ctx context.Context, w *entity.Warehouse) error {
	return r.BaseCatalogRepo.Create(ctx, w, "name", w.Name)
}

func (r *WarehouseRepo) GetByName(ctx context.Context, name string) (*entity.Warehouse, error) {
	return r.getBy(ctx, squirrel.Eq{"name": name}, name)
}

func (r *WarehouseRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[entity.Warehouse], error) {
	return r.list(ctx, filter)
}

// Exists reports whether the warehouse row exists.
func (r *WarehouseRepo) Exists(ctx context.Context, warehouseID id.ID) (bool, error) {
	var exists bool
	err := r.txm.GetQuerier(ctx).
		QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM warehouses WHERE id = $1)", warehouseID).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("warehouse exists: %w", err)
	}
	return exists, nil
}
