// Package documents holds helpers shared by the stock document services.
package documents

import (
	"context"
	"fmt"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/catalogs/warehouse"
)

// CatalogResolver checks that documents reference existing catalog rows.
type CatalogResolver struct {
	warehouses warehouse.Repository
	products   product.Repository
}

// NewCatalogResolver creates a new CatalogResolver.
func NewCatalogResolver(warehouses warehouse.Repository, products product.Repository) *CatalogResolver {
	return &CatalogResolver{
		warehouses: warehouses,
		products:   products,
	}
}

// EnsureWarehouse returns NotFound for an unknown warehouse.
func (r *CatalogResolver) EnsureWarehouse(ctx context.Context, warehouseID id.ID) error {
	if id.IsNil(warehouseID) {
		return apperror.NewValidation("warehouse is required").WithDetail("field", "warehouseId")
	}
	ok, err := r.warehouses.Exists(ctx, warehouseID)
	if err != nil {
		return fmt.Errorf("check warehouse: %w", err)
	}
	if !ok {
		return apperror.NewNotFound("warehouse", warehouseID.String())
	}
	return nil
}

// EnsureProducts returns NotFound naming the first unknown product of lines.
func (r *CatalogResolver) EnsureProducts(ctx context.Context, lines []entity.LineItem) error {
	missing, err := r.products.MissingIDs(ctx, entity.ProductIDs(lines))
	if err != nil {
		return fmt.Errorf("check products: %w", err)
	}
	if len(missing) > 0 {
		return apperror.NewNotFound("product", missing[0].String()).
			WithDetail("missing", len(missing))
	}
	return nil
}
