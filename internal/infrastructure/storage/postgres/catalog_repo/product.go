package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/infrastructure/storage/postgres"
)

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[entity.Product]
}

var _ product.Repository = (*ProductRepo)(nil)

// NewProductRepo creates a new product repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[entity.Product](txm, "product", "products", product.SortFields, "sku", "name"),
	}
}

func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	return r.BaseCatalogRepo.Create(ctx, p, "sku", p.SKU)
}

// GetBySKU retrieves a product by its stock keeping unit.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	return r.getBy(ctx, squirrel.Eq{"sku": sku}, sku)
}

func (r *ProductRepo) List(ctx context.Context, filter product.Filter) (domain.ListResult[entity.Product], error) {
	var extra []squirrel.Sqlizer
	if filter.CategoryID != nil {
		extra = append(extra, squirrel.Eq{"category_id": *filter.CategoryID})
	}
	return r.list(ctx, filter.ListFilter, extra...)
}

// MissingIDs returns the ids that have no product row.
func (r *ProductRepo) MissingIDs(ctx context.Context, ids []id.ID) ([]id.ID, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	sql, args, err := r.Builder().Select("id").From(r.tableName).Where(squirrel.Eq{"id": ids}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var found []id.ID
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &found, sql, args...); err != nil {
		return nil, fmt.Errorf("select product ids: %w", err)
	}

	present := make(map[id.ID]struct{}, len(found))
	for _, f := range found {
		present[f] = struct{}{}
	}
	var missing []id.ID
	for _, want := range ids {
		if _, ok := present[want]; !ok {
			missing = append(missing, want)
		}
	}
	return missing, nil
}
