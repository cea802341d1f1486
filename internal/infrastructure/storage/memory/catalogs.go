package memory

import (
	"context"
	"slices"
	"strings"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/catalogs/product"
)

type productRepo Store

func (r *productRepo) Create(ctx context.Context, p *entity.Product) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.products {
		if existing.SKU == p.SKU {
			return apperror.NewDuplicate("product", "sku", p.SKU)
		}
	}
	s.products[p.ID] = *p
	s.productOrder = append(s.productOrder, p.ID)
	return nil
}

func (r *productRepo) GetByID(ctx context.Context, productID id.ID) (*entity.Product, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return &p, nil
}

func (r *productRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.SKU == sku {
			return &p, nil
		}
	}
	return nil, apperror.NewNotFound("product", sku)
}

func (r *productRepo) List(ctx context.Context, filter product.Filter) (domain.ListResult[entity.Product], error) {
	s := (*Store)(r)
	q := strings.ToLower(filter.Search)

	s.mu.RLock()
	items := make([]entity.Product, 0, len(s.productOrder))
	for _, pid := range s.productOrder {
		p := s.products[pid]
		if filter.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *filter.CategoryID) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.SKU), q) {
			continue
		}
		items = append(items, p)
	}
	s.mu.RUnlock()

	slices.SortStableFunc(items, func(a, b entity.Product) int {
		var c int
		switch filter.SortBy {
		case "sku":
			c = strings.Compare(a.SKU, b.SKU)
		case "createdAt":
			c = a.CreatedAt.Compare(b.CreatedAt)
		default:
			c = strings.Compare(a.Name, b.Name)
		}
		if filter.SortOrder == domain.SortDesc {
			return -c
		}
		return c
	})
	return paginate(items, filter.Page, filter.Limit), nil
}

func (r *productRepo) MissingIDs(ctx context.Context, ids []id.ID) ([]id.ID, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var missing []id.ID
	for _, pid := range ids {
		if _, ok := s.products[pid]; !ok {
			missing = append(missing, pid)
		}
	}
	return missing, nil
}

type warehouseRepo Store

func (r *warehouseRepo) Create(ctx context.Context, w *entity.Warehouse) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.warehouses {
		if existing.Name == w.Name {
			return apperror.NewDuplicate("warehouse", "name", w.Name)
		}
	}
	s.warehouses[w.ID] = *w
	s.warehouseOrder = append(s.warehouseOrder, w.ID)
	return nil
}

func (r *warehouseRepo) GetByID(ctx context.Context, warehouseID id.ID) (*entity.Warehouse, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.warehouses[warehouseID]
	if !ok {
		return nil, apperror.NewNotFound("warehouse", warehouseID.String())
	}
	return &w, nil
}

func (r *warehouseRepo) GetByName(ctx context.Context, name string) (*entity.Warehouse, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, w := range s.warehouses {
		if w.Name == name {
			return &w, nil
		}
	}
	return nil, apperror.NewNotFound("warehouse", name)
}

func (r *warehouseRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[entity.Warehouse], error) {
	s := (*Store)(r)
	q := strings.ToLower(filter.Search)

	s.mu.RLock()
	items := make([]entity.Warehouse, 0, len(s.warehouseOrder))
	for _, wid := range s.warehouseOrder {
		w := s.warehouses[wid]
		if q != "" && !strings.Contains(strings.ToLower(w.Name), q) && !strings.Contains(strings.ToLower(w.Code), q) {
			continue
		}
		items = append(items, w)
	}
	s.mu.RUnlock()

	slices.SortStableFunc(items, func(a, b entity.Warehouse) int {
		var c int
		switch filter.SortBy {
		case "code":
			c = strings.Compare(a.Code, b.Code)
		case "createdAt":
			c = a.CreatedAt.Compare(b.CreatedAt)
		default:
			c = strings.Compare(a.Name, b.Name)
		}
		if filter.SortOrder == domain.SortDesc {
			return -c
		}
		return c
	})
	return paginate(items, filter.Page, filter.Limit), nil
}

func (r *warehouseRepo) Exists(ctx context.Context, warehouseID id.ID) (bool, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.warehouses[warehouseID]
	return ok, nil
}
