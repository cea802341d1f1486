package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/registers/stock"
)

type stockRepo Store

func (r *stockRepo) GetLevel(ctx context.Context, key entity.StockKey) (int64, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.levels[key].Quantity, nil
}

func (r *stockRepo) GetLevelsForUpdate(ctx context.Context, keys []entity.StockKey) (map[entity.StockKey]int64, error) {
	s := (*Store)(r)
	for _, k := range keys {
		if err := s.lock(ctx, "stock:"+k.String()); err != nil {
			return nil, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[entity.StockKey]int64, len(keys))
	for _, k := range keys {
		out[k] = s.levels[k].Quantity
	}
	return out, nil
}

func (r *stockRepo) UpsertLevels(ctx context.Context, levels []entity.StockLevel) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, lvl := range levels {
		if lvl.Quantity < 0 {
			return fmt.Errorf("memory: negative stock level for %s", lvl.Key())
		}
		key := lvl.Key()
		prev, existed := s.levels[key]
		s.levels[key] = lvl
		onRollback(ctx, func() {
			if existed {
				s.levels[key] = prev
			} else {
				delete(s.levels, key)
			}
		})
	}
	return nil
}

func (r *stockRepo) ListLevels(ctx context.Context, filter stock.LevelFilter) ([]stock.LevelView, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]stock.LevelView, 0, len(s.levels))
	for key, lvl := range s.levels {
		if filter.ProductID != nil && key.ProductID != *filter.ProductID {
			continue
		}
		if filter.WarehouseID != nil && key.WarehouseID != *filter.WarehouseID {
			continue
		}
		if filter.ExcludeZero && lvl.Quantity == 0 {
			continue
		}
		p := s.products[key.ProductID]
		out = append(out, stock.LevelView{
			StockLevel:    lvl,
			ProductSKU:    p.SKU,
			ProductName:   p.Name,
			Unit:          p.Unit,
			ReorderLevel:  p.ReorderLevel,
			WarehouseName: s.warehouses[key.WarehouseID].Name,
		})
	}
	slices.SortFunc(out, func(a, b stock.LevelView) int {
		if c := strings.Compare(a.WarehouseName, b.WarehouseName); c != 0 {
			return c
		}
		if c := strings.Compare(a.ProductName, b.ProductName); c != 0 {
			return c
		}
		return a.Key().Compare(b.Key())
	})
	return out, nil
}

func (r *stockRepo) AppendMovements(ctx context.Context, entries []entity.MovementEntry) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		if !e.Consistent() {
			return fmt.Errorf("memory: inconsistent ledger entry %s", e.ID)
		}
	}
	ids := make(map[id.ID]struct{}, len(entries))
	for _, e := range entries {
		s.movementN[e.ID] = len(s.movements)
		s.movements = append(s.movements, e)
		ids[e.ID] = struct{}{}
	}
	onRollback(ctx, func() { s.removeMovements(ids) })
	return nil
}

// removeMovements drops entries of a rolled-back transaction. Caller holds mu.
func (s *Store) removeMovements(ids map[id.ID]struct{}) {
	s.movements = slices.DeleteFunc(s.movements, func(e entity.MovementEntry) bool {
		_, ok := ids[e.ID]
		return ok
	})
	clear(s.movementN)
	for i, e := range s.movements {
		s.movementN[e.ID] = i
	}
}

func (r *stockRepo) QueryMovements(ctx context.Context, filter stock.MovementFilter) (domain.ListResult[stock.MovementView], error) {
	s := (*Store)(r)

	type row struct {
		seq  int
		view stock.MovementView
	}

	s.mu.RLock()
	rows := make([]row, 0)
	for i, e := range s.movements {
		if matchMovement(e, filter) {
			rows = append(rows, row{seq: i, view: s.view(e)})
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(rows, func(a, b row) int {
		var c int
		switch filter.SortBy {
		case "change":
			c = cmp.Compare(a.view.Change, b.view.Change)
		case "newStock":
			c = cmp.Compare(a.view.NewStock, b.view.NewStock)
		case "previousStock":
			c = cmp.Compare(a.view.PreviousStock, b.view.PreviousStock)
		default:
			c = a.view.CreatedAt.Compare(b.view.CreatedAt)
		}
		if c == 0 {
			c = cmp.Compare(a.seq, b.seq)
		}
		if filter.SortOrder == domain.SortDesc {
			return -c
		}
		return c
	})

	items := make([]stock.MovementView, len(rows))
	for i, rw := range rows {
		items[i] = rw.view
	}
	return paginate(items, filter.Page, filter.Limit), nil
}

func (r *stockRepo) GetMovement(ctx context.Context, movementID id.ID) (*stock.MovementView, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.movementN[movementID]
	if !ok {
		return nil, apperror.NewNotFound("movement", movementID.String())
	}
	v := s.view(s.movements[i])
	return &v, nil
}

// view joins catalog names. Caller holds mu.
func (s *Store) view(e entity.MovementEntry) stock.MovementView {
	p := s.products[e.ProductID]
	return stock.MovementView{
		MovementEntry: e,
		ProductSKU:    p.SKU,
		ProductName:   p.Name,
		WarehouseName: s.warehouses[e.WarehouseID].Name,
	}
}

func matchMovement(e entity.MovementEntry, f stock.MovementFilter) bool {
	if f.ProductID != nil && e.ProductID != *f.ProductID {
		return false
	}
	if f.WarehouseID != nil && e.WarehouseID != *f.WarehouseID {
		return false
	}
	if f.MovementType != nil && e.MovementType != *f.MovementType {
		return false
	}
	if f.ReferenceID != "" && e.ReferenceID != f.ReferenceID {
		return false
	}
	if f.StartDate != nil && e.CreatedAt.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && e.CreatedAt.After(*f.EndDate) {
		return false
	}
	return true
}
