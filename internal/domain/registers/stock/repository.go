// Package stock provides the stock index and the movement ledger.
package stock

import (
	"context"
	"time"

	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
)

// Repository defines operations for the stock index and the ledger.
// Write methods must run inside the caller's transaction.
type Repository interface {
	// Stock index

	// GetLevel returns the current quantity, 0 when no row exists.
	GetLevel(ctx context.Context, key entity.StockKey) (int64, error)

	// GetLevelsForUpdate row-locks keys in the order given and returns their
	// quantities (0 for absent rows). Callers pass keys sorted by StockKey.Compare.
	GetLevelsForUpdate(ctx context.Context, keys []entity.StockKey) (map[entity.StockKey]int64, error)

	// UpsertLevels writes absolute quantities, creating rows on first write.
	UpsertLevels(ctx context.Context, levels []entity.StockLevel) error

	// ListLevels returns current levels joined with catalog names.
	ListLevels(ctx context.Context, filter LevelFilter) ([]LevelView, error)

	// Ledger

	// AppendMovements inserts ledger entries. Entries are never updated or deleted.
	AppendMovements(ctx context.Context, entries []entity.MovementEntry) error

	QueryMovements(ctx context.Context, filter MovementFilter) (domain.ListResult[MovementView], error)
	GetMovement(ctx context.Context, movementID id.ID) (*MovementView, error)
}

// LevelFilter for filtering stock index queries.
type LevelFilter struct {
	ProductID   *id.ID
	WarehouseID *id.ID
	ExcludeZero bool
}

// MovementFilter for filtering ledger queries.
type MovementFilter struct {
	ProductID    *id.ID
	WarehouseID  *id.ID
	MovementType *entity.MovementType
	ReferenceID  string
	StartDate    *time.Time
	EndDate      *time.Time

	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// MovementSortFields maps ledger sort keys to storage columns.
var MovementSortFields = map[string]string{
	"createdAt":     "created_at",
	"change":        "change",
	"newStock":      "new_stock",
	"previousStock": "previous_stock",
}

// Normalize applies the ledger defaults: page 1, limit 50, createdAt desc.
func (f *MovementFilter) Normalize() error {
	lf := domain.ListFilter{
		Page:      f.Page,
		Limit:     f.Limit,
		SortBy:    f.SortBy,
		SortOrder: f.SortOrder,
		DateFrom:  f.StartDate,
		DateTo:    f.EndDate,
	}
	if err := lf.Normalize("createdAt", MovementSortFields); err != nil {
		return err
	}
	f.Page, f.Limit, f.SortBy, f.SortOrder = lf.Page, lf.Limit, lf.SortBy, lf.SortOrder
	return nil
}

// Offset returns the row offset of the current page.
func (f MovementFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// SortColumn returns the storage column for SortBy.
func (f MovementFilter) SortColumn() string {
	if col, ok := MovementSortFields[f.SortBy]; ok {
		return col
	}
	return "created_at"
}

// MovementView is a ledger entry denormalised for reporting.
type MovementView struct {
	entity.MovementEntry

	ProductSKU    string `db:"product_sku" json:"productSku"`
	ProductName   string `db:"product_name" json:"productName"`
	WarehouseName string `db:"warehouse_name" json:"warehouseName"`
}

// LevelView is a stock level with catalog data.
type LevelView struct {
	entity.StockLevel

	ProductSKU    string `db:"product_sku" json:"productSku"`
	ProductName   string `db:"product_name" json:"productName"`
	Unit          string `db:"unit" json:"unit"`
	ReorderLevel  int64  `db:"reorder_level" json:"reorderLevel"`
	WarehouseName string `db:"warehouse_name" json:"warehouseName"`
}

// LowStock reports whether the level is at or below the product reorder level.
func (v LevelView) LowStock() bool {
	return v.ReorderLevel > 0 && v.Quantity <= v.ReorderLevel
}
