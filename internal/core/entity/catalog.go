package entity

import (
	"context"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
)

// Product is catalog reference data. Read-only to the ledger.
type Product struct {
	ID           id.ID     `db:"id" json:"id"`
	SKU          string    `db:"sku" json:"sku"`
	Name         string    `db:"name" json:"name"`
	CategoryID   *id.ID    `db:"category_id" json:"categoryId,omitempty"`
	Unit         string    `db:"unit" json:"unit"`
	ReorderLevel int64     `db:"reorder_level" json:"reorderLevel"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// NewProduct creates a product with a generated id.
func NewProduct(sku, name, unit string) *Product {
	return &Product{
		ID:        id.New(),
		SKU:       sku,
		Name:      name,
		Unit:      unit,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate implements Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if p.SKU == "" {
		return apperror.NewValidation("sku is required").WithDetail("field", "sku")
	}
	if p.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if p.ReorderLevel < 0 {
		return apperror.NewValidation("reorder level cannot be negative").WithDetail("field", "reorderLevel")
	}
	return nil
}

// Warehouse is catalog reference data. Read-only to the ledger.
type Warehouse struct {
	ID        id.ID     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code,omitempty"`
	Address   string    `db:"address" json:"address,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewWarehouse creates a warehouse with a generated id.
func NewWarehouse(name, code string) *Warehouse {
	return &Warehouse{
		ID:        id.New(),
		Name:      name,
		Code:      code,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate implements Validatable interface.
func (w *Warehouse) Validate(ctx context.Context) error {
	if w.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	return nil
}
