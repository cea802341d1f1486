// Package adjustment implements the Adjustment document: a manual correction
// of stock to a counted quantity. Adjustments are applied on creation.
package adjustment

import (
	"context"
	"fmt"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/posting"
)

// Reason classifies an adjustment.
type Reason string

const (
	ReasonDamaged         Reason = "DAMAGED"
	ReasonLost            Reason = "LOST"
	ReasonFound           Reason = "FOUND"
	ReasonExpired         Reason = "EXPIRED"
	ReasonCountCorrection Reason = "COUNT_CORRECTION"
	ReasonOther           Reason = "OTHER"
)

// Valid reports whether r is a known reason.
func (r Reason) Valid() bool {
	switch r {
	case ReasonDamaged, ReasonLost, ReasonFound, ReasonExpired, ReasonCountCorrection, ReasonOther:
		return true
	}
	return false
}

// Line sets one product to an absolute quantity. PreviousStock, NewStock and
// Change are filled from the locked read when the adjustment is applied.
type Line struct {
	LineNo        int   `db:"line_no" json:"lineNo"`
	ProductID     id.ID `db:"product_id" json:"productId"`
	Quantity      int64 `db:"quantity" json:"quantity"`
	PreviousStock int64 `db:"previous_stock" json:"previousStock"`
	NewStock      int64 `db:"new_stock" json:"newStock"`
	Change        int64 `db:"change" json:"change"`
}

// Adjustment corrects stock levels in one warehouse.
type Adjustment struct {
	entity.Document

	WarehouseID id.ID  `db:"warehouse_id" json:"warehouseId"`
	Reason      Reason `db:"reason" json:"reason"`

	Lines []Line `db:"-" json:"items"`
}

// NewAdjustment creates a new adjustment; it becomes APPLIED on creation.
func NewAdjustment(warehouseID id.ID, reason Reason) *Adjustment {
	return &Adjustment{
		Document:    entity.NewDocument(),
		WarehouseID: warehouseID,
		Reason:      reason,
	}
}

// Validate implements entity.Validatable interface.
func (a *Adjustment) Validate(ctx context.Context) error {
	if id.IsNil(a.WarehouseID) {
		return apperror.NewValidation("warehouse is required").WithDetail("field", "warehouseId")
	}
	if !a.Reason.Valid() {
		return apperror.NewValidation("invalid adjustment reason").
			WithDetail("field", "reason").
			WithDetail("value", string(a.Reason))
	}
	if len(a.Lines) == 0 {
		return apperror.NewValidation("at least one line item is required").WithDetail("field", "items")
	}

	seen := make(map[id.ID]struct{}, len(a.Lines))
	for i := range a.Lines {
		line := &a.Lines[i]
		line.LineNo = i + 1
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", fmt.Sprintf("items[%d].productId", i))
		}
		if line.Quantity < 0 {
			return apperror.NewValidation("quantity cannot be negative").
				WithDetail("field", fmt.Sprintf("items[%d].quantity", i)).
				WithDetail("quantity", line.Quantity)
		}
		if _, dup := seen[line.ProductID]; dup {
			return apperror.NewValidation("product listed more than once").
				WithDetail("field", fmt.Sprintf("items[%d].productId", i))
		}
		seen[line.ProductID] = struct{}{}
	}
	return nil
}

// LineItems returns the lines as plain product/quantity items.
func (a *Adjustment) LineItems() []entity.LineItem {
	items := make([]entity.LineItem, len(a.Lines))
	for i, l := range a.Lines {
		items[i] = entity.LineItem{LineNo: l.LineNo, ProductID: l.ProductID, Quantity: l.Quantity}
	}
	return items
}

func (a *Adjustment) Warehouses() (id.ID, id.ID) { return a.WarehouseID, id.Nil() }
func (a *Adjustment) Counterpart() string        { return string(a.Reason) }

func (a *Adjustment) PostingReference() string { return a.Number }

// GenerateMovements implements posting.Postable: one ADJUSTMENT to the target per line.
func (a *Adjustment) GenerateMovements(ctx context.Context) ([]posting.Movement, error) {
	note := fmt.Sprintf("Adjustment %s - %s", a.Number, a.Reason)
	if a.Note != "" {
		note += ": " + a.Note
	}
	movements := make([]posting.Movement, 0, len(a.Lines))
	for _, line := range a.Lines {
		movements = append(movements, posting.Movement{
			ProductID:   line.ProductID,
			WarehouseID: a.WarehouseID,
			Type:        entity.MovementAdjustment,
			Target:      line.Quantity,
			Note:        note,
		})
	}
	return movements, nil
}

// recordEntries copies the ledger outcome onto the lines. entries are in line order.
func (a *Adjustment) recordEntries(entries []entity.MovementEntry) {
	for i := range a.Lines {
		if i >= len(entries) {
			return
		}
		a.Lines[i].PreviousStock = entries[i].PreviousStock
		a.Lines[i].NewStock = entries[i].NewStock
		a.Lines[i].Change = entries[i].Change
	}
}
