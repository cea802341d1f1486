// Package receipt implements the Receipt document: goods arriving into one
// warehouse from a supplier.
package receipt

import (
	"context"
	"fmt"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/posting"
)

// Receipt represents an incoming goods document.
type Receipt struct {
	entity.Document

	WarehouseID id.ID  `db:"warehouse_id" json:"warehouseId"`
	Supplier    string `db:"supplier" json:"supplier,omitempty"`

	Lines []entity.LineItem `db:"-" json:"items"`
}

// NewReceipt creates a new editable receipt.
func NewReceipt(warehouseID id.ID, supplier string) *Receipt {
	return &Receipt{
		Document:    entity.NewDocument(),
		WarehouseID: warehouseID,
		Supplier:    supplier,
	}
}

// Validate implements entity.Validatable interface.
func (r *Receipt) Validate(ctx context.Context) error {
	if id.IsNil(r.WarehouseID) {
		return apperror.NewValidation("warehouse is required").WithDetail("field", "warehouseId")
	}
	return entity.ValidateLines(ctx, r.Lines)
}

func (r *Receipt) Warehouses() (id.ID, id.ID) { return r.WarehouseID, id.Nil() }
func (r *Receipt) Counterpart() string        { return r.Supplier }

// PostingReference implements posting.Postable.
func (r *Receipt) PostingReference() string { return r.Number }

// GenerateMovements implements posting.Postable: one RECEIPT +qty per line.
func (r *Receipt) GenerateMovements(ctx context.Context) ([]posting.Movement, error) {
	movements := make([]posting.Movement, 0, len(r.Lines))
	for _, line := range r.Lines {
		movements = append(movements, posting.Movement{
			ProductID:   line.ProductID,
			WarehouseID: r.WarehouseID,
			Type:        entity.MovementReceipt,
			Delta:       line.Quantity,
			Note:        fmt.Sprintf("Receipt %s", r.Number),
		})
	}
	return movements, nil
}
