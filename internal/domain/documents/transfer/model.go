// Package transfer implements the Transfer document: goods moving between
// two warehouses.
package transfer

import (
	"context"
	"fmt"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/posting"
)

// Transfer moves stock from one warehouse to another.
type Transfer struct {
	entity.Document

	FromWarehouseID id.ID `db:"from_warehouse_id" json:"fromWarehouseId"`
	ToWarehouseID   id.ID `db:"to_warehouse_id" json:"toWarehouseId"`

	Lines []entity.LineItem `db:"-" json:"items"`
}

// NewTransfer creates a new editable transfer.
func NewTransfer(from, to id.ID) *Transfer {
	return &Transfer{
		Document:        entity.NewDocument(),
		FromWarehouseID: from,
		ToWarehouseID:   to,
	}
}

// Validate implements entity.Validatable interface.
func (t *Transfer) Validate(ctx context.Context) error {
	if id.IsNil(t.FromWarehouseID) {
		return apperror.NewValidation("source warehouse is required").WithDetail("field", "fromWarehouseId")
	}
	if id.IsNil(t.ToWarehouseID) {
		return apperror.NewValidation("destination warehouse is required").WithDetail("field", "toWarehouseId")
	}
	if t.FromWarehouseID == t.ToWarehouseID {
		return apperror.NewValidation("source and destination warehouses must differ").
			WithDetail("field", "toWarehouseId")
	}
	return entity.ValidateLines(ctx, t.Lines)
}

func (t *Transfer) Warehouses() (id.ID, id.ID) { return t.FromWarehouseID, t.ToWarehouseID }
func (t *Transfer) Counterpart() string        { return "" }

func (t *Transfer) PostingReference() string { return t.Number }

// GenerateMovements implements posting.Postable. Each line yields a debit of
// the source followed by a credit of the destination.
func (t *Transfer) GenerateMovements(ctx context.Context) ([]posting.Movement, error) {
	note := fmt.Sprintf("Transfer %s", t.Number)
	movements := make([]posting.Movement, 0, 2*len(t.Lines))
	for _, line := range t.Lines {
		movements = append(movements,
			posting.Movement{
				ProductID:   line.ProductID,
				WarehouseID: t.FromWarehouseID,
				Type:        entity.MovementTransfer,
				Delta:       -line.Quantity,
				Note:        note,
			},
			posting.Movement{
				ProductID:   line.ProductID,
				WarehouseID: t.ToWarehouseID,
				Type:        entity.MovementTransfer,
				Delta:       line.Quantity,
				Note:        note,
			},
		)
	}
	return movements, nil
}
