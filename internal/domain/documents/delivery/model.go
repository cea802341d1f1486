// Package delivery implements the Delivery document: goods leaving one
// warehouse to a customer.
package delivery

import (
	"context"
	"fmt"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/posting"
)

// Delivery represents an outgoing goods document.
type Delivery struct {
	entity.Document

	WarehouseID id.ID  `db:"warehouse_id" json:"warehouseId"`
	Customer    string `db:"customer" json:"customer,omitempty"`

	Lines []entity.LineItem `db:"-" json:"items"`
}

// NewDelivery creates a new editable delivery.
func NewDelivery(warehouseID id.ID, customer string) *Delivery {
	return &Delivery{
		Document:    entity.NewDocument(),
		WarehouseID: warehouseID,
		Customer:    customer,
	}
}

// Validate implements entity.Validatable interface.
func (d *Delivery) Validate(ctx context.Context) error {
	if id.IsNil(d.WarehouseID) {
		return apperror.NewValidation("warehouse is required").WithDetail("field", "warehouseId")
	}
	return entity.ValidateLines(ctx, d.Lines)
}

func (d *Delivery) Warehouses() (id.ID, id.ID) { return d.WarehouseID, id.Nil() }
func (d *Delivery) Counterpart() string        { return d.Customer }

func (d *Delivery) PostingReference() string { return d.Number }

// GenerateMovements implements posting.Postable: one DELIVERY -qty per line.
func (d *Delivery) GenerateMovements(ctx context.Context) ([]posting.Movement, error) {
	movements := make([]posting.Movement, 0, len(d.Lines))
	for _, line := range d.Lines {
		movements = append(movements, posting.Movement{
			ProductID:   line.ProductID,
			WarehouseID: d.WarehouseID,
			Type:        entity.MovementDelivery,
			Delta:       -line.Quantity,
			Note:        fmt.Sprintf("Delivery %s", d.Number),
		})
	}
	return movements, nil
}
