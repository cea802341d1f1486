// Package entity provides core domain entities.
package entity

import (
	"time"

	"stockledger/internal/core/id"
)

// MovementType classifies a ledger entry by its originating document.
type MovementType string

const (
	MovementReceipt    MovementType = "RECEIPT"
	MovementDelivery   MovementType = "DELIVERY"
	MovementTransfer   MovementType = "TRANSFER"
	MovementAdjustment MovementType = "ADJUSTMENT"
)

// Valid reports whether t is a known movement type.
func (t MovementType) Valid() bool {
	switch t {
	case MovementReceipt, MovementDelivery, MovementTransfer, MovementAdjustment:
		return true
	}
	return false
}

// ParseMovementType accepts the upper-case wire form.
func ParseMovementType(s string) (MovementType, bool) {
	t := MovementType(s)
	return t, t.Valid()
}

// StockKey identifies one row of the stock index.
type StockKey struct {
	ProductID   id.ID `db:"product_id" json:"productId"`
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`
}

// Compare orders keys by warehouse, then product. Every multi-key lock
// acquisition follows this order.
func (k StockKey) Compare(other StockKey) int {
	if c := id.Compare(k.WarehouseID, other.WarehouseID); c != 0 {
		return c
	}
	return id.Compare(k.ProductID, other.ProductID)
}

// String renders the key for logs and map keys in tests.
func (k StockKey) String() string {
	return k.WarehouseID.String() + "/" + k.ProductID.String()
}

// StockLevel is the current quantity of a product in a warehouse.
// A missing row means quantity 0.
type StockLevel struct {
	ProductID   id.ID     `db:"product_id" json:"productId"`
	WarehouseID id.ID     `db:"warehouse_id" json:"warehouseId"`
	Quantity    int64     `db:"quantity" json:"quantity"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// Key returns the index key of the level.
func (s StockLevel) Key() StockKey {
	return StockKey{ProductID: s.ProductID, WarehouseID: s.WarehouseID}
}

// MovementEntry is an immutable ledger record of one quantity change.
type MovementEntry struct {
	ID            id.ID        `db:"id" json:"id"`
	ProductID     id.ID        `db:"product_id" json:"productId"`
	WarehouseID   id.ID        `db:"warehouse_id" json:"warehouseId"`
	MovementType  MovementType `db:"movement_type" json:"movementType"`
	Change        int64        `db:"change" json:"change"`
	PreviousStock int64        `db:"previous_stock" json:"previousStock"`
	NewStock      int64        `db:"new_stock" json:"newStock"`
	ReferenceID   string       `db:"reference_id" json:"referenceId"`
	Note          string       `db:"note" json:"note,omitempty"`
	CreatedBy     string       `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"createdAt"`
}

// Key returns the index key the entry belongs to.
func (m MovementEntry) Key() StockKey {
	return StockKey{ProductID: m.ProductID, WarehouseID: m.WarehouseID}
}

// Consistent reports whether NewStock == PreviousStock + Change.
func (m MovementEntry) Consistent() bool {
	return m.NewStock == m.PreviousStock+m.Change
}
