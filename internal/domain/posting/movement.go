package posting

import (
	"context"
	"fmt"
	"math"
	"slices"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
)

// Movement is a single requested change to one stock key.
// Delta is used by RECEIPT, DELIVERY and TRANSFER; Target by ADJUSTMENT.
type Movement struct {
	ProductID   id.ID
	WarehouseID id.ID
	Type        entity.MovementType
	Delta       int64
	Target      int64
	Note        string
}

// Key returns the stock key the movement touches.
func (m Movement) Key() entity.StockKey {
	return entity.StockKey{ProductID: m.ProductID, WarehouseID: m.WarehouseID}
}

// Validate checks the shape of a movement before any stock is read.
func (m Movement) Validate() error {
	if id.IsNil(m.ProductID) || id.IsNil(m.WarehouseID) {
		return apperror.NewValidation("movement requires product and warehouse")
	}
	switch m.Type {
	case entity.MovementReceipt:
		if m.Delta < 0 {
			return apperror.NewValidation("receipt movement must be positive").WithDetail("delta", m.Delta)
		}
	case entity.MovementDelivery:
		if m.Delta > 0 || m.Delta == math.MinInt64 {
			return apperror.NewValidation("delivery movement must be negative").WithDetail("delta", m.Delta)
		}
	case entity.MovementTransfer:
		if m.Delta == math.MinInt64 {
			return apperror.NewValidation("transfer movement out of range").WithDetail("delta", m.Delta)
		}
	case entity.MovementAdjustment:
		if m.Target < 0 {
			return apperror.NewValidation("adjustment target cannot be negative").WithDetail("quantity", m.Target)
		}
	default:
		return apperror.NewValidation("unknown movement type").WithDetail("movementType", string(m.Type))
	}
	return nil
}

// Batch is the set of movements produced by one document. The batch is applied
// atomically: either every movement is written or none is.
type Batch struct {
	// ReferenceID is the business id of the originating document
	ReferenceID string
	// Actor is recorded on every ledger entry
	Actor     string
	Movements []Movement
}

// Keys returns the distinct keys of the batch in global lock order.
func (b Batch) Keys() []entity.StockKey {
	seen := make(map[entity.StockKey]struct{}, len(b.Movements))
	keys := make([]entity.StockKey, 0, len(b.Movements))
	for _, m := range b.Movements {
		k := m.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	slices.SortFunc(keys, entity.StockKey.Compare)
	return keys
}

func (b Batch) validate() error {
	if len(b.Movements) == 0 {
		return apperror.NewValidation("nothing to apply")
	}
	if b.ReferenceID == "" {
		return apperror.NewValidation("movement reference is required")
	}
	for i, m := range b.Movements {
		if err := m.Validate(); err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				return appErr.WithDetail("movement", i)
			}
			return fmt.Errorf("movement %d: %w", i, err)
		}
	}
	return nil
}

// Postable is implemented by documents that produce stock movements.
type Postable interface {
	// PostingReference returns the business id written to the ledger.
	PostingReference() string

	// GenerateMovements returns the document's movements in application order.
	GenerateMovements(ctx context.Context) ([]Movement, error)
}
