package receipt

import (
	"stockledger/internal/core/entity"
	"stockledger/internal/domain/documents"
)

// Repository defines persistence for receipts.
type Repository interface {
	documents.Repository[*Receipt, entity.LineItem]
}
