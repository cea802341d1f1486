package transfer

import (
	"stockledger/internal/core/entity"
	"stockledger/internal/domain/documents"
)

// Repository defines persistence for transfers.
type Repository interface {
	documents.Repository[*Transfer, entity.LineItem]
}
