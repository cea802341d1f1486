package delivery

import (
	"stockledger/internal/core/entity"
	"stockledger/internal/domain/documents"
)

// Repository defines persistence for deliveries.
type Repository interface {
	documents.Repository[*Delivery, entity.LineItem]
}
