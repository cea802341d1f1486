package document_repo

import (
	"stockledger/internal/core/entity"
	"stockledger/internal/domain/documents/delivery"
	"stockledger/internal/infrastructure/storage/postgres"
)

// DeliveryRepo implements delivery.Repository.
type DeliveryRepo struct {
	*BaseDocumentRepo[*delivery.Delivery, entity.LineItem]
}

var _ delivery.Repository = (*DeliveryRepo)(nil)

// NewDeliveryRepo creates a new delivery repository.
func NewDeliveryRepo(txm *postgres.TxManager) *DeliveryRepo {
	return &DeliveryRepo{
		BaseDocumentRepo: newBaseDocumentRepo[*delivery.Delivery, entity.LineItem](txm, tableSpec{
			entity:         "delivery",
			table:          "doc_deliveries",
			linesTable:     "doc_delivery_lines",
			counterpartCol: "customer",
			primaryCol:     "warehouse_id",
		}, func() *delivery.Delivery { return &delivery.Delivery{} }),
	}
}
