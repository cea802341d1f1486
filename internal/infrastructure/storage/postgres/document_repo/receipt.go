package document_repo

import (
	"stockledger/internal/core/entity"
	"stockledger/internal/domain/documents/receipt"
	"stockledger/internal/infrastructure/storage/postgres"
)

// ReceiptRepo implements receipt.Repository.
type ReceiptRepo struct {
	*BaseDocumentRepo[*receipt.Receipt, entity.LineItem]
}

var _ receipt.Repository = (*ReceiptRepo)(nil)

// NewReceiptRepo creates a new receipt repository.
func NewReceiptRepo(txm *postgres.TxManager) *ReceiptRepo {
	return &ReceiptRepo{
		BaseDocumentRepo: newBaseDocumentRepo[*receipt.Receipt, entity.LineItem](txm, tableSpec{
			entity:         "receipt",
			table:          "doc_receipts",
			linesTable:     "doc_receipt_lines",
			counterpartCol: "supplier",
			primaryCol:     "warehouse_id",
		}, func() *receipt.Receipt { return &receipt.Receipt{} }),
	}
}
