package document_repo

import (
	"stockledger/internal/core/entity"
	"stockledger/internal/domain/documents/transfer"
	"stockledger/internal/infrastructure/storage/postgres"
)

// TransferRepo implements transfer.Repository.
type TransferRepo struct {
	*BaseDocumentRepo[*transfer.Transfer, entity.LineItem]
}

var _ transfer.Repository = (*TransferRepo)(nil)

// NewTransferRepo creates a new transfer repository.
func NewTransferRepo(txm *postgres.TxManager) *TransferRepo {
	return &TransferRepo{
		BaseDocumentRepo: newBaseDocumentRepo[*transfer.Transfer, entity.LineItem](txm, tableSpec{
			entity:       "transfer",
			table:        "doc_transfers",
			linesTable:   "doc_transfer_lines",
			primaryCol:   "from_warehouse_id",
			secondaryCol: "to_warehouse_id",
		}, func() *transfer.Transfer { return &transfer.Transfer{} }),
	}
}
