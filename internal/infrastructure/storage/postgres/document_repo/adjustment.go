package document_repo

import (
	"stockledger/internal/domain/documents/adjustment"
	"stockledger/internal/infrastructure/storage/postgres"
)

// AdjustmentRepo implements adjustment.Repository.
// Adjustment lines carry the before/after quantities recorded at posting time.
type AdjustmentRepo struct {
	*BaseDocumentRepo[*adjustment.Adjustment, adjustment.Line]
}

var _ adjustment.Repository = (*AdjustmentRepo)(nil)

// NewAdjustmentRepo creates a new adjustment repository.
func NewAdjustmentRepo(txm *postgres.TxManager) *AdjustmentRepo {
	return &AdjustmentRepo{
		BaseDocumentRepo: newBaseDocumentRepo[*adjustment.Adjustment, adjustment.Line](txm, tableSpec{
			entity:         "adjustment",
			table:          "doc_adjustments",
			linesTable:     "doc_adjustment_lines",
			counterpartCol: "reason",
			primaryCol:     "warehouse_id",
		}, func() *adjustment.Adjustment { return &adjustment.Adjustment{} }),
	}
}
