package adjustment

import "stockledger/internal/domain/documents"

// Repository defines persistence for adjustments.
type Repository interface {
	documents.Repository[*Adjustment, Line]
}
