package stock

import (
	"context"
	"fmt"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
)

// Service provides read operations over the stock index and ledger.
// Writes go through the posting engine, which owns the transaction.
type Service struct {
	repo Repository
}

// NewService creates a new stock register service.
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// GetQuantity returns the current quantity of a product in a warehouse.
func (s *Service) GetQuantity(ctx context.Context, productID, warehouseID id.ID) (int64, error) {
	qty, err := s.repo.GetLevel(ctx, entity.StockKey{ProductID: productID, WarehouseID: warehouseID})
	if err != nil {
		return 0, fmt.Errorf("get level: %w", err)
	}
	return qty, nil
}

// CheckAvailability is an unlocked sufficiency pre-check of lines against a
// warehouse. The authoritative check happens again under lock at validation.
func (s *Service) CheckAvailability(ctx context.Context, warehouseID id.ID, lines []entity.LineItem) error {
	for _, line := range lines {
		available, err := s.GetQuantity(ctx, line.ProductID, warehouseID)
		if err != nil {
			return err
		}
		if available < line.Quantity {
			return apperror.NewInsufficientStock(
				line.ProductID.String(),
				warehouseID.String(),
				line.Quantity,
				available,
			)
		}
	}
	return nil
}

// ListLevels returns current stock rows.
func (s *Service) ListLevels(ctx context.Context, filter LevelFilter) ([]LevelView, error) {
	return s.repo.ListLevels(ctx, filter)
}

// QueryMovements returns a page of ledger entries.
func (s *Service) QueryMovements(ctx context.Context, filter MovementFilter) (domain.ListResult[MovementView], error) {
	if filter.MovementType != nil && !filter.MovementType.Valid() {
		return domain.ListResult[MovementView]{}, apperror.NewValidation("unknown movement type").
			WithDetail("field", "movementType").
			WithDetail("value", string(*filter.MovementType))
	}
	if err := filter.Normalize(); err != nil {
		return domain.ListResult[MovementView]{}, err
	}
	return s.repo.QueryMovements(ctx, filter)
}

// GetMovement returns one ledger entry or NotFound.
func (s *Service) GetMovement(ctx context.Context, movementID id.ID) (*MovementView, error) {
	return s.repo.GetMovement(ctx, movementID)
}
