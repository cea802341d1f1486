package warehouse

import (
	"context"
	"fmt"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/pkg/logger"
)

// SortFields lists sortable warehouse fields.
var SortFields = map[string]string{
	"name":      "name",
	"code":      "code",
	"createdAt": "created_at",
}

// Service provides business logic for Warehouse catalog.
type Service struct {
	repo Repository
}

// NewService creates a new Warehouse service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and stores a warehouse. Names are unique.
func (s *Service) Create(ctx context.Context, w *entity.Warehouse) error {
	if err := w.Validate(ctx); err != nil {
		return err
	}
	if existing, err := s.repo.GetByName(ctx, w.Name); err == nil && existing != nil {
		return apperror.NewDuplicate("warehouse", "name", w.Name)
	} else if err != nil && !apperror.IsNotFound(err) {
		return fmt.Errorf("check name: %w", err)
	}
	if err := s.repo.Create(ctx, w); err != nil {
		return fmt.Errorf("create warehouse: %w", err)
	}
	logger.Info(ctx, "warehouse created", "warehouse_id", w.ID, "name", w.Name)
	return nil
}

func (s *Service) GetByID(ctx context.Context, warehouseID id.ID) (*entity.Warehouse, error) {
	return s.repo.GetByID(ctx, warehouseID)
}

func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[entity.Warehouse], error) {
	if filter.SortOrder == "" {
		filter.SortOrder = domain.SortAsc
	}
	if err := filter.Normalize("name", SortFields); err != nil {
		return domain.ListResult[entity.Warehouse]{}, err
	}
	return s.repo.List(ctx, filter)
}
