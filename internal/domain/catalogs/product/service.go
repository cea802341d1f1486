package product

import (
	"context"
	"fmt"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/pkg/logger"
)

// SortFields lists sortable product fields.
var SortFields = map[string]string{
	"name":      "name",
	"sku":       "sku",
	"createdAt": "created_at",
}

// Service provides read access to products and seeding.
type Service struct {
	repo Repository
}

// NewService creates a new product service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and stores a product. SKU is unique.
func (s *Service) Create(ctx context.Context, p *entity.Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}
	if existing, err := s.repo.GetBySKU(ctx, p.SKU); err == nil && existing != nil {
		return apperror.NewDuplicate("product", "sku", p.SKU)
	} else if err != nil && !apperror.IsNotFound(err) {
		return fmt.Errorf("check sku: %w", err)
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	logger.Info(ctx, "product created", "product_id", p.ID, "sku", p.SKU)
	return nil
}

// GetByID returns a product or NotFound.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*entity.Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// List returns a page of products.
func (s *Service) List(ctx context.Context, filter Filter) (domain.ListResult[entity.Product], error) {
	if filter.SortOrder == "" {
		filter.SortOrder = domain.SortAsc
	}
	if err := filter.Normalize("name", SortFields); err != nil {
		return domain.ListResult[entity.Product]{}, err
	}
	return s.repo.List(ctx, filter)
}
