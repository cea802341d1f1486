package adjustment

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/core/numerator"
	"stockledger/internal/core/tx"
	"stockledger/internal/domain"
	"stockledger/internal/domain/documents"
	"stockledger/internal/domain/notify"
	"stockledger/internal/domain/posting"
	"stockledger/internal/domain/registers/stock"
	"stockledger/pkg/logger"
)

// Service provides business logic for adjustments.
type Service struct {
	repo          Repository
	postingEngine *posting.Engine
	numerator     numerator.Generator
	txManager     tx.Manager
	catalogs      *documents.CatalogResolver
	stock         *stock.Service
	publisher     notify.Publisher
	hooks         *domain.HookRegistry[*Adjustment]
}

// NewService creates a new adjustment service.
func NewService(
	repo Repository,
	postingEngine *posting.Engine,
	numerator numerator.Generator,
	txManager tx.Manager,
	catalogs *documents.CatalogResolver,
	stockService *stock.Service,
	publisher notify.Publisher,
) *Service {
	if publisher == nil {
		publisher = notify.Discard{}
	}
	return &Service{
		repo:          repo,
		postingEngine: postingEngine,
		numerator:     numerator,
		txManager:     txManager,
		catalogs:      catalogs,
		stock:         stockService,
		publisher:     publisher,
		hooks:         domain.NewHookRegistry[*Adjustment](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Adjustment] {
	return s.hooks
}

// Create applies an adjustment and stores it as APPLIED. Any line whose target
// equals the current quantity rejects the whole document with NoOpMovement.
func (s *Service) Create(ctx context.Context, doc *Adjustment) error {
	if err := s.hooks.Run(ctx, domain.BeforeCreate, doc); err != nil {
		return err
	}
	if err := doc.Validate(ctx); err != nil {
		return err
	}
	if err := s.catalogs.EnsureWarehouse(ctx, doc.WarehouseID); err != nil {
		return err
	}
	if err := s.catalogs.EnsureProducts(ctx, doc.LineItems()); err != nil {
		return err
	}
	if err := s.checkNoOp(ctx, doc); err != nil {
		return err
	}

	doc.CreatedBy = appctx.GetUserID(ctx)
	doc.UpdatedBy = doc.CreatedBy

	var entries []entity.MovementEntry
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if doc.Number == "" {
			number, err := documents.NextNumber(ctx, s.numerator, numerator.PrefixAdjustment, doc.CreatedAt)
			if err != nil {
				return err
			}
			doc.Number = number
		}
		if err := doc.MarkApplied(entity.DocumentTypeAdjustment, time.Now()); err != nil {
			return err
		}

		var err error
		entries, err = s.postingEngine.Post(ctx, doc, func(ctx context.Context, entries []entity.MovementEntry) error {
			doc.recordEntries(entries)
			if err := s.repo.Create(ctx, doc); err != nil {
				return fmt.Errorf("create document: %w", err)
			}
			if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
				return fmt.Errorf("save lines: %w", err)
			}
			return nil
		})
		return err
	})
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, domain.AfterApply, doc); err != nil {
		logger.Warn(ctx, "after-apply hook failed", "error", err)
	}
	s.publisher.Publish(ctx, notify.StockEvents(entries)...)
	s.publisher.Publish(ctx, notify.DocumentEvent("created", entity.DocumentTypeAdjustment, doc.ID, doc.Number))

	logger.Info(ctx, "adjustment applied",
		"id", doc.ID,
		"number", doc.Number,
		"reason", doc.Reason,
		"movements", len(entries))
	return nil
}

// GetByID retrieves an adjustment with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Adjustment, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines
	return doc, nil
}

// List retrieves adjustments with filtering. Lines are not loaded.
func (s *Service) List(ctx context.Context, filter documents.ListFilter) (domain.ListResult[*Adjustment], error) {
	if err := filter.Normalize(); err != nil {
		return domain.ListResult[*Adjustment]{}, err
	}
	return s.repo.List(ctx, filter)
}

// checkNoOp is the unlocked pre-read. The engine repeats the check under lock.
func (s *Service) checkNoOp(ctx context.Context, doc *Adjustment) error {
	for _, line := range doc.Lines {
		current, err := s.stock.GetQuantity(ctx, line.ProductID, doc.WarehouseID)
		if err != nil {
			return err
		}
		if current == line.Quantity {
			return apperror.NewNoOpMovement(line.ProductID.String(), doc.WarehouseID.String(), current)
		}
	}
	return nil
}
