package delivery

import (
	"context"
	"fmt"
	"time"

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

// Service provides business logic for deliveries.
type Service struct {
	repo          Repository
	postingEngine *posting.Engine
	numerator     numerator.Generator
	txManager     tx.Manager
	catalogs      *documents.CatalogResolver
	stock         *stock.Service
	publisher     notify.Publisher
	hooks         *domain.HookRegistry[*Delivery]
}

// NewService creates a new delivery service.
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
		hooks:         domain.NewHookRegistry[*Delivery](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Delivery] {
	return s.hooks
}

// UpdateInput carries replaced fields. Nil fields are left unchanged; a
// non-nil Lines replaces all lines.
type UpdateInput struct {
	WarehouseID *id.ID
	Customer    *string
	Note        *string
	Lines       []entity.LineItem
}

// Create creates a new editable delivery. Stock sufficiency is pre-checked
// without locks; Validate checks again under lock.
func (s *Service) Create(ctx context.Context, doc *Delivery) error {
	if err := s.hooks.Run(ctx, domain.BeforeCreate, doc); err != nil {
		return err
	}
	if err := doc.Validate(ctx); err != nil {
		return err
	}
	if err := s.checkCatalogs(ctx, doc); err != nil {
		return err
	}

	doc.Status = entity.StatusEditable
	doc.CreatedBy = appctx.GetUserID(ctx)
	doc.UpdatedBy = doc.CreatedBy

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if doc.Number == "" {
			number, err := documents.NextNumber(ctx, s.numerator, numerator.PrefixDelivery, doc.CreatedAt)
			if err != nil {
				return err
			}
			doc.Number = number
		}
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, domain.AfterCreate, doc); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}
	s.publisher.Publish(ctx, notify.DocumentEvent("created", entity.DocumentTypeDelivery, doc.ID, doc.Number))

	logger.Info(ctx, "delivery created",
		"id", doc.ID,
		"number", doc.Number)
	return nil
}

// GetByID retrieves a delivery with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Delivery, error) {
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

// List retrieves deliveries with filtering. Lines are not loaded.
func (s *Service) List(ctx context.Context, filter documents.ListFilter) (domain.ListResult[*Delivery], error) {
	if err := filter.Normalize(); err != nil {
		return domain.ListResult[*Delivery]{}, err
	}
	return s.repo.List(ctx, filter)
}

// Update replaces fields and lines of an editable delivery.
func (s *Service) Update(ctx context.Context, docID id.ID, in UpdateInput) (*Delivery, error) {
	var doc *Delivery
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if err := doc.CanModify(entity.DocumentTypeDelivery); err != nil {
			return err
		}
		if doc.Lines, err = s.repo.GetLines(ctx, docID); err != nil {
			return fmt.Errorf("get lines: %w", err)
		}

		if in.WarehouseID != nil {
			doc.WarehouseID = *in.WarehouseID
		}
		if in.Customer != nil {
			doc.Customer = *in.Customer
		}
		if in.Note != nil {
			doc.Note = *in.Note
		}
		if in.Lines != nil {
			doc.Lines = in.Lines
		}

		if err := s.hooks.Run(ctx, domain.BeforeUpdate, doc); err != nil {
			return err
		}
		if err := doc.Validate(ctx); err != nil {
			return err
		}
		if err := s.checkCatalogs(ctx, doc); err != nil {
			return err
		}

		doc.UpdatedBy = appctx.GetUserID(ctx)
		doc.Touch()
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, notify.DocumentEvent("updated", entity.DocumentTypeDelivery, doc.ID, doc.Number))
	return doc, nil
}

// Validate applies the delivery. Every line is checked against the locked
// stock levels before any DELIVERY movement is written, so an insufficient line
// rejects the whole document. A second call returns AlreadyApplied.
func (s *Service) Validate(ctx context.Context, docID id.ID) (*Delivery, error) {
	var doc *Delivery
	var entries []entity.MovementEntry
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if doc.Lines, err = s.repo.GetLines(ctx, docID); err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		if err := doc.MarkApplied(entity.DocumentTypeDelivery, time.Now()); err != nil {
			return err
		}
		doc.UpdatedBy = appctx.GetUserID(ctx)

		entries, err = s.postingEngine.Post(ctx, doc, func(ctx context.Context, _ []entity.MovementEntry) error {
			return s.repo.Update(ctx, doc)
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterApply, doc); err != nil {
		logger.Warn(ctx, "after-apply hook failed", "error", err)
	}
	s.publisher.Publish(ctx, notify.StockEvents(entries)...)
	s.publisher.Publish(ctx, notify.DocumentEvent("validated", entity.DocumentTypeDelivery, doc.ID, doc.Number))

	logger.Info(ctx, "delivery validated",
		"id", doc.ID,
		"number", doc.Number,
		"movements", len(entries))
	return doc, nil
}

func (s *Service) checkCatalogs(ctx context.Context, doc *Delivery) error {
	if err := s.catalogs.EnsureWarehouse(ctx, doc.WarehouseID); err != nil {
		return err
	}
	if err := s.catalogs.EnsureProducts(ctx, doc.Lines); err != nil {
		return err
	}
	return s.stock.CheckAvailability(ctx, doc.WarehouseID, doc.Lines)
}
