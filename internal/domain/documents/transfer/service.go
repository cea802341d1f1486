package transfer

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

// Service provides business logic for transfers.
type Service struct {
	repo          Repository
	postingEngine *posting.Engine
	numerator     numerator.Generator
	txManager     tx.Manager
	catalogs      *documents.CatalogResolver
	stock         *stock.Service
	publisher     notify.Publisher
	hooks         *domain.HookRegistry[*Transfer]
}

// NewService creates a new transfer service.
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
		hooks:         domain.NewHookRegistry[*Transfer](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Transfer] {
	return s.hooks
}

// UpdateInput carries replaced fields. Nil fields are left unchanged; a
// non-nil Lines replaces all lines.
type UpdateInput struct {
	FromWarehouseID *id.ID
	ToWarehouseID   *id.ID
	Note            *string
	Lines           []entity.LineItem
}

// Create creates a new editable transfer. Source stock is pre-checked
// without locks; Validate checks again under lock.
func (s *Service) Create(ctx context.Context, doc *Transfer) error {
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
			number, err := documents.NextNumber(ctx, s.numerator, numerator.PrefixTransfer, doc.CreatedAt)
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
	s.publisher.Publish(ctx, notify.DocumentEvent("created", entity.DocumentTypeTransfer, doc.ID, doc.Number))

	logger.Info(ctx, "transfer created",
		"id", doc.ID,
		"number", doc.Number)
	return nil
}

// GetByID retrieves a transfer with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Transfer, error) {
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

// List retrieves transfers with filtering. Lines are not loaded.
func (s *Service) List(ctx context.Context, filter documents.ListFilter) (domain.ListResult[*Transfer], error) {
	if err := filter.Normalize(); err != nil {
		return domain.ListResult[*Transfer]{}, err
	}
	return s.repo.List(ctx, filter)
}

// Update replaces fields and lines of an editable transfer.
func (s *Service) Update(ctx context.Context, docID id.ID, in UpdateInput) (*Transfer, error) {
	var doc *Transfer
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if err := doc.CanModify(entity.DocumentTypeTransfer); err != nil {
			return err
		}
		if doc.Lines, err = s.repo.GetLines(ctx, docID); err != nil {
			return fmt.Errorf("get lines: %w", err)
		}

		if in.FromWarehouseID != nil {
			doc.FromWarehouseID = *in.FromWarehouseID
		}
		if in.ToWarehouseID != nil {
			doc.ToWarehouseID = *in.ToWarehouseID
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

	s.publisher.Publish(ctx, notify.DocumentEvent("updated", entity.DocumentTypeTransfer, doc.ID, doc.Number))
	return doc, nil
}

// Validate applies the transfer. Both warehouses are locked in global key order,
// every debit is checked before anything is written and no credit is applied
// unless all debits pass. A second call returns AlreadyApplied.
func (s *Service) Validate(ctx context.Context, docID id.ID) (*Transfer, error) {
	var doc *Transfer
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
		if err := doc.MarkApplied(entity.DocumentTypeTransfer, time.Now()); err != nil {
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
	s.publisher.Publish(ctx, notify.DocumentEvent("validated", entity.DocumentTypeTransfer, doc.ID, doc.Number))

	logger.Info(ctx, "transfer validated",
		"id", doc.ID,
		"number", doc.Number,
		"movements", len(entries))
	return doc, nil
}

func (s *Service) checkCatalogs(ctx context.Context, doc *Transfer) error {
	if err := s.catalogs.EnsureWarehouse(ctx, doc.FromWarehouseID); err != nil {
		return err
	}
	if err := s.catalogs.EnsureWarehouse(ctx, doc.ToWarehouseID); err != nil {
		return err
	}
	if err := s.catalogs.EnsureProducts(ctx, doc.Lines); err != nil {
		return err
	}
	return s.stock.CheckAvailability(ctx, doc.FromWarehouseID, doc.Lines)
}
