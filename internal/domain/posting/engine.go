// Package posting is the movement engine: the only code path that mutates the
// stock index and appends to the ledger.
package posting

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/internal/domain/registers/stock"
	"stockledger/pkg/logger"
)

var tracer = otel.Tracer("stockledger/posting")

// Observer receives engine outcomes. The Prometheus collector implements it.
type Observer interface {
	Applied(entries []entity.MovementEntry, elapsed time.Duration)
	Rejected(code string)
}

// Stager records the written entries inside the posting transaction, so the
// staged rows commit or roll back together with the ledger.
type Stager interface {
	Stage(ctx context.Context, entries []entity.MovementEntry) error
}

type nopObserver struct{}

func (nopObserver) Applied([]entity.MovementEntry, time.Duration) {}
func (nopObserver) Rejected(string)                               {}

// Engine applies movement batches to the stock index and ledger.
type Engine struct {
	repo      stock.Repository
	txManager tx.Manager
	observer  Observer
	stager    Stager
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver sets the outcome observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithStager stages every applied batch inside its transaction.
func WithStager(s Stager) Option {
	return func(e *Engine) { e.stager = s }
}

// WithClock overrides the time source used for ledger timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a movement engine.
func NewEngine(repo stock.Repository, txManager tx.Manager, opts ...Option) *Engine {
	e := &Engine{
		repo:      repo,
		txManager: txManager,
		observer:  nopObserver{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ApplyMovement applies a single movement and returns its ledger entry.
func (e *Engine) ApplyMovement(ctx context.Context, referenceID string, m Movement) (entity.MovementEntry, error) {
	entries, err := e.Apply(ctx, Batch{
		ReferenceID: referenceID,
		Actor:       appctx.GetUserID(ctx),
		Movements:   []Movement{m},
	})
	if err != nil {
		return entity.MovementEntry{}, err
	}
	return entries[0], nil
}

// Post applies the movements generated by doc, then calls finalize with the
// written entries. Both run in one transaction.
func (e *Engine) Post(
	ctx context.Context,
	doc Postable,
	finalize func(ctx context.Context, entries []entity.MovementEntry) error,
) ([]entity.MovementEntry, error) {
	var entries []entity.MovementEntry
	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		movements, err := doc.GenerateMovements(ctx)
		if err != nil {
			return fmt.Errorf("generate movements: %w", err)
		}
		entries, err = e.Apply(ctx, Batch{
			ReferenceID: doc.PostingReference(),
			Actor:       appctx.GetUserID(ctx),
			Movements:   movements,
		})
		if err != nil {
			return err
		}
		if finalize != nil {
			return finalize(ctx, entries)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Apply locks every key of the batch in global order, dry-runs all movements
// against the locked balances and, only if every movement passes, writes the
// new levels and ledger entries. Nested inside an outer transaction it joins it.
func (e *Engine) Apply(ctx context.Context, b Batch) ([]entity.MovementEntry, error) {
	ctx, span := tracer.Start(ctx, "posting.Apply")
	defer span.End()
	span.SetAttributes(
		attribute.String("posting.reference", b.ReferenceID),
		attribute.Int("posting.movements", len(b.Movements)),
	)

	start := time.Now()
	entries, err := e.apply(ctx, b)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if appErr, ok := apperror.AsAppError(err); ok {
			e.observer.Rejected(appErr.Code)
		} else {
			e.observer.Rejected(apperror.CodeInternal)
		}
		return nil, err
	}
	e.observer.Applied(entries, time.Since(start))

	logger.Debug(ctx, "movements applied",
		"reference_id", b.ReferenceID,
		"count", len(entries),
	)
	return entries, nil
}

func (e *Engine) apply(ctx context.Context, b Batch) ([]entity.MovementEntry, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	keys := b.Keys()

	var entries []entity.MovementEntry
	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := e.repo.GetLevelsForUpdate(ctx, keys)
		if err != nil {
			return fmt.Errorf("lock stock levels: %w", err)
		}

		var levels []entity.StockLevel
		entries, levels, err = plan(b, current, e.now().UTC())
		if err != nil {
			return err
		}

		if err := e.repo.UpsertLevels(ctx, levels); err != nil {
			return fmt.Errorf("write stock levels: %w", err)
		}
		if err := e.repo.AppendMovements(ctx, entries); err != nil {
			return fmt.Errorf("append movements: %w", err)
		}
		if e.stager != nil {
			if err := e.stager.Stage(ctx, entries); err != nil {
				return fmt.Errorf("stage movements: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// plan is the dry run. It computes every entry against running balances and
// fails on the first rejected movement without side effects.
func plan(b Batch, current map[entity.StockKey]int64, at time.Time) ([]entity.MovementEntry, []entity.StockLevel, error) {
	running := make(map[entity.StockKey]int64, len(current))
	for k, v := range current {
		running[k] = v
	}

	entries := make([]entity.MovementEntry, 0, len(b.Movements))
	for _, m := range b.Movements {
		key := m.Key()
		previous := running[key]

		var next, delta int64
		if m.Type == entity.MovementAdjustment {
			next = m.Target
			delta = next - previous
		} else {
			delta = m.Delta
			if delta > 0 && previous > math.MaxInt64-delta {
				return nil, nil, apperror.NewValidation("stock quantity would overflow").
					WithDetail("productId", m.ProductID.String()).
					WithDetail("warehouseId", m.WarehouseID.String()).
					WithDetail("quantity", previous).
					WithDetail("delta", delta)
			}
			next = previous + delta
			if next < 0 {
				return nil, nil, apperror.NewInsufficientStock(
					m.ProductID.String(),
					m.WarehouseID.String(),
					-delta,
					previous,
				)
			}
		}
		if delta == 0 {
			return nil, nil, apperror.NewNoOpMovement(m.ProductID.String(), m.WarehouseID.String(), previous)
		}

		running[key] = next
		entries = append(entries, entity.MovementEntry{
			ID:            id.New(),
			ProductID:     m.ProductID,
			WarehouseID:   m.WarehouseID,
			MovementType:  m.Type,
			Change:        delta,
			PreviousStock: previous,
			NewStock:      next,
			ReferenceID:   b.ReferenceID,
			Note:          m.Note,
			CreatedBy:     b.Actor,
			CreatedAt:     at,
		})
	}

	levels := make([]entity.StockLevel, 0, len(running))
	for _, k := range b.Keys() {
		levels = append(levels, entity.StockLevel{
			ProductID:   k.ProductID,
			WarehouseID: k.WarehouseID,
			Quantity:    running[k],
			UpdatedAt:   at,
		})
	}
	return entries, levels, nil
}
