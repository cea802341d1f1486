package adjustment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/domain/documents"
	"stockledger/internal/domain/documents/adjustment"
	"stockledger/internal/domain/notify"
	"stockledger/internal/domain/posting"
	"stockledger/internal/domain/registers/stock"
	"stockledger/internal/infrastructure/storage/memory"
)

type env struct {
	store *memory.Store
	svc   *adjustment.Service
	p     *entity.Product
	w     *entity.Warehouse
}

func setup(t *testing.T, initial int64) *env {
	t.Helper()
	ctx := context.Background()
	s := memory.New()

	p := entity.NewProduct("SKU-1", "Widget", "pcs")
	w := entity.NewWarehouse("Main", "WH1")
	require.NoError(t, s.Products().Create(ctx, p))
	require.NoError(t, s.Warehouses().Create(ctx, w))

	engine := posting.NewEngine(s.Stock(), s)
	if initial > 0 {
		_, err := engine.ApplyMovement(ctx, "RCP-SEED", posting.Movement{
			ProductID: p.ID, WarehouseID: w.ID, Type: entity.MovementReceipt, Delta: initial,
		})
		require.NoError(t, err)
	}

	svc := adjustment.NewService(s.Adjustments(), engine, s.Numerator(), s,
		documents.NewCatalogResolver(s.Warehouses(), s.Products()),
		stock.NewService(s.Stock()),
		notify.Discard{})
	return &env{store: s, svc: svc, p: p, w: w}
}

func (e *env) newAdjustment(qty int64) *adjustment.Adjustment {
	doc := adjustment.NewAdjustment(e.w.ID, adjustment.ReasonDamaged)
	doc.Lines = []adjustment.Line{{ProductID: e.p.ID, Quantity: qty}}
	return doc
}

func (e *env) quantity(t *testing.T) int64 {
	t.Helper()
	q, err := e.store.Stock().GetLevel(context.Background(), entity.StockKey{ProductID: e.p.ID, WarehouseID: e.w.ID})
	require.NoError(t, err)
	return q
}

func (e *env) ledgerSize(t *testing.T) int64 {
	t.Helper()
	res, err := e.store.Stock().QueryMovements(context.Background(), stock.MovementFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	return res.TotalCount
}

func TestCreate_AppliesImmediately(t *testing.T) {
	e := setup(t, 30)
	ctx := context.Background()

	doc := e.newAdjustment(25)
	require.NoError(t, e.svc.Create(ctx, doc))

	assert.Equal(t, entity.StatusApplied, doc.Status)
	assert.Regexp(t, `^ADJ-\d{4}-00001$`, doc.Number)
	assert.Equal(t, int64(25), e.quantity(t))

	got, err := e.svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, int64(30), got.Lines[0].PreviousStock)
	assert.Equal(t, int64(25), got.Lines[0].NewStock)
	assert.Equal(t, int64(-5), got.Lines[0].Change)

	res, err := e.store.Stock().QueryMovements(ctx, stock.MovementFilter{ReferenceID: doc.Number, Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, entity.MovementAdjustment, res.Items[0].MovementType)
	assert.Equal(t, "Adjustment "+doc.Number+" - DAMAGED", res.Items[0].Note)
}

func TestCreate_NoOpRejected(t *testing.T) {
	e := setup(t, 25)
	before := e.ledgerSize(t)

	err := e.svc.Create(context.Background(), e.newAdjustment(25))
	require.True(t, apperror.HasCode(err, apperror.CodeNoOpMovement))
	assert.Equal(t, int64(25), e.quantity(t))
	assert.Equal(t, before, e.ledgerSize(t))

	res, err := e.svc.List(context.Background(), documents.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestCreate_NoOpOnAnyLineRejectsAll(t *testing.T) {
	e := setup(t, 10)
	ctx := context.Background()

	other := entity.NewProduct("SKU-2", "Gadget", "pcs")
	require.NoError(t, e.store.Products().Create(ctx, other))

	doc := adjustment.NewAdjustment(e.w.ID, adjustment.ReasonCountCorrection)
	doc.Lines = []adjustment.Line{
		{ProductID: other.ID, Quantity: 4},
		{ProductID: e.p.ID, Quantity: 10},
	}
	err := e.svc.Create(ctx, doc)
	require.True(t, apperror.HasCode(err, apperror.CodeNoOpMovement))

	q, err := e.store.Stock().GetLevel(ctx, entity.StockKey{ProductID: other.ID, WarehouseID: e.w.ID})
	require.NoError(t, err)
	assert.Zero(t, q)
}

func TestCreate_Validation(t *testing.T) {
	e := setup(t, 5)
	ctx := context.Background()

	badReason := e.newAdjustment(1)
	badReason.Reason = "STOLEN"

	tests := []struct {
		name string
		doc  *adjustment.Adjustment
	}{
		{"negative target", e.newAdjustment(-1)},
		{"unknown reason", badReason},
		{"no lines", adjustment.NewAdjustment(e.w.ID, adjustment.ReasonLost)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.svc.Create(ctx, tt.doc)
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "got %v", err)
		})
	}
	assert.Equal(t, int64(5), e.quantity(t))
}

func TestCreate_ToZeroAndFromEmpty(t *testing.T) {
	e := setup(t, 0)
	ctx := context.Background()

	require.NoError(t, e.svc.Create(ctx, e.newAdjustment(12)))
	assert.Equal(t, int64(12), e.quantity(t))

	require.NoError(t, e.svc.Create(ctx, e.newAdjustment(0)))
	assert.Zero(t, e.quantity(t))
}
