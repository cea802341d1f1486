package transfer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/documents"
	"stockledger/internal/domain/documents/transfer"
	"stockledger/internal/domain/notify"
	"stockledger/internal/domain/posting"
	"stockledger/internal/domain/registers/stock"
	"stockledger/internal/infrastructure/storage/memory"
)

type env struct {
	store  *memory.Store
	engine *posting.Engine
	svc    *transfer.Service
	p      *entity.Product
	w1, w2 *entity.Warehouse
}

func setup(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	s := memory.New()

	p := entity.NewProduct("SKU-1", "Widget", "pcs")
	w1 := entity.NewWarehouse("North", "N")
	w2 := entity.NewWarehouse("South", "S")
	require.NoError(t, s.Products().Create(ctx, p))
	require.NoError(t, s.Warehouses().Create(ctx, w1))
	require.NoError(t, s.Warehouses().Create(ctx, w2))

	engine := posting.NewEngine(s.Stock(), s)
	svc := transfer.NewService(s.Transfers(), engine, s.Numerator(), s,
		documents.NewCatalogResolver(s.Warehouses(), s.Products()),
		stock.NewService(s.Stock()),
		notify.Discard{})

	_, err := engine.ApplyMovement(ctx, "RCP-SEED", posting.Movement{
		ProductID: p.ID, WarehouseID: w1.ID, Type: entity.MovementReceipt, Delta: 50,
	})
	require.NoError(t, err)

	return &env{store: s, engine: engine, svc: svc, p: p, w1: w1, w2: w2}
}

func (e *env) quantity(t *testing.T, w *entity.Warehouse) int64 {
	t.Helper()
	q, err := e.store.Stock().GetLevel(context.Background(), entity.StockKey{ProductID: e.p.ID, WarehouseID: w.ID})
	require.NoError(t, err)
	return q
}

func (e *env) newTransfer(from, to *entity.Warehouse, qty int64) *transfer.Transfer {
	doc := transfer.NewTransfer(from.ID, to.ID)
	doc.Lines = []entity.LineItem{{ProductID: e.p.ID, Quantity: qty}}
	return doc
}

func TestValidate_MovesStockBetweenWarehouses(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	doc := e.newTransfer(e.w1, e.w2, 20)
	require.NoError(t, e.svc.Create(ctx, doc))
	assert.Regexp(t, `^TRF-\d{4}-00001$`, doc.Number)

	_, err := e.svc.Validate(ctx, doc.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(30), e.quantity(t, e.w1))
	assert.Equal(t, int64(20), e.quantity(t, e.w2))

	res, err := e.store.Stock().QueryMovements(ctx, stock.MovementFilter{ReferenceID: doc.Number, Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	var sum int64
	for _, m := range res.Items {
		assert.Equal(t, entity.MovementTransfer, m.MovementType)
		sum += m.Change
	}
	assert.Zero(t, sum)

	_, err = e.svc.Validate(ctx, doc.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeAlreadyApplied))
}

func TestCreate_RejectsSameWarehouse(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	err := e.svc.Create(ctx, e.newTransfer(e.w1, e.w1, 1))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	doc := e.newTransfer(e.w1, e.w2, 1)
	require.NoError(t, e.svc.Create(ctx, doc))

	_, err = e.svc.Update(ctx, doc.ID, transfer.UpdateInput{ToWarehouseID: &e.w1.ID})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestCreate_PreChecksSourceStock(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	err := e.svc.Create(ctx, e.newTransfer(e.w2, e.w1, 1))
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))

	unknown := transfer.NewTransfer(e.w1.ID, id.New())
	unknown.Lines = []entity.LineItem{{ProductID: e.p.ID, Quantity: 1}}
	err = e.svc.Create(ctx, unknown)
	assert.True(t, apperror.IsNotFound(err))
}

func TestValidate_InsufficientSourceAppliesNothing(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	doc := e.newTransfer(e.w1, e.w2, 40)
	require.NoError(t, e.svc.Create(ctx, doc))

	_, err := e.engine.ApplyMovement(ctx, "DO-X", posting.Movement{
		ProductID: e.p.ID, WarehouseID: e.w1.ID, Type: entity.MovementDelivery, Delta: -20,
	})
	require.NoError(t, err)

	_, err = e.svc.Validate(ctx, doc.ID)
	require.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
	assert.Equal(t, int64(30), e.quantity(t, e.w1))
	assert.Zero(t, e.quantity(t, e.w2))
}

func TestList_ByDestination(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	require.NoError(t, e.svc.Create(ctx, e.newTransfer(e.w1, e.w2, 1)))

	f := documents.ListFilter{ToWarehouseID: &e.w2.ID}
	res, err := e.svc.List(ctx, f)
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)

	f = documents.ListFilter{ToWarehouseID: &e.w1.ID}
	res, err = e.svc.List(ctx, f)
	require.NoError(t, err)
	assert.Empty(t, res.Items)

	f = documents.ListFilter{WarehouseID: &e.w2.ID}
	res, err = e.svc.List(ctx, f)
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
}
