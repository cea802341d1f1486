package delivery_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/domain/documents"
	"stockledger/internal/domain/documents/delivery"
	"stockledger/internal/domain/notify"
	"stockledger/internal/domain/posting"
	"stockledger/internal/domain/registers/stock"
	"stockledger/internal/infrastructure/storage/memory"
)

type env struct {
	store  *memory.Store
	engine *posting.Engine
	svc    *delivery.Service
	p1, p2 *entity.Product
	wh     *entity.Warehouse
}

func setup(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	s := memory.New()

	p1 := entity.NewProduct("SKU-1", "Widget", "pcs")
	p2 := entity.NewProduct("SKU-2", "Gadget", "pcs")
	w := entity.NewWarehouse("Main", "WH1")
	require.NoError(t, s.Products().Create(ctx, p1))
	require.NoError(t, s.Products().Create(ctx, p2))
	require.NoError(t, s.Warehouses().Create(ctx, w))

	engine := posting.NewEngine(s.Stock(), s)
	svc := delivery.NewService(s.Deliveries(), engine, s.Numerator(), s,
		documents.NewCatalogResolver(s.Warehouses(), s.Products()),
		stock.NewService(s.Stock()),
		notify.Discard{})

	return &env{store: s, engine: engine, svc: svc, p1: p1, p2: p2, wh: w}
}

func (e *env) seed(t *testing.T, p *entity.Product, qty int64) {
	t.Helper()
	_, err := e.engine.ApplyMovement(context.Background(), "RCP-SEED", posting.Movement{
		ProductID: p.ID, WarehouseID: e.wh.ID, Type: entity.MovementReceipt, Delta: qty,
	})
	require.NoError(t, err)
}

func (e *env) quantity(t *testing.T, p *entity.Product) int64 {
	t.Helper()
	q, err := e.store.Stock().GetLevel(context.Background(), entity.StockKey{ProductID: p.ID, WarehouseID: e.wh.ID})
	require.NoError(t, err)
	return q
}

func (e *env) ledgerSize(t *testing.T) int64 {
	t.Helper()
	res, err := e.store.Stock().QueryMovements(context.Background(), stock.MovementFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	return res.TotalCount
}

func (e *env) newDelivery(lines ...entity.LineItem) *delivery.Delivery {
	doc := delivery.NewDelivery(e.wh.ID, "Contoso")
	doc.Lines = lines
	return doc
}

func TestCreate_PreChecksStock(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	e.seed(t, e.p1, 50)

	err := e.svc.Create(ctx, e.newDelivery(entity.LineItem{ProductID: e.p1.ID, Quantity: 60}))
	require.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))

	doc := e.newDelivery(entity.LineItem{ProductID: e.p1.ID, Quantity: 50})
	require.NoError(t, e.svc.Create(ctx, doc))
	assert.Regexp(t, `^DO-\d{4}-00001$`, doc.Number)
	assert.Equal(t, int64(50), e.quantity(t, e.p1), "create reserves nothing")
}

func TestValidate_RechecksStockUnderLock(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	e.seed(t, e.p1, 50)

	doc := e.newDelivery(entity.LineItem{ProductID: e.p1.ID, Quantity: 40})
	require.NoError(t, e.svc.Create(ctx, doc))

	// stock drops between create and validate
	_, err := e.engine.ApplyMovement(ctx, "ADJ-X", posting.Movement{
		ProductID: e.p1.ID, WarehouseID: e.wh.ID, Type: entity.MovementAdjustment, Target: 30,
	})
	require.NoError(t, err)

	_, err = e.svc.Validate(ctx, doc.ID)
	require.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
	assert.Equal(t, int64(30), e.quantity(t, e.p1))

	got, err := e.svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusEditable, got.Status, "a rejected validation leaves the document editable")
}

func TestValidate_AtomicAcrossLines(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	e.seed(t, e.p1, 10)
	e.seed(t, e.p2, 10)

	doc := e.newDelivery(
		entity.LineItem{ProductID: e.p1.ID, Quantity: 5},
		entity.LineItem{ProductID: e.p2.ID, Quantity: 5},
	)
	require.NoError(t, e.svc.Create(ctx, doc))

	// second line becomes insufficient
	_, err := e.engine.ApplyMovement(ctx, "DO-X", posting.Movement{
		ProductID: e.p2.ID, WarehouseID: e.wh.ID, Type: entity.MovementDelivery, Delta: -8,
	})
	require.NoError(t, err)
	before := e.ledgerSize(t)

	_, err = e.svc.Validate(ctx, doc.ID)
	require.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))

	assert.Equal(t, int64(10), e.quantity(t, e.p1), "first line must not be applied")
	assert.Equal(t, int64(2), e.quantity(t, e.p2))
	assert.Equal(t, before, e.ledgerSize(t))
}

func TestValidate_Scenario(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	e.seed(t, e.p1, 50)

	doc := e.newDelivery(entity.LineItem{ProductID: e.p1.ID, Quantity: 20})
	require.NoError(t, e.svc.Create(ctx, doc))

	applied, err := e.svc.Validate(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, applied.IsApplied())
	assert.Equal(t, int64(30), e.quantity(t, e.p1))

	res, err := e.store.Stock().QueryMovements(ctx, stock.MovementFilter{
		Page: 1, Limit: 1, SortBy: "createdAt", SortOrder: "desc",
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, entity.MovementDelivery, res.Items[0].MovementType)
	assert.Equal(t, int64(-20), res.Items[0].Change)
	assert.Equal(t, "Delivery "+doc.Number, res.Items[0].Note)
}

func TestValidate_ConcurrentDeliveriesExactlyOneWins(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	e.seed(t, e.p1, 10)

	a := e.newDelivery(entity.LineItem{ProductID: e.p1.ID, Quantity: 8})
	b := e.newDelivery(entity.LineItem{ProductID: e.p1.ID, Quantity: 8})
	require.NoError(t, e.svc.Create(ctx, a))
	require.NoError(t, e.svc.Create(ctx, b))

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, doc := range []*delivery.Delivery{a, b} {
		i, doc := i, doc
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = e.svc.Validate(ctx, doc.ID)
		}()
	}
	wg.Wait()

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperror.HasCode(err, apperror.CodeInsufficientStock):
			insufficient++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, int64(2), e.quantity(t, e.p1))
}
