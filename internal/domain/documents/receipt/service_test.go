package receipt_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/documents"
	"stockledger/internal/domain/documents/receipt"
	"stockledger/internal/domain/notify"
	"stockledger/internal/domain/posting"
	"stockledger/internal/domain/registers/stock"
	"stockledger/internal/infrastructure/storage/memory"
)

type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Publish(_ context.Context, events ...notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		if e.Document != nil {
			out = append(out, e.Document.Type)
		} else {
			out = append(out, e.Name)
		}
	}
	return out
}

type env struct {
	store     *memory.Store
	svc       *receipt.Service
	events    *recorder
	product   *entity.Product
	warehouse *entity.Warehouse
}

func setup(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	s := memory.New()

	p := entity.NewProduct("SKU-1", "Widget", "pcs")
	w := entity.NewWarehouse("Main", "WH1")
	require.NoError(t, s.Products().Create(ctx, p))
	require.NoError(t, s.Warehouses().Create(ctx, w))

	rec := &recorder{}
	engine := posting.NewEngine(s.Stock(), s)
	svc := receipt.NewService(s.Receipts(), engine, s.Numerator(), s,
		documents.NewCatalogResolver(s.Warehouses(), s.Products()), rec)

	return &env{store: s, svc: svc, events: rec, product: p, warehouse: w}
}

func (e *env) newReceipt(qty int64) *receipt.Receipt {
	doc := receipt.NewReceipt(e.warehouse.ID, "Acme Supplies")
	doc.Lines = []entity.LineItem{{ProductID: e.product.ID, Quantity: qty}}
	return doc
}

func (e *env) quantity(t *testing.T) int64 {
	t.Helper()
	q, err := e.store.Stock().GetLevel(context.Background(), entity.StockKey{ProductID: e.product.ID, WarehouseID: e.warehouse.ID})
	require.NoError(t, err)
	return q
}

func (e *env) ledgerSize(t *testing.T) int64 {
	t.Helper()
	res, err := e.store.Stock().QueryMovements(context.Background(), stock.MovementFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	return res.TotalCount
}

func TestCreate_AssignsNumberAndStaysEditable(t *testing.T) {
	e := setup(t)
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "u-1"})

	doc := e.newReceipt(50)
	require.NoError(t, e.svc.Create(ctx, doc))

	assert.Equal(t, entity.StatusEditable, doc.Status)
	assert.Regexp(t, `^RCP-\d{4}-00001$`, doc.Number)
	assert.Equal(t, "u-1", doc.CreatedBy)
	assert.Zero(t, e.ledgerSize(t), "create does not move stock")

	got, err := e.svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, int64(50), got.Lines[0].Quantity)
	assert.Equal(t, []string{"receipt-created"}, e.events.names())
}

func TestValidate_AppliesOnce(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	doc := e.newReceipt(50)
	require.NoError(t, e.svc.Create(ctx, doc))

	applied, err := e.svc.Validate(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApplied, applied.Status)
	require.NotNil(t, applied.AppliedAt)
	assert.Equal(t, int64(50), e.quantity(t))

	res, err := e.store.Stock().QueryMovements(ctx, stock.MovementFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	entry := res.Items[0]
	assert.Equal(t, entity.MovementReceipt, entry.MovementType)
	assert.Equal(t, int64(50), entry.Change)
	assert.Equal(t, int64(0), entry.PreviousStock)
	assert.Equal(t, int64(50), entry.NewStock)
	assert.Equal(t, doc.Number, entry.ReferenceID)
	assert.Equal(t, "Widget", entry.ProductName)

	_, err = e.svc.Validate(ctx, doc.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeAlreadyApplied))
	assert.Equal(t, int64(50), e.quantity(t))
	assert.EqualValues(t, 1, e.ledgerSize(t))

	assert.Contains(t, e.events.names(), notify.EventStockUpdate)
	assert.Contains(t, e.events.names(), "receipt-validated")
}

func TestValidate_ConcurrentCallsApplyOnce(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	doc := e.newReceipt(5)
	require.NoError(t, e.svc.Create(ctx, doc))

	const callers = 6
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.svc.Validate(ctx, doc.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, apperror.HasCode(err, apperror.CodeAlreadyApplied), "got %v", err)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, int64(5), e.quantity(t))
	assert.EqualValues(t, 1, e.ledgerSize(t))
}

func TestUpdate_ReplacesLinesUntilApplied(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	doc := e.newReceipt(5)
	require.NoError(t, e.svc.Create(ctx, doc))

	supplier := "Other Supplier"
	updated, err := e.svc.Update(ctx, doc.ID, receipt.UpdateInput{
		Supplier: &supplier,
		Lines:    []entity.LineItem{{ProductID: e.product.ID, Quantity: 9}},
	})
	require.NoError(t, err)
	assert.Equal(t, supplier, updated.Supplier)
	assert.Equal(t, 2, updated.Version)

	got, err := e.svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, int64(9), got.Lines[0].Quantity)

	_, err = e.svc.Validate(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(9), e.quantity(t))

	_, err = e.svc.Update(ctx, doc.ID, receipt.UpdateInput{Supplier: &supplier})
	assert.True(t, apperror.HasCode(err, apperror.CodeDocumentAlreadyApplied))
}

func TestCreate_RejectsBadInput(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	unknownProduct := receipt.NewReceipt(e.warehouse.ID, "")
	unknownProduct.Lines = []entity.LineItem{{ProductID: id.New(), Quantity: 1}}

	unknownWarehouse := e.newReceipt(1)
	unknownWarehouse.WarehouseID = id.New()

	tests := []struct {
		name string
		doc  *receipt.Receipt
		code string
	}{
		{"no lines", receipt.NewReceipt(e.warehouse.ID, ""), apperror.CodeValidation},
		{"zero quantity", e.newReceipt(0), apperror.CodeValidation},
		{"unknown product", unknownProduct, apperror.CodeNotFound},
		{"unknown warehouse", unknownWarehouse, apperror.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.svc.Create(ctx, tt.doc)
			assert.True(t, apperror.HasCode(err, tt.code), "got %v", err)
		})
	}

	_, err := e.svc.Validate(ctx, id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestList_FiltersByStatusAndSearch(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	first := e.newReceipt(1)
	require.NoError(t, e.svc.Create(ctx, first))
	second := e.newReceipt(2)
	second.Supplier = "Northwind"
	require.NoError(t, e.svc.Create(ctx, second))
	_, err := e.svc.Validate(ctx, first.ID)
	require.NoError(t, err)

	applied := entity.StatusApplied
	res, err := e.svc.List(ctx, documents.ListFilter{Status: &applied})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, first.ID, res.Items[0].ID)

	f := documents.ListFilter{}
	f.Search = "northwind"
	res, err = e.svc.List(ctx, f)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, second.ID, res.Items[0].ID)

	f = documents.ListFilter{}
	to := time.Now().Add(-time.Hour)
	f.DateTo = &to
	res, err = e.svc.List(ctx, f)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}
