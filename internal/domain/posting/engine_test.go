package posting_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/posting"
	"stockledger/internal/domain/registers/stock"
	"stockledger/internal/infrastructure/storage/memory"
)

type countingObserver struct {
	mu       sync.Mutex
	applied  int
	rejected map[string]int
}

func (o *countingObserver) Applied(entries []entity.MovementEntry, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.applied += len(entries)
}

func (o *countingObserver) Rejected(code string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.rejected == nil {
		o.rejected = map[string]int{}
	}
	o.rejected[code]++
}

type fixture struct {
	store    *memory.Store
	engine   *posting.Engine
	observer *countingObserver
	p1       id.ID
	w1, w2   id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memory.New()
	obs := &countingObserver{}
	return &fixture{
		store:    s,
		engine:   posting.NewEngine(s.Stock(), s, posting.WithObserver(obs)),
		observer: obs,
		p1:       id.New(),
		w1:       id.New(),
		w2:       id.New(),
	}
}

func (f *fixture) qty(t *testing.T, p, w id.ID) int64 {
	t.Helper()
	q, err := f.store.Stock().GetLevel(context.Background(), entity.StockKey{ProductID: p, WarehouseID: w})
	require.NoError(t, err)
	return q
}

func (f *fixture) ledger(t *testing.T) []stock.MovementView {
	t.Helper()
	res, err := f.store.Stock().QueryMovements(context.Background(), stock.MovementFilter{Page: 1, Limit: 500, SortBy: "createdAt", SortOrder: "asc"})
	require.NoError(t, err)
	return res.Items
}

func (f *fixture) receive(t *testing.T, p, w id.ID, qty int64) {
	t.Helper()
	_, err := f.engine.ApplyMovement(context.Background(), "RCP-SEED", posting.Movement{
		ProductID: p, WarehouseID: w, Type: entity.MovementReceipt, Delta: qty,
	})
	require.NoError(t, err)
}

func TestApply_ReceiptIntoEmptyKey(t *testing.T) {
	f := newFixture(t)

	entry, err := f.engine.ApplyMovement(context.Background(), "RCP-2026-00001", posting.Movement{
		ProductID: f.p1, WarehouseID: f.w1, Type: entity.MovementReceipt, Delta: 50,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(0), entry.PreviousStock)
	assert.Equal(t, int64(50), entry.NewStock)
	assert.Equal(t, int64(50), entry.Change)
	assert.Equal(t, entity.MovementReceipt, entry.MovementType)
	assert.Equal(t, int64(50), f.qty(t, f.p1, f.w1))
	assert.Len(t, f.ledger(t), 1)
}

func TestApply_InsufficientStockLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	f.receive(t, f.p1, f.w1, 50)

	_, err := f.engine.ApplyMovement(context.Background(), "DO-2026-00001", posting.Movement{
		ProductID: f.p1, WarehouseID: f.w1, Type: entity.MovementDelivery, Delta: -60,
	})
	require.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))

	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, int64(60), appErr.Details["requested"])
	assert.Equal(t, int64(50), appErr.Details["available"])

	assert.Equal(t, int64(50), f.qty(t, f.p1, f.w1))
	assert.Len(t, f.ledger(t), 1)
	assert.Equal(t, 1, f.observer.rejected[apperror.CodeInsufficientStock])
}

func TestApply_TransferConservesQuantity(t *testing.T) {
	f := newFixture(t)
	f.receive(t, f.p1, f.w1, 50)

	entries, err := f.engine.Apply(context.Background(), posting.Batch{
		ReferenceID: "TRF-2026-00001",
		Movements: []posting.Movement{
			{ProductID: f.p1, WarehouseID: f.w1, Type: entity.MovementTransfer, Delta: -20},
			{ProductID: f.p1, WarehouseID: f.w2, Type: entity.MovementTransfer, Delta: 20},
		},
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, int64(30), f.qty(t, f.p1, f.w1))
	assert.Equal(t, int64(20), f.qty(t, f.p1, f.w2))
	assert.Zero(t, entries[0].Change+entries[1].Change)
}

func TestApply_FailingDebitSkipsCredit(t *testing.T) {
	f := newFixture(t)
	f.receive(t, f.p1, f.w1, 5)

	_, err := f.engine.Apply(context.Background(), posting.Batch{
		ReferenceID: "TRF-2026-00002",
		Movements: []posting.Movement{
			{ProductID: f.p1, WarehouseID: f.w1, Type: entity.MovementTransfer, Delta: -20},
			{ProductID: f.p1, WarehouseID: f.w2, Type: entity.MovementTransfer, Delta: 20},
		},
	})
	require.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
	assert.Equal(t, int64(5), f.qty(t, f.p1, f.w1))
	assert.Zero(t, f.qty(t, f.p1, f.w2))
	assert.Len(t, f.ledger(t), 1)
}

func TestApply_AdjustmentDerivesDelta(t *testing.T) {
	f := newFixture(t)
	f.receive(t, f.p1, f.w1, 30)

	entry, err := f.engine.ApplyMovement(context.Background(), "ADJ-2026-00001", posting.Movement{
		ProductID: f.p1, WarehouseID: f.w1, Type: entity.MovementAdjustment, Target: 25,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(-5), entry.Change)
	assert.Equal(t, int64(30), entry.PreviousStock)
	assert.Equal(t, int64(25), entry.NewStock)

	_, err = f.engine.ApplyMovement(context.Background(), "ADJ-2026-00002", posting.Movement{
		ProductID: f.p1, WarehouseID: f.w1, Type: entity.MovementAdjustment, Target: 25,
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeNoOpMovement))
	assert.Len(t, f.ledger(t), 2)
}

func TestApply_RejectsMalformedMovements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		m    posting.Movement
		code string
	}{
		{"unknown type", posting.Movement{ProductID: f.p1, WarehouseID: f.w1, Type: "GIFT", Delta: 1}, apperror.CodeValidation},
		{"negative receipt", posting.Movement{ProductID: f.p1, WarehouseID: f.w1, Type: entity.MovementReceipt, Delta: -1}, apperror.CodeValidation},
		{"positive delivery", posting.Movement{ProductID: f.p1, WarehouseID: f.w1, Type: entity.MovementDelivery, Delta: 1}, apperror.CodeValidation},
		{"negative target", posting.Movement{ProductID: f.p1, WarehouseID: f.w1, Type: entity.MovementAdjustment, Target: -1}, apperror.CodeValidation},
		{"zero delta", posting.Movement{ProductID: f.p1, WarehouseID: f.w1, Type: entity.MovementReceipt}, apperror.CodeNoOpMovement},
		{"missing warehouse", posting.Movement{ProductID: f.p1, Type: entity.MovementReceipt, Delta: 1}, apperror.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.ApplyMovement(ctx, "REF", tt.m)
			assert.True(t, apperror.HasCode(err, tt.code), "got %v", err)
		})
	}

	_, err := f.engine.Apply(ctx, posting.Batch{ReferenceID: "EMPTY"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	assert.Empty(t, f.ledger(t))
}

type recordingStager struct {
	staged []entity.MovementEntry
	err    error
}

func (s *recordingStager) Stage(_ context.Context, entries []entity.MovementEntry) error {
	if s.err != nil {
		return s.err
	}
	s.staged = append(s.staged, entries...)
	return nil
}

func TestApply_StagesEntriesInTransaction(t *testing.T) {
	f := newFixture(t)
	stager := &recordingStager{}
	engine := posting.NewEngine(f.store.Stock(), f.store, posting.WithStager(stager))

	entries, err := engine.ApplyMovement(context.Background(), "RCP-2026-00003", posting.Movement{
		ProductID: f.p1, WarehouseID: f.w1, Type: entity.MovementReceipt, Delta: 7,
	})
	require.NoError(t, err)
	require.Len(t, stager.staged, 1)
	assert.Equal(t, entries.ID, stager.staged[0].ID)

	// a failing stager rolls the whole batch back
	stager.err = errors.New("outbox unavailable")
	_, err = engine.ApplyMovement(context.Background(), "RCP-2026-00004", posting.Movement{
		ProductID: f.p1, WarehouseID: f.w1, Type: entity.MovementReceipt, Delta: 5,
	})
	require.ErrorIs(t, err, stager.err)
	assert.Equal(t, int64(7), f.qty(t, f.p1, f.w1))
	assert.Len(t, f.ledger(t), 1)
}

func TestApply_ReceiptOverflowIsRejected(t *testing.T) {
	f := newFixture(t)
	f.receive(t, f.p1, f.w1, 1)

	_, err := f.engine.ApplyMovement(context.Background(), "RCP-2026-00002", posting.Movement{
		ProductID: f.p1, WarehouseID: f.w1, Type: entity.MovementReceipt, Delta: math.MaxInt64,
	})
	require.True(t, apperror.HasCode(err, apperror.CodeValidation), "got %v", err)
	assert.False(t, apperror.HasCode(err, apperror.CodeInsufficientStock))

	assert.Equal(t, int64(1), f.qty(t, f.p1, f.w1))
	assert.Len(t, f.ledger(t), 1)

	_, err = f.engine.ApplyMovement(context.Background(), "TRF-2026-00001", posting.Movement{
		ProductID: f.p1, WarehouseID: f.w1, Type: entity.MovementTransfer, Delta: math.MinInt64,
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "got %v", err)
}

func TestApply_RunningTotalMatchesLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	deltas := []int64{10, -3, 7, -14, 40, -1}
	var sum int64
	for _, d := range deltas {
		typ := entity.MovementReceipt
		if d < 0 {
			typ = entity.MovementDelivery
		}
		_, err := f.engine.ApplyMovement(ctx, "REF", posting.Movement{ProductID: f.p1, WarehouseID: f.w1, Type: typ, Delta: d})
		require.NoError(t, err)
		sum += d
	}

	entries := f.ledger(t)
	require.Len(t, entries, len(deltas))
	for i, e := range entries {
		assert.True(t, e.Consistent())
		if i > 0 {
			assert.Equal(t, entries[i-1].NewStock, e.PreviousStock)
		}
	}
	assert.Equal(t, sum, entries[len(entries)-1].NewStock)
	assert.Equal(t, sum, f.qty(t, f.p1, f.w1))
}

func TestApply_ConcurrentDeliveriesNeverGoNegative(t *testing.T) {
	f := newFixture(t)
	f.receive(t, f.p1, f.w1, 10)

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.ApplyMovement(context.Background(), "DO", posting.Movement{
				ProductID: f.p1, WarehouseID: f.w1, Type: entity.MovementDelivery, Delta: -8,
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, insufficient int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case apperror.HasCode(err, apperror.CodeInsufficientStock):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, insufficient)
	assert.Equal(t, int64(2), f.qty(t, f.p1, f.w1))
}

func TestApply_OppositeTransfersDoNotDeadlock(t *testing.T) {
	f := newFixture(t)
	f.receive(t, f.p1, f.w1, 100)
	f.receive(t, f.p1, f.w2, 100)

	transfer := func(from, to id.ID) error {
		_, err := f.engine.Apply(context.Background(), posting.Batch{
			ReferenceID: "TRF",
			Movements: []posting.Movement{
				{ProductID: f.p1, WarehouseID: from, Type: entity.MovementTransfer, Delta: -1},
				{ProductID: f.p1, WarehouseID: to, Type: entity.MovementTransfer, Delta: 1},
			},
		})
		return err
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); assert.NoError(t, transfer(f.w1, f.w2)) }()
		go func() { defer wg.Done(); assert.NoError(t, transfer(f.w2, f.w1)) }()
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("transfers deadlocked")
	}

	assert.Equal(t, int64(200), f.qty(t, f.p1, f.w1)+f.qty(t, f.p1, f.w2))
}

type failingPostable struct{}

func (failingPostable) PostingReference() string { return "X" }
func (failingPostable) GenerateMovements(context.Context) ([]posting.Movement, error) {
	return nil, assert.AnError
}

func TestPost_FinalizeErrorRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Post(ctx, failingPostable{}, nil)
	require.ErrorIs(t, err, assert.AnError)

	doc := &singleReceipt{p: f.p1, w: f.w1, qty: 4}
	_, err = f.engine.Post(ctx, doc, func(context.Context, []entity.MovementEntry) error {
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, f.qty(t, f.p1, f.w1))
	assert.Empty(t, f.ledger(t))

	entries, err := f.engine.Post(ctx, doc, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "RCP-TEST", entries[0].ReferenceID)
}

type singleReceipt struct {
	p, w id.ID
	qty  int64
}

func (d *singleReceipt) PostingReference() string { return "RCP-TEST" }
func (d *singleReceipt) GenerateMovements(context.Context) ([]posting.Movement, error) {
	return []posting.Movement{{ProductID: d.p, WarehouseID: d.w, Type: entity.MovementReceipt, Delta: d.qty}}, nil
}
