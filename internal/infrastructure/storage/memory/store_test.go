package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/documents"
	"stockledger/internal/domain/documents/receipt"
	"stockledger/internal/domain/registers/stock"
)

func TestRunInTransaction_RollbackUndoesWrites(t *testing.T) {
	s := New()
	ctx := context.Background()
	key := entity.StockKey{ProductID: id.New(), WarehouseID: id.New()}

	boom := errors.New("boom")
	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Stock().UpsertLevels(ctx, []entity.StockLevel{{ProductID: key.ProductID, WarehouseID: key.WarehouseID, Quantity: 10}}))
		require.NoError(t, s.Stock().AppendMovements(ctx, []entity.MovementEntry{{
			ID: id.New(), ProductID: key.ProductID, WarehouseID: key.WarehouseID,
			MovementType: entity.MovementReceipt, Change: 10, NewStock: 10,
		}}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	qty, err := s.Stock().GetLevel(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, qty)

	res, err := s.Stock().QueryMovements(ctx, stock.MovementFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, res.TotalCount)
}

func TestAppendMovements_InconsistentEntryWritesNothing(t *testing.T) {
	s := New()
	ctx := context.Background()
	key := entity.StockKey{ProductID: id.New(), WarehouseID: id.New()}
	good := entity.MovementEntry{
		ID: id.New(), ProductID: key.ProductID, WarehouseID: key.WarehouseID,
		MovementType: entity.MovementReceipt, Change: 10, NewStock: 10,
	}
	bad := entity.MovementEntry{
		ID: id.New(), ProductID: key.ProductID, WarehouseID: key.WarehouseID,
		MovementType: entity.MovementReceipt, Change: 5, PreviousStock: 10, NewStock: 99,
	}

	var appendErr error
	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		appendErr = s.Stock().AppendMovements(ctx, []entity.MovementEntry{good, bad})
		return nil
	})
	require.NoError(t, err)
	require.Error(t, appendErr)

	res, err := s.Stock().QueryMovements(ctx, stock.MovementFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, res.TotalCount)

	require.Error(t, s.Stock().AppendMovements(ctx, []entity.MovementEntry{good, bad}))
	res, err = s.Stock().QueryMovements(ctx, stock.MovementFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, res.TotalCount)
}

func TestRunInTransaction_NestedJoinsOuter(t *testing.T) {
	s := New()
	ctx := context.Background()
	key := entity.StockKey{ProductID: id.New(), WarehouseID: id.New()}

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		inner := s.RunInTransaction(ctx, func(ctx context.Context) error {
			return s.Stock().UpsertLevels(ctx, []entity.StockLevel{{ProductID: key.ProductID, WarehouseID: key.WarehouseID, Quantity: 3}})
		})
		require.NoError(t, inner)
		return errors.New("outer fails")
	})
	require.Error(t, err)

	qty, _ := s.Stock().GetLevel(ctx, key)
	assert.Zero(t, qty, "inner write must roll back with the outer transaction")
}

func TestGetLevelsForUpdate_BlocksSecondTransaction(t *testing.T) {
	s := New()
	ctx := context.Background()
	key := entity.StockKey{ProductID: id.New(), WarehouseID: id.New()}

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		_ = s.RunInTransaction(ctx, func(ctx context.Context) error {
			if _, err := s.Stock().GetLevelsForUpdate(ctx, []entity.StockKey{key}); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err := s.RunInTransaction(waitCtx, func(ctx context.Context) error {
		_, err := s.Stock().GetLevelsForUpdate(ctx, []entity.StockKey{key})
		return err
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	<-done

	err = s.RunInTransaction(ctx, func(ctx context.Context) error {
		_, err := s.Stock().GetLevelsForUpdate(ctx, []entity.StockKey{key})
		return err
	})
	assert.NoError(t, err)
}

func TestLockOutsideTransaction(t *testing.T) {
	s := New()
	_, err := s.Stock().GetLevelsForUpdate(context.Background(), []entity.StockKey{{ProductID: id.New(), WarehouseID: id.New()}})
	assert.Error(t, err)
}

func TestDocTable_OptimisticVersion(t *testing.T) {
	s := New()
	ctx := context.Background()
	repo := s.Receipts()

	doc := receipt.NewReceipt(id.New(), "Acme")
	doc.Number = "RCP-2026-00001"
	require.NoError(t, repo.Create(ctx, doc))

	dup := receipt.NewReceipt(id.New(), "Other")
	dup.Number = doc.Number
	assert.True(t, apperror.HasCode(repo.Create(ctx, dup), apperror.CodeDuplicate))

	stale, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)

	doc.Touch()
	require.NoError(t, repo.Update(ctx, doc))

	stale.Touch()
	err = repo.Update(ctx, stale)
	assert.True(t, apperror.HasCode(err, apperror.CodeConcurrentModification))

	_, err = repo.GetByID(ctx, id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestDocTable_ListFilterAndPaging(t *testing.T) {
	s := New()
	ctx := context.Background()
	w1, w2 := id.New(), id.New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		wh := w1
		if i%2 == 1 {
			wh = w2
		}
		doc := receipt.NewReceipt(wh, "Supplier")
		doc.Number = fmt.Sprintf("RCP-2026-%05d", i+1)
		doc.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.Receipts().Create(ctx, doc))
	}

	f := documents.ListFilter{WarehouseID: &w1}
	require.NoError(t, f.Normalize())
	res, err := s.Receipts().List(ctx, f)
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.TotalCount)
	require.Len(t, res.Items, 3)
	assert.True(t, res.Items[0].CreatedAt.After(res.Items[1].CreatedAt), "default sort is createdAt desc")

	f = documents.ListFilter{}
	f.Limit, f.Page = 2, 3
	require.NoError(t, f.Normalize())
	res, err = s.Receipts().List(ctx, f)
	require.NoError(t, err)
	assert.EqualValues(t, 5, res.TotalCount)
	assert.Len(t, res.Items, 1)
	assert.Equal(t, 3, res.Pages())
}
