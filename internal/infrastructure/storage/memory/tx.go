// Package memory is an in-process storage driver. It implements every
// repository and tx.Manager with per-key locks and an undo log, so domain
// code runs against it with the same locking discipline as Postgres.
//
// Reads outside a lock may observe uncommitted writes of other transactions.
// Every read that feeds a write goes through a locking method.
package memory

import (
	"context"
	"fmt"
	"sync"
)

// lockTable hands out one exclusive lock per key. Locks are channels so a
// waiting transaction can give up when its context is cancelled.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]chan struct{})}
}

func (t *lockTable) get(key string) chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		t.locks[key] = ch
	}
	return ch
}

type txState struct {
	held map[string]chan struct{}
	undo []func()
}

type txKey struct{}

func txFromContext(ctx context.Context) *txState {
	st, _ := ctx.Value(txKey{}).(*txState)
	return st
}

// RunInTransaction implements tx.Manager. Nested calls join the outer transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	st := &txState{held: make(map[string]chan struct{})}
	ctx = context.WithValue(ctx, txKey{}, st)

	defer func() {
		if p := recover(); p != nil {
			s.rollback(st)
			panic(p)
		}
		if err != nil {
			s.rollback(st)
			return
		}
		s.release(st)
	}()

	return fn(ctx)
}

// ReadOnly implements tx.ReadOnlyManager.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// lock acquires key for the transaction in ctx and holds it until commit or
// rollback. Re-acquiring a held key is a no-op.
func (s *Store) lock(ctx context.Context, key string) error {
	st := txFromContext(ctx)
	if st == nil {
		return fmt.Errorf("memory: lock %q requires a transaction", key)
	}
	if _, ok := st.held[key]; ok {
		return nil
	}
	ch := s.locks.get(key)
	select {
	case ch <- struct{}{}:
		st.held[key] = ch
		return nil
	case <-ctx.Done():
		return fmt.Errorf("memory: lock %q: %w", key, ctx.Err())
	}
}

// onRollback registers an undo step for the transaction in ctx.
// Outside a transaction writes are final and nothing is recorded.
func onRollback(ctx context.Context, undo func()) {
	if st := txFromContext(ctx); st != nil {
		st.undo = append(st.undo, undo)
	}
}

func (s *Store) rollback(st *txState) {
	s.mu.Lock()
	for i := len(st.undo) - 1; i >= 0; i-- {
		st.undo[i]()
	}
	s.mu.Unlock()
	s.release(st)
}

func (s *Store) release(st *txState) {
	for key, ch := range st.held {
		<-ch
		delete(st.held, key)
	}
}
