package numerator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	core "stockledger/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates sys_sequences: "+ $2" bumps, "= $2" overwrites.
type mockQuerier struct {
	mu     sync.Mutex
	values map[string]int64
	calls  int
	err    error
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{values: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return &mockRow{err: m.err}
	}

	key := args[0].(string)
	n := args[1].(int64)
	if strings.Contains(sql, "current_val + $2") {
		m.values[key] += n
	} else {
		m.values[key] = n
	}
	return &mockRow{val: m.values[key]}
}

var period = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

func TestGetNextNumber_Strict(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := core.DefaultConfig(core.PrefixReceipt)

	num, err := svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "RCP-2026-00001", num)

	num, err = svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "RCP-2026-00002", num)
	assert.Equal(t, 2, q.calls)
}

func TestGetNextNumber_CachedReservesRanges(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := core.DefaultConfig(core.PrefixDelivery)
	opts := &core.Options{Strategy: core.StrategyCached, RangeSize: 10}

	for i := 1; i <= 10; i++ {
		num, err := svc.GetNextNumber(ctx, cfg, opts, period)
		require.NoError(t, err)
		assert.Equal(t, int64(i), ParseNumber(num))
	}
	assert.Equal(t, 1, q.calls)
	assert.Equal(t, int64(10), q.values["DO_2026"])

	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "DO-2026-00011", num)
	assert.Equal(t, 2, q.calls)
	assert.Equal(t, int64(20), q.values["DO_2026"])
}

func TestSetNextNumber_InvalidatesCache(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := core.DefaultConfig(core.PrefixTransfer)
	opts := &core.Options{Strategy: core.StrategyCached, RangeSize: 10}

	_, err := svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)

	require.NoError(t, svc.SetNextNumber(ctx, cfg, period, 100))

	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "TRF-2026-00101", num)
}

func TestGetNextNumber_PropagatesDBError(t *testing.T) {
	q := newMockQuerier()
	q.err = errors.New("relation sys_sequences does not exist")
	svc := New(q)

	_, err := svc.GetNextNumber(context.Background(), core.DefaultConfig(core.PrefixAdjustment), nil, period)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reserve sequence ADJ_2026")
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, int64(42), ParseNumber("RCP-2026-00042"))
	assert.Equal(t, int64(7), ParseNumber("X-007"))
	assert.Equal(t, int64(-1), ParseNumber("garbage"))
}
