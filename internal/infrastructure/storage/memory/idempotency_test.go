package memory

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
)

func TestIdempotencyStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewIdempotencyStore(time.Hour)

	replay, err := s.AcquireKey(ctx, "k1", "u1", "POST /receipts", "h1")
	require.NoError(t, err)
	assert.Nil(t, replay)

	_, err = s.AcquireKey(ctx, "k1", "u1", "POST /receipts", "h1")
	assert.True(t, apperror.HasCode(err, apperror.CodeIdempotency), "in-flight key must conflict")

	_, err = s.AcquireKey(ctx, "k1", "u1", "POST /receipts", "other")
	assert.True(t, apperror.HasCode(err, apperror.CodeIdempotency))

	require.NoError(t, s.CompleteKey(ctx, "k1", http.StatusCreated, "application/json", map[string]string{"id": "r1"}))

	replay, err = s.AcquireKey(ctx, "k1", "u1", "POST /receipts", "h1")
	require.NoError(t, err)
	require.NotNil(t, replay)
	assert.Equal(t, http.StatusCreated, replay.StatusCode)
	assert.JSONEq(t, `{"id":"r1"}`, string(replay.Body))
}

func TestIdempotencyStore_StaleAndExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewIdempotencyStore(10 * time.Minute)
	s.now = func() time.Time { return now }

	_, err := s.AcquireKey(ctx, "k", "u", "op", "h")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	replay, err := s.AcquireKey(ctx, "k", "u", "op", "h")
	require.NoError(t, err, "stale pending key is reclaimed")
	assert.Nil(t, replay)

	now = now.Add(time.Hour)
	n, err := s.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
