package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
)

var sortFields = map[string]string{"createdAt": "created_at", "number": "number"}

func TestListFilter_NormalizeDefaults(t *testing.T) {
	f := ListFilter{}
	require.NoError(t, f.Normalize("createdAt", sortFields))

	assert.Equal(t, 1, f.Page)
	assert.Equal(t, DefaultLimit, f.Limit)
	assert.Equal(t, "createdAt", f.SortBy)
	assert.Equal(t, SortDesc, f.SortOrder)
	assert.Equal(t, 0, f.Offset())
}

func TestListFilter_NormalizeRejects(t *testing.T) {
	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)

	tests := []struct {
		name   string
		filter ListFilter
	}{
		{"unknown sort", ListFilter{SortBy: "password"}},
		{"bad order", ListFilter{SortOrder: "sideways"}},
		{"inverted range", ListFilter{DateFrom: &from, DateTo: &to}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Normalize("createdAt", sortFields)
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
		})
	}
}

func TestListFilter_OffsetAndClamp(t *testing.T) {
	f := ListFilter{Page: 3, Limit: 10_000, SortOrder: "ASC"}
	require.NoError(t, f.Normalize("number", sortFields))
	assert.Equal(t, MaxLimit, f.Limit)
	assert.Equal(t, 2*MaxLimit, f.Offset())
	assert.Equal(t, SortAsc, f.SortOrder)
}

func TestListResult_Pages(t *testing.T) {
	assert.Equal(t, 3, ListResult[int]{TotalCount: 21, Limit: 10}.Pages())
	assert.Equal(t, 0, ListResult[int]{TotalCount: 0, Limit: 10}.Pages())
	assert.Equal(t, 0, ListResult[int]{TotalCount: 5}.Pages())
}

func TestHookRegistry_StopsOnError(t *testing.T) {
	r := NewHookRegistry[*int]()
	calls := 0
	r.On(BeforeCreate, func(ctx context.Context, v *int) error { calls++; return nil })
	r.On(BeforeCreate, func(ctx context.Context, v *int) error { calls++; return errors.New("stop") })
	r.On(BeforeCreate, func(ctx context.Context, v *int) error { calls++; return nil })

	n := 1
	err := r.Run(context.Background(), BeforeCreate, &n)
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.NoError(t, r.Run(context.Background(), AfterApply, &n))
}
