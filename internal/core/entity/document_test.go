package entity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
)

func TestDocument_MarkAppliedOnce(t *testing.T) {
	doc := NewDocument()
	require.Equal(t, StatusEditable, doc.Status)
	require.NoError(t, doc.CanModify(DocumentTypeReceipt))

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, doc.MarkApplied(DocumentTypeReceipt, at))
	assert.True(t, doc.IsApplied())
	require.NotNil(t, doc.AppliedAt)
	assert.Equal(t, at, *doc.AppliedAt)
	assert.Equal(t, 2, doc.Version)

	err := doc.MarkApplied(DocumentTypeReceipt, at.Add(time.Hour))
	assert.True(t, apperror.HasCode(err, apperror.CodeAlreadyApplied))
	assert.Equal(t, at, *doc.AppliedAt)
	assert.Equal(t, 2, doc.Version)

	err = doc.CanModify(DocumentTypeReceipt)
	assert.True(t, apperror.HasCode(err, apperror.CodeDocumentAlreadyApplied))
}

func TestValidateLines(t *testing.T) {
	ctx := context.Background()
	p1, p2 := id.New(), id.New()

	tests := []struct {
		name    string
		lines   []LineItem
		wantErr bool
	}{
		{"empty", nil, true},
		{"nil product", []LineItem{{Quantity: 1}}, true},
		{"zero quantity", []LineItem{{ProductID: p1, Quantity: 0}}, true},
		{"negative quantity", []LineItem{{ProductID: p1, Quantity: -4}}, true},
		{"duplicate product", []LineItem{{ProductID: p1, Quantity: 1}, {ProductID: p1, Quantity: 2}}, true},
		{"ok", []LineItem{{ProductID: p1, Quantity: 1}, {ProductID: p2, Quantity: 3}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLines(ctx, tt.lines)
			if tt.wantErr {
				assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
				return
			}
			require.NoError(t, err)
			for i, l := range tt.lines {
				assert.Equal(t, i+1, l.LineNo)
			}
		})
	}
}

func TestStockKey_CompareIsTotalOrder(t *testing.T) {
	w1 := id.MustParse("00000000-0000-0000-0000-000000000001")
	w2 := id.MustParse("00000000-0000-0000-0000-000000000002")
	p1 := id.MustParse("00000000-0000-0000-0000-00000000000a")
	p2 := id.MustParse("00000000-0000-0000-0000-00000000000b")

	a := StockKey{WarehouseID: w1, ProductID: p2}
	b := StockKey{WarehouseID: w2, ProductID: p1}
	c := StockKey{WarehouseID: w1, ProductID: p1}

	assert.Negative(t, a.Compare(b))
	assert.Positive(t, a.Compare(c))
	assert.Zero(t, a.Compare(a))
}

func TestMovementEntry_Consistent(t *testing.T) {
	assert.True(t, MovementEntry{PreviousStock: 30, Change: -5, NewStock: 25}.Consistent())
	assert.False(t, MovementEntry{PreviousStock: 30, Change: -5, NewStock: 20}.Consistent())
}
