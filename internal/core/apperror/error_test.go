package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsAppError_WrappedChain(t *testing.T) {
	base := NewInsufficientStock("p1", "w1", 60, 50)
	wrapped := fmt.Errorf("validate delivery: %w", base)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeInsufficientStock, appErr.Code)
	assert.Equal(t, int64(60), appErr.Details["requested"])
	assert.Equal(t, int64(50), appErr.Details["available"])
	assert.Equal(t, http.StatusBadRequest, GetHTTPStatus(wrapped))
}

func TestHTTPStatusByCode(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		status int
	}{
		{"validation", NewValidation("bad"), http.StatusBadRequest},
		{"insufficient", NewInsufficientStock("p", "w", 1, 0), http.StatusBadRequest},
		{"noop", NewNoOpMovement("p", "w", 25), http.StatusBadRequest},
		{"already applied", NewAlreadyApplied("delivery", "d1"), http.StatusConflict},
		{"document applied", NewDocumentAlreadyApplied("receipt", "r1"), http.StatusConflict},
		{"not found", NewNotFound("product", "p1"), http.StatusNotFound},
		{"internal", NewInternal(errors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
		})
	}
}

func TestHasCodeAndClientError(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewNoOpMovement("p", "w", 3))

	assert.True(t, HasCode(err, CodeNoOpMovement))
	assert.False(t, HasCode(err, CodeInsufficientStock))
	assert.True(t, IsClientError(err))
	assert.False(t, IsClientError(NewInternal(errors.New("db down"))))
	assert.False(t, IsClientError(errors.New("plain")))
	assert.True(t, IsNotFound(NewNotFound("warehouse", "w1")))
}

func TestErrorString_IncludesCause(t *testing.T) {
	err := NewInternal(errors.New("connection reset"))
	assert.Contains(t, err.Error(), "connection reset")
	assert.ErrorIs(t, err, err.Err)
}
