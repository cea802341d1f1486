// Package idempotency defines replay protection for mutating HTTP requests.
package idempotency

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Status represents the state of an idempotent operation.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// StaleAfter is how long a pending key may sit before another request reclaims it.
const StaleAfter = time.Minute

// Replay is the cached HTTP response returned for a repeated key.
type Replay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Store manages idempotency keys.
//
// AcquireKey returns:
//   - (nil, nil) when the caller now owns the key
//   - (replay, nil) when the operation already finished
//   - (nil, err) when the key is in flight or reused for another request
type Store interface {
	AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*Replay, error)
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
	FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
}

// EncodeResponse marshals a response for storage. Failures degrade to a
// minimal error body so the key still completes.
func EncodeResponse(response any) []byte {
	if response == nil {
		return nil
	}
	b, err := json.Marshal(response)
	if err != nil {
		b, _ = json.Marshal(map[string]string{"error": err.Error()})
	}
	return b
}

// NewReplay builds a replay, defaulting status and content type of legacy rows.
func NewReplay(statusCode int, contentType string, body []byte) *Replay {
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	if contentType == "" {
		contentType = "application/json"
	}
	return &Replay{StatusCode: statusCode, ContentType: contentType, Body: body}
}
