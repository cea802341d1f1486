// Package notify carries post-commit stock and document events to subscribers.
// Delivery is best-effort: nothing here can fail or roll back a stock mutation.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
)

// Event names, shared by the SSE stream and the Redis channels.
const (
	EventStockUpdate     = "stock-update"
	EventDashboardUpdate = "dashboard-update"
)

// StockChanged reports the new quantity of one stock key.
type StockChanged struct {
	ProductID    id.ID               `json:"productId"`
	WarehouseID  id.ID               `json:"warehouseId"`
	Quantity     int64               `json:"quantity"`
	Change       int64               `json:"change"`
	MovementType entity.MovementType `json:"movementType"`
	ReferenceID  string              `json:"referenceId"`
	OccurredAt   time.Time           `json:"occurredAt"`
}

// DocumentChanged reports a document lifecycle step, e.g. "delivery-validated".
type DocumentChanged struct {
	Type         string              `json:"type"`
	DocumentType entity.DocumentType `json:"documentType"`
	DocumentID   id.ID               `json:"documentId"`
	Number       string              `json:"number"`
	OccurredAt   time.Time           `json:"occurredAt"`
}

// Event is one notification. Exactly one of Stock or Document is set.
type Event struct {
	Name     string
	Stock    *StockChanged
	Document *DocumentChanged
}

// Payload returns the value serialised for subscribers.
func (e Event) Payload() any {
	if e.Stock != nil {
		return e.Stock
	}
	if e.Document != nil {
		return e.Document
	}
	return nil
}

// MarshalPayload encodes the payload as JSON.
func (e Event) MarshalPayload() ([]byte, error) {
	payload := e.Payload()
	if payload == nil {
		return nil, fmt.Errorf("event %q has no payload", e.Name)
	}
	return json.Marshal(payload)
}

// StockEvents builds one stock-update event per key touched by entries,
// carrying the key's final quantity. Order follows first appearance.
func StockEvents(entries []entity.MovementEntry) []Event {
	index := make(map[entity.StockKey]int, len(entries))
	events := make([]Event, 0, len(entries))
	for _, e := range entries {
		change := StockChanged{
			ProductID:    e.ProductID,
			WarehouseID:  e.WarehouseID,
			Quantity:     e.NewStock,
			Change:       e.Change,
			MovementType: e.MovementType,
			ReferenceID:  e.ReferenceID,
			OccurredAt:   e.CreatedAt,
		}
		if i, ok := index[e.Key()]; ok {
			change.Change += events[i].Stock.Change
			events[i].Stock = &change
			continue
		}
		index[e.Key()] = len(events)
		events = append(events, Event{Name: EventStockUpdate, Stock: &change})
	}
	return events
}

// DocumentEvent builds a dashboard-update event such as "receipt-validated".
func DocumentEvent(action string, docType entity.DocumentType, docID id.ID, number string) Event {
	return Event{
		Name: EventDashboardUpdate,
		Document: &DocumentChanged{
			Type:         fmt.Sprintf("%s-%s", docType, action),
			DocumentType: docType,
			DocumentID:   docID,
			Number:       number,
			OccurredAt:   time.Now().UTC(),
		},
	}
}

// Publisher accepts events after commit. Implementations must not block.
type Publisher interface {
	Publish(ctx context.Context, events ...Event)
}

// Sink delivers events to one destination.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event Event) error
}

// Discard is a Publisher that drops everything.
type Discard struct{}

func (Discard) Publish(context.Context, ...Event) {}
