package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/notify"
	"stockledger/internal/infrastructure/http/v1/dto"
)

const sseKeepAlive = 25 * time.Second

// EventsHandler streams notifications as Server-Sent Events.
type EventsHandler struct {
	*BaseHandler
	hub       *notify.Hub
	keepAlive time.Duration
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(base *BaseHandler, hub *notify.Hub) *EventsHandler {
	return &EventsHandler{BaseHandler: base, hub: hub, keepAlive: sseKeepAlive}
}

// Stream handles GET /stock/events. Optional productId and warehouseId
// narrow stock-update events; dashboard-update events are always sent.
func (h *EventsHandler) Stream(c *gin.Context) {
	productID, err := dto.ParseOptionalID("productId", c.Query("productId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	warehouseID, err := dto.ParseOptionalID("warehouseId", c.Query("warehouseId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	// The stream outlives the server write timeout.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	events, cancel := h.hub.Subscribe()
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.SSEvent("ready", gin.H{"subscribers": h.hub.Subscribers()})
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"time": time.Now().UTC()})
			return true
		case ev, ok := <-events:
			if !ok {
				return false
			}
			if matchEvent(ev, productID, warehouseID) {
				c.SSEvent(ev.Name, ev.Payload())
			}
			return true
		}
	})
}

func matchEvent(ev notify.Event, productID, warehouseID *id.ID) bool {
	if ev.Stock == nil {
		return true
	}
	if productID != nil && ev.Stock.ProductID != *productID {
		return false
	}
	if warehouseID != nil && ev.Stock.WarehouseID != *warehouseID {
		return false
	}
	return true
}
