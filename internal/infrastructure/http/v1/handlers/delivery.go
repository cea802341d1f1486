package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/documents/delivery"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// DeliveryHandler handles HTTP requests for delivery documents.
type DeliveryHandler struct {
	*BaseDocumentHandler[*delivery.Delivery, dto.DeliveryResponse]
	service *delivery.Service
}

// NewDeliveryHandler creates a new delivery handler.
func NewDeliveryHandler(base *BaseHandler, service *delivery.Service) *DeliveryHandler {
	return &DeliveryHandler{
		BaseDocumentHandler: NewBaseDocumentHandler(base, BaseDocumentHandlerConfig[*delivery.Delivery, dto.DeliveryResponse]{
			GetByID:  service.GetByID,
			List:     service.List,
			Validate: service.Validate,
			MapToDTO: dto.FromDelivery,
		}),
		service: service,
	}
}

// Create handles POST /deliveries. Stock is pre-checked here without locks
// and checked again under lock on validate.
func (h *DeliveryHandler) Create(c *gin.Context) {
	var req dto.CreateDeliveryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromDelivery(doc))
}

// Update handles PUT /deliveries/:id
func (h *DeliveryHandler) Update(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req dto.UpdateDeliveryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.Update(c.Request.Context(), docID, in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromDelivery(doc))
}

// RegisterRoutes registers delivery routes.
func (h *DeliveryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	h.BaseDocumentHandler.RegisterRoutes(rg)
	rg.POST("", h.Create)
	rg.PUT("/:id", h.Update)
}
