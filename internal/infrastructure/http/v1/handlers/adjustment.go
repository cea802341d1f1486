package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/documents/adjustment"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// AdjustmentHandler handles HTTP requests for adjustments. Adjustments are
// applied on creation, so there is no update or validate route.
type AdjustmentHandler struct {
	*BaseDocumentHandler[*adjustment.Adjustment, dto.AdjustmentResponse]
	service *adjustment.Service
}

// NewAdjustmentHandler creates a new adjustment handler.
func NewAdjustmentHandler(base *BaseHandler, service *adjustment.Service) *AdjustmentHandler {
	return &AdjustmentHandler{
		BaseDocumentHandler: NewBaseDocumentHandler(base, BaseDocumentHandlerConfig[*adjustment.Adjustment, dto.AdjustmentResponse]{
			GetByID:  service.GetByID,
			List:     service.List,
			MapToDTO: dto.FromAdjustment,
		}),
		service: service,
	}
}

// Create handles POST /adjustments
func (h *AdjustmentHandler) Create(c *gin.Context) {
	var req dto.CreateAdjustmentRequest
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

	h.Created(c, dto.FromAdjustment(doc))
}

// RegisterRoutes registers adjustment routes.
func (h *AdjustmentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	h.BaseDocumentHandler.RegisterRoutes(rg)
	rg.POST("", h.Create)
}
