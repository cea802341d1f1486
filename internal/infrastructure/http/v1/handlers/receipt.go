package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/documents/receipt"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// ReceiptHandler handles HTTP requests for receipt documents.
type ReceiptHandler struct {
	*BaseDocumentHandler[*receipt.Receipt, dto.ReceiptResponse]
	service *receipt.Service
}

// NewReceiptHandler creates a new receipt handler.
func NewReceiptHandler(base *BaseHandler, service *receipt.Service) *ReceiptHandler {
	return &ReceiptHandler{
		BaseDocumentHandler: NewBaseDocumentHandler(base, BaseDocumentHandlerConfig[*receipt.Receipt, dto.ReceiptResponse]{
			GetByID:  service.GetByID,
			List:     service.List,
			Validate: service.Validate,
			MapToDTO: dto.FromReceipt,
		}),
		service: service,
	}
}

// Create handles POST /receipts
func (h *ReceiptHandler) Create(c *gin.Context) {
	var req dto.CreateReceiptRequest
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

	h.Created(c, dto.FromReceipt(doc))
}

// Update handles PUT /receipts/:id
func (h *ReceiptHandler) Update(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req dto.UpdateReceiptRequest
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

	h.OK(c, dto.FromReceipt(doc))
}

// RegisterRoutes registers receipt routes.
func (h *ReceiptHandler) RegisterRoutes(rg *gin.RouterGroup) {
	h.BaseDocumentHandler.RegisterRoutes(rg)
	rg.POST("", h.Create)
	rg.PUT("/:id", h.Update)
}
