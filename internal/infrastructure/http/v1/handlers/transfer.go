package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/documents/transfer"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// TransferHandler handles HTTP requests for transfer documents.
type TransferHandler struct {
	*BaseDocumentHandler[*transfer.Transfer, dto.TransferResponse]
	service *transfer.Service
}

// NewTransferHandler creates a new transfer handler.
func NewTransferHandler(base *BaseHandler, service *transfer.Service) *TransferHandler {
	return &TransferHandler{
		BaseDocumentHandler: NewBaseDocumentHandler(base, BaseDocumentHandlerConfig[*transfer.Transfer, dto.TransferResponse]{
			GetByID:  service.GetByID,
			List:     service.List,
			Validate: service.Validate,
			MapToDTO: dto.FromTransfer,
		}),
		service: service,
	}
}

// Create handles POST /transfers
func (h *TransferHandler) Create(c *gin.Context) {
	var req dto.CreateTransferRequest
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

	h.Created(c, dto.FromTransfer(doc))
}

// Update handles PUT /transfers/:id. Source and destination must still differ.
func (h *TransferHandler) Update(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req dto.UpdateTransferRequest
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

	h.OK(c, dto.FromTransfer(doc))
}

// RegisterRoutes registers transfer routes.
func (h *TransferHandler) RegisterRoutes(rg *gin.RouterGroup) {
	h.BaseDocumentHandler.RegisterRoutes(rg)
	rg.POST("", h.Create)
	rg.PUT("/:id", h.Update)
}
