package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/documents"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// BaseDocumentHandlerConfig configures the document handler.
type BaseDocumentHandlerConfig[T any, R any] struct {
	GetByID func(ctx context.Context, id id.ID) (T, error)
	List    func(ctx context.Context, filter documents.ListFilter) (domain.ListResult[T], error)

	// Validate is nil for documents applied on creation.
	Validate func(ctx context.Context, id id.ID) (T, error)

	MapToDTO func(doc T) R
}

// BaseDocumentHandler provides the read and validate endpoints shared by
// all document types. Create and update bodies differ, so the typed
// handlers implement those.
type BaseDocumentHandler[T any, R any] struct {
	*BaseHandler
	cfg BaseDocumentHandlerConfig[T, R]
}

// NewBaseDocumentHandler creates a new base document handler.
func NewBaseDocumentHandler[T any, R any](base *BaseHandler, cfg BaseDocumentHandlerConfig[T, R]) *BaseDocumentHandler[T, R] {
	return &BaseDocumentHandler[T, R]{BaseHandler: base, cfg: cfg}
}

// Get handles GET /{documents}/:id
func (h *BaseDocumentHandler[T, R]) Get(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}

	doc, err := h.cfg.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, h.cfg.MapToDTO(doc))
}

// List handles GET /{documents}
func (h *BaseDocumentHandler[T, R]) List(c *gin.Context) {
	var q dto.DocumentListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.cfg.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, h.cfg.MapToDTO))
}

// Validate handles POST /{documents}/:id/validate. Repeating it on an
// applied document returns ALREADY_APPLIED.
func (h *BaseDocumentHandler[T, R]) Validate(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}

	doc, err := h.cfg.Validate(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, h.cfg.MapToDTO(doc))
}

// RegisterRoutes registers the shared routes. Create and update are
// registered by the typed handler.
func (h *BaseDocumentHandler[T, R]) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	if h.cfg.Validate != nil {
		rg.POST("/:id/validate", h.Validate)
	}
}
