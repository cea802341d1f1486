package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/registers/stock"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// StockHandler serves the stock index and the movement ledger.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		service:     service,
	}
}

// ListLevels handles GET /stock
func (h *StockHandler) ListLevels(c *gin.Context) {
	var q dto.LevelQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	levels, err := h.service.ListLevels(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.StockLevelResponse, 0, len(levels))
	for _, l := range levels {
		items = append(items, dto.FromLevelView(l))
	}
	h.OK(c, dto.StockLevelListResponse{Items: items})
}

// ListMovements handles GET /movements
func (h *StockHandler) ListMovements(c *gin.Context) {
	var q dto.MovementQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.QueryMovements(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, dto.Identity[stock.MovementView]))
}

// GetMovement handles GET /movements/:id
func (h *StockHandler) GetMovement(c *gin.Context) {
	movementID, ok := h.ParamID(c)
	if !ok {
		return
	}

	view, err := h.service.GetMovement(c.Request.Context(), movementID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, view)
}

// RegisterRoutes registers stock and ledger routes.
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stock", h.ListLevels)
	rg.GET("/movements", h.ListMovements)
	rg.GET("/movements/:id", h.GetMovement)
}
