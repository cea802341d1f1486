package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/core/entity"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/catalogs/warehouse"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// CatalogHandler serves the read-only product and warehouse catalogs.
type CatalogHandler struct {
	*BaseHandler
	products   *product.Service
	warehouses *warehouse.Service
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(base *BaseHandler, products *product.Service, warehouses *warehouse.Service) *CatalogHandler {
	return &CatalogHandler{
		BaseHandler: base,
		products:    products,
		warehouses:  warehouses,
	}
}

// ListProducts handles GET /products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var q dto.CatalogListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToProductFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.products.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result, dto.Identity[entity.Product]))
}

// GetProduct handles GET /products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	productID, ok := h.ParamID(c)
	if !ok {
		return
	}
	p, err := h.products.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// ListWarehouses handles GET /warehouses
func (h *CatalogHandler) ListWarehouses(c *gin.Context) {
	var q dto.CatalogListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.warehouses.List(c.Request.Context(), q.ToListFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result, dto.Identity[entity.Warehouse]))
}

// GetWarehouse handles GET /warehouses/:id
func (h *CatalogHandler) GetWarehouse(c *gin.Context) {
	warehouseID, ok := h.ParamID(c)
	if !ok {
		return
	}
	w, err := h.warehouses.GetByID(c.Request.Context(), warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, w)
}

// RegisterRoutes registers catalog routes.
func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/products", h.ListProducts)
	rg.GET("/products/:id", h.GetProduct)
	rg.GET("/warehouses", h.ListWarehouses)
	rg.GET("/warehouses/:id", h.GetWarehouse)
}
