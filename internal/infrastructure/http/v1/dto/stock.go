package dto

import (
	"strings"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/domain/registers/stock"
)

// MovementQuery holds the query parameters of GET /movements.
type MovementQuery struct {
	ProductID    string `form:"productId"`
	WarehouseID  string `form:"warehouseId"`
	MovementType string `form:"movementType"`
	ReferenceID  string `form:"referenceId"`
	StartDate    string `form:"startDate"`
	EndDate      string `form:"endDate"`
	Page         int    `form:"page"`
	Limit        int    `form:"limit"`
	SortBy       string `form:"sortBy"`
	SortOrder    string `form:"sortOrder"`
}

// ToFilter parses the query into a ledger filter.
func (q MovementQuery) ToFilter() (stock.MovementFilter, error) {
	f := stock.MovementFilter{
		ReferenceID: strings.TrimSpace(q.ReferenceID),
		Page:        q.Page,
		Limit:       q.Limit,
		SortBy:      q.SortBy,
		SortOrder:   q.SortOrder,
	}

	if q.MovementType != "" {
		mt := entity.MovementType(strings.ToUpper(q.MovementType))
		if !mt.Valid() {
			return f, apperror.NewValidation("unknown movement type").
				WithDetail("field", "movementType").
				WithDetail("value", q.MovementType)
		}
		f.MovementType = &mt
	}

	var err error
	if f.ProductID, err = ParseOptionalID("productId", q.ProductID); err != nil {
		return f, err
	}
	if f.WarehouseID, err = ParseOptionalID("warehouseId", q.WarehouseID); err != nil {
		return f, err
	}
	if f.StartDate, err = ParseOptionalTime("startDate", q.StartDate, false); err != nil {
		return f, err
	}
	if f.EndDate, err = ParseOptionalTime("endDate", q.EndDate, true); err != nil {
		return f, err
	}
	return f, nil
}

// LevelQuery holds the query parameters of GET /stock.
type LevelQuery struct {
	ProductID   string `form:"productId"`
	WarehouseID string `form:"warehouseId"`
	ExcludeZero bool   `form:"excludeZero"`
}

// ToFilter parses the query into a stock index filter.
func (q LevelQuery) ToFilter() (stock.LevelFilter, error) {
	f := stock.LevelFilter{ExcludeZero: q.ExcludeZero}
	var err error
	if f.ProductID, err = ParseOptionalID("productId", q.ProductID); err != nil {
		return f, err
	}
	if f.WarehouseID, err = ParseOptionalID("warehouseId", q.WarehouseID); err != nil {
		return f, err
	}
	return f, nil
}

// StockLevelResponse is one stock index row.
type StockLevelResponse struct {
	stock.LevelView
	LowStock bool `json:"lowStock"`
}

// FromLevelView converts a level view.
func FromLevelView(v stock.LevelView) StockLevelResponse {
	return StockLevelResponse{LevelView: v, LowStock: v.LowStock()}
}

// StockLevelListResponse lists stock index rows.
type StockLevelListResponse struct {
	Items []StockLevelResponse `json:"items"`
}
