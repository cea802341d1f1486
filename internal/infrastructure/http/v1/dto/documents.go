package dto

import (
	"fmt"
	"strings"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/documents/adjustment"
	"stockledger/internal/domain/documents/delivery"
	"stockledger/internal/domain/documents/receipt"
	"stockledger/internal/domain/documents/transfer"
)

// --- Receipt ---

// CreateReceiptRequest is the body of POST /receipts.
type CreateReceiptRequest struct {
	WarehouseID string        `json:"warehouseId" binding:"required"`
	Supplier    string        `json:"supplier"`
	Note        string        `json:"note"`
	Items       []LineRequest `json:"items"`
}

// ToEntity converts request to domain entity.
func (r CreateReceiptRequest) ToEntity() (*receipt.Receipt, error) {
	warehouseID, err := ParseID("warehouseId", r.WarehouseID)
	if err != nil {
		return nil, err
	}
	lines, err := ToLineItems(r.Items)
	if err != nil {
		return nil, err
	}
	doc := receipt.NewReceipt(warehouseID, strings.TrimSpace(r.Supplier))
	doc.Note = r.Note
	doc.Lines = lines
	return doc, nil
}

// UpdateReceiptRequest is the body of PUT /receipts/:id.
// Omitted fields keep their value; items, when present, replace all lines.
type UpdateReceiptRequest struct {
	WarehouseID *string       `json:"warehouseId"`
	Supplier    *string       `json:"supplier"`
	Note        *string       `json:"note"`
	Items       []LineRequest `json:"items"`
}

// ToInput converts request to the service input.
func (r UpdateReceiptRequest) ToInput() (receipt.UpdateInput, error) {
	in := receipt.UpdateInput{Supplier: r.Supplier, Note: r.Note}
	var err error
	if r.WarehouseID != nil {
		if in.WarehouseID, err = ParseOptionalID("warehouseId", *r.WarehouseID); err != nil {
			return in, err
		}
	}
	if r.Items != nil {
		if in.Lines, err = ToLineItems(r.Items); err != nil {
			return in, err
		}
	}
	return in, nil
}

// ReceiptResponse represents a receipt in API responses.
type ReceiptResponse struct {
	DocumentResponse
	WarehouseID string         `json:"warehouseId"`
	Supplier    string         `json:"supplier,omitempty"`
	Items       []LineResponse `json:"items,omitempty"`
}

// FromReceipt converts entity to response DTO.
func FromReceipt(doc *receipt.Receipt) ReceiptResponse {
	return ReceiptResponse{
		DocumentResponse: FromDocument(&doc.Document),
		WarehouseID:      doc.WarehouseID.String(),
		Supplier:         doc.Supplier,
		Items:            FromLineItems(doc.Lines),
	}
}

// --- Delivery ---

// CreateDeliveryRequest is the body of POST /deliveries.
type CreateDeliveryRequest struct {
	WarehouseID string        `json:"warehouseId" binding:"required"`
	Customer    string        `json:"customer"`
	Note        string        `json:"note"`
	Items       []LineRequest `json:"items"`
}

// ToEntity converts request to domain entity.
func (r CreateDeliveryRequest) ToEntity() (*delivery.Delivery, error) {
	warehouseID, err := ParseID("warehouseId", r.WarehouseID)
	if err != nil {
		return nil, err
	}
	lines, err := ToLineItems(r.Items)
	if err != nil {
		return nil, err
	}
	doc := delivery.NewDelivery(warehouseID, strings.TrimSpace(r.Customer))
	doc.Note = r.Note
	doc.Lines = lines
	return doc, nil
}

// UpdateDeliveryRequest is the body of PUT /deliveries/:id.
type UpdateDeliveryRequest struct {
	WarehouseID *string       `json:"warehouseId"`
	Customer    *string       `json:"customer"`
	Note        *string       `json:"note"`
	Items       []LineRequest `json:"items"`
}

// ToInput converts request to the service input.
func (r UpdateDeliveryRequest) ToInput() (delivery.UpdateInput, error) {
	in := delivery.UpdateInput{Customer: r.Customer, Note: r.Note}
	var err error
	if r.WarehouseID != nil {
		if in.WarehouseID, err = ParseOptionalID("warehouseId", *r.WarehouseID); err != nil {
			return in, err
		}
	}
	if r.Items != nil {
		if in.Lines, err = ToLineItems(r.Items); err != nil {
			return in, err
		}
	}
	return in, nil
}

// DeliveryResponse represents a delivery in API responses.
type DeliveryResponse struct {
	DocumentResponse
	WarehouseID string         `json:"warehouseId"`
	Customer    string         `json:"customer,omitempty"`
	Items       []LineResponse `json:"items,omitempty"`
}

// FromDelivery converts entity to response DTO.
func FromDelivery(doc *delivery.Delivery) DeliveryResponse {
	return DeliveryResponse{
		DocumentResponse: FromDocument(&doc.Document),
		WarehouseID:      doc.WarehouseID.String(),
		Customer:         doc.Customer,
		Items:            FromLineItems(doc.Lines),
	}
}

// --- Transfer ---

// CreateTransferRequest is the body of POST /transfers.
type CreateTransferRequest struct {
	FromWarehouseID string        `json:"fromWarehouseId" binding:"required"`
	ToWarehouseID   string        `json:"toWarehouseId" binding:"required"`
	Note            string        `json:"note"`
	Items           []LineRequest `json:"items"`
}

// ToEntity converts request to domain entity.
func (r CreateTransferRequest) ToEntity() (*transfer.Transfer, error) {
	from, err := ParseID("fromWarehouseId", r.FromWarehouseID)
	if err != nil {
		return nil, err
	}
	to, err := ParseID("toWarehouseId", r.ToWarehouseID)
	if err != nil {
		return nil, err
	}
	lines, err := ToLineItems(r.Items)
	if err != nil {
		return nil, err
	}
	doc := transfer.NewTransfer(from, to)
	doc.Note = r.Note
	doc.Lines = lines
	return doc, nil
}

// UpdateTransferRequest is the body of PUT /transfers/:id.
type UpdateTransferRequest struct {
	FromWarehouseID *string       `json:"fromWarehouseId"`
	ToWarehouseID   *string       `json:"toWarehouseId"`
	Note            *string       `json:"note"`
	Items           []LineRequest `json:"items"`
}

// ToInput converts request to the service input.
func (r UpdateTransferRequest) ToInput() (transfer.UpdateInput, error) {
	in := transfer.UpdateInput{Note: r.Note}
	var err error
	if r.FromWarehouseID != nil {
		if in.FromWarehouseID, err = ParseOptionalID("fromWarehouseId", *r.FromWarehouseID); err != nil {
			return in, err
		}
	}
	if r.ToWarehouseID != nil {
		if in.ToWarehouseID, err = ParseOptionalID("toWarehouseId", *r.ToWarehouseID); err != nil {
			return in, err
		}
	}
	if r.Items != nil {
		if in.Lines, err = ToLineItems(r.Items); err != nil {
			return in, err
		}
	}
	return in, nil
}

// TransferResponse represents a transfer in API responses.
type TransferResponse struct {
	DocumentResponse
	FromWarehouseID string         `json:"fromWarehouseId"`
	ToWarehouseID   string         `json:"toWarehouseId"`
	Items           []LineResponse `json:"items,omitempty"`
}

// FromTransfer converts entity to response DTO.
func FromTransfer(doc *transfer.Transfer) TransferResponse {
	return TransferResponse{
		DocumentResponse: FromDocument(&doc.Document),
		FromWarehouseID:  doc.FromWarehouseID.String(),
		ToWarehouseID:    doc.ToWarehouseID.String(),
		Items:            FromLineItems(doc.Lines),
	}
}

// --- Adjustment ---

// AdjustmentLineRequest sets one product to an absolute quantity.
type AdjustmentLineRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity"`
}

// CreateAdjustmentRequest is the body of POST /adjustments.
type CreateAdjustmentRequest struct {
	WarehouseID string                  `json:"warehouseId" binding:"required"`
	Reason      string                  `json:"reason" binding:"required"`
	Note        string                  `json:"note"`
	Items       []AdjustmentLineRequest `json:"items"`
}

// ToEntity converts request to domain entity.
func (r CreateAdjustmentRequest) ToEntity() (*adjustment.Adjustment, error) {
	warehouseID, err := ParseID("warehouseId", r.WarehouseID)
	if err != nil {
		return nil, err
	}
	reason := adjustment.Reason(strings.ToUpper(strings.TrimSpace(r.Reason)))
	if !reason.Valid() {
		return nil, apperror.NewValidation("unknown adjustment reason").
			WithDetail("field", "reason").
			WithDetail("value", r.Reason)
	}

	doc := adjustment.NewAdjustment(warehouseID, reason)
	doc.Note = r.Note
	doc.Lines = make([]adjustment.Line, 0, len(r.Items))
	for i, item := range r.Items {
		var productID id.ID
		if productID, err = ParseID(fmt.Sprintf("items[%d].productId", i), item.ProductID); err != nil {
			return nil, err
		}
		doc.Lines = append(doc.Lines, adjustment.Line{
			LineNo:    i + 1,
			ProductID: productID,
			Quantity:  item.Quantity,
		})
	}
	return doc, nil
}

// AdjustmentLineResponse is one applied adjustment line.
type AdjustmentLineResponse struct {
	LineNo        int    `json:"lineNo"`
	ProductID     string `json:"productId"`
	Quantity      int64  `json:"quantity"`
	PreviousStock int64  `json:"previousStock"`
	NewStock      int64  `json:"newStock"`
	Change        int64  `json:"change"`
}

// AdjustmentResponse represents an adjustment in API responses.
type AdjustmentResponse struct {
	DocumentResponse
	WarehouseID string                   `json:"warehouseId"`
	Reason      string                   `json:"reason"`
	Items       []AdjustmentLineResponse `json:"items,omitempty"`
}

// FromAdjustment converts entity to response DTO.
func FromAdjustment(doc *adjustment.Adjustment) AdjustmentResponse {
	items := make([]AdjustmentLineResponse, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		items = append(items, AdjustmentLineResponse{
			LineNo:        l.LineNo,
			ProductID:     l.ProductID.String(),
			Quantity:      l.Quantity,
			PreviousStock: l.PreviousStock,
			NewStock:      l.NewStock,
			Change:        l.Change,
		})
	}
	return AdjustmentResponse{
		DocumentResponse: FromDocument(&doc.Document),
		WarehouseID:      doc.WarehouseID.String(),
		Reason:           string(doc.Reason),
		Items:            items,
	}
}
