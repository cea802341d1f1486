package entity

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
)

// DocumentStatus is the lifecycle state of a stock document.
type DocumentStatus string

const (
	// StatusEditable: line items and header fields may still change.
	StatusEditable DocumentStatus = "EDITABLE"
	// StatusApplied is terminal. Movements have been committed.
	StatusApplied DocumentStatus = "APPLIED"
)

// Valid reports whether s is a known status.
func (s DocumentStatus) Valid() bool {
	return s == StatusEditable || s == StatusApplied
}

// DocumentType names the four stock documents.
type DocumentType string

const (
	DocumentTypeReceipt    DocumentType = "receipt"
	DocumentTypeDelivery   DocumentType = "delivery"
	DocumentTypeTransfer   DocumentType = "transfer"
	DocumentTypeAdjustment DocumentType = "adjustment"
)

// Document is the base type for stock documents (receipt, delivery, transfer, adjustment).
type Document struct {
	BaseDocument

	// Number is the human-readable business id (e.g. RCP-2026-00001)
	Number string `db:"number" json:"number"`

	Status DocumentStatus `db:"status" json:"status"`

	// AppliedAt is stamped when the document transitions to APPLIED
	AppliedAt *time.Time `db:"applied_at" json:"appliedAt,omitempty"`

	Note string `db:"note" json:"note,omitempty"`
}

// NewDocument creates a new editable Document with generated ID.
func NewDocument() Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Status:       StatusEditable,
	}
}

// Header gives generic code access to the embedded document fields.
func (d *Document) Header() *Document {
	return d
}

// IsApplied reports whether the document reached the terminal state.
func (d *Document) IsApplied() bool {
	return d.Status == StatusApplied
}

// CanModify returns DocumentAlreadyApplied once the document is applied.
func (d *Document) CanModify(docType DocumentType) error {
	if d.IsApplied() {
		return apperror.NewDocumentAlreadyApplied(string(docType), d.ID.String()).
			WithDetail("number", d.Number)
	}
	return nil
}

// MarkApplied performs the EDITABLE -> APPLIED transition.
// A second call returns AlreadyApplied and leaves the document untouched.
func (d *Document) MarkApplied(docType DocumentType, at time.Time) error {
	if d.IsApplied() {
		return apperror.NewAlreadyApplied(string(docType), d.ID.String()).
			WithDetail("number", d.Number)
	}
	applied := at.UTC()
	d.Status = StatusApplied
	d.AppliedAt = &applied
	d.Touch()
	return nil
}

// LineItem is a single (product, quantity) row of a document.
type LineItem struct {
	LineNo    int   `db:"line_no" json:"lineNo"`
	ProductID id.ID `db:"product_id" json:"productId"`
	Quantity  int64 `db:"quantity" json:"quantity"`
}

// ValidateLines checks the invariants shared by all documents: at least one line,
// a product on every line, positive quantities and no product listed twice.
// Line numbers are reassigned 1..n.
func ValidateLines(ctx context.Context, lines []LineItem) error {
	if len(lines) == 0 {
		return apperror.NewValidation("at least one line item is required").
			WithDetail("field", "items")
	}

	seen := make(map[id.ID]int, len(lines))
	for i := range lines {
		line := &lines[i]
		line.LineNo = i + 1

		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", fmt.Sprintf("items[%d].productId", i))
		}
		if line.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", fmt.Sprintf("items[%d].quantity", i)).
				WithDetail("quantity", line.Quantity)
		}
		if prev, dup := seen[line.ProductID]; dup {
			return apperror.NewValidation("product listed more than once").
				WithDetail("field", fmt.Sprintf("items[%d].productId", i)).
				WithDetail("firstLine", prev)
		}
		seen[line.ProductID] = line.LineNo
	}
	return nil
}

// ProductIDs returns the distinct product ids referenced by lines.
func ProductIDs(lines []LineItem) []id.ID {
	out := make([]id.ID, 0, len(lines))
	seen := make(map[id.ID]struct{}, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		out = append(out, l.ProductID)
	}
	return out
}
