// Package quotation provides the Quotation document.
// Quotations are price offers with no stock effect; accepting one can
// convert it into a sale, which is where stock actually moves.
package quotation

import (
	"context"
	"time"

	"chalin/internal/core/apperror"
	"chalin/internal/core/entity"
	"chalin/internal/core/id"
	"chalin/internal/core/types"
)

// DocumentType identifies quotations.
const DocumentType = "Quotation"

// Lifecycle states.
const (
	StatusPending   entity.Status = "PENDING"
	StatusAccepted  entity.Status = "ACCEPTED"
	StatusCancelled entity.Status = "CANCELLED"
)

// Quotation represents a price offer document.
type Quotation struct {
	entity.Document

	BranchID id.ID `db:"branch_id" json:"branchId"`

	CustomerName string `db:"customer_name" json:"customerName,omitempty"`

	// ValidUntil is an optional offer expiry
	ValidUntil *time.Time `db:"valid_until" json:"validUntil,omitempty"`

	TotalQuantity types.Quantity `db:"total_quantity" json:"totalQuantity"`
	TotalAmount   types.Money    `db:"total_amount" json:"totalAmount"`

	// SaleID links to the sale created on acceptance
	SaleID *id.ID `db:"sale_id" json:"saleId,omitempty"`

	// Table part: quoted goods
	Lines []QuotationLine `db:"-" json:"lines"`
}

// QuotationLine represents a line in the quotation.
type QuotationLine struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID `db:"product_id" json:"productId"`

	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`
	Amount    types.Money    `db:"amount" json:"amount"`
}

// NewQuotation creates a new quotation in PENDING state.
func NewQuotation(branchID id.ID, customerName string) *Quotation {
	return &Quotation{
		Document:     entity.NewDocument(StatusPending),
		BranchID:     branchID,
		CustomerName: customerName,
		TotalAmount:  types.Zero(),
		Lines:        make([]QuotationLine, 0),
	}
}

// AddLine adds a line and recalculates totals.
func (q *Quotation) AddLine(productID id.ID, quantity types.Quantity, unitPrice types.Money) {
	line := QuotationLine{
		LineID:    id.New(),
		LineNo:    len(q.Lines) + 1,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Amount:    unitPrice.Mul(quantity.Decimal()),
	}
	q.Lines = append(q.Lines, line)
	q.recalculateTotals()
}

func (q *Quotation) recalculateTotals() {
	q.TotalQuantity = 0
	q.TotalAmount = types.Zero()
	for _, line := range q.Lines {
		q.TotalQuantity += line.Quantity
		q.TotalAmount = q.TotalAmount.Add(line.Amount)
	}
}

// IsExpired reports whether the offer has passed its expiry.
func (q *Quotation) IsExpired(now time.Time) bool {
	return q.ValidUntil != nil && now.After(*q.ValidUntil)
}

// Validate implements entity.Validatable.
func (q *Quotation) Validate(ctx context.Context) error {
	if err := q.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(q.BranchID) {
		return apperror.NewValidation("branch is required").
			WithDetail("field", "branchId")
	}

	if len(q.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range q.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price cannot be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}
