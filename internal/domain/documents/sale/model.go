// Package sale provides the Sale document.
// Sales are effect-immediate: creating one consumes stock FIFO and the
// document lands directly in COMPLETED. Each line records the weighted
// average unit cost and exact total cost of the lots it consumed, which
// later feeds margin and commission reporting.
package sale

import (
	"context"

	"chalin/internal/core/apperror"
	"chalin/internal/core/entity"
	"chalin/internal/core/id"
	"chalin/internal/core/types"
)

// DocumentType identifies sales in the movements journal.
const DocumentType = "Sale"

// Lifecycle states. There is no pending state: a sale either completes
// at creation or does not exist.
const (
	StatusCompleted entity.Status = "COMPLETED"
	StatusCancelled entity.Status = "CANCELLED"
)

// Sale represents a point-of-sale document.
type Sale struct {
	entity.Document

	// BranchID is the selling branch
	BranchID id.ID `db:"branch_id" json:"branchId"`

	// CustomerName is free-form (no customer catalog)
	CustomerName string `db:"customer_name" json:"customerName,omitempty"`

	// Totals (calculated from lines)
	TotalQuantity types.Quantity `db:"total_quantity" json:"totalQuantity"`
	TotalAmount   types.Money    `db:"total_amount" json:"totalAmount"`
	TotalCost     types.Money    `db:"total_cost" json:"totalCost"`

	// Table part: sold goods
	Lines []SaleLine `db:"-" json:"lines"`
}

// SaleLine represents a line in the sale. UnitCost and TotalCost are
// computed by the FIFO engine at creation time, never supplied by the
// caller.
type SaleLine struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID `db:"product_id" json:"productId"`

	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`
	Amount    types.Money    `db:"amount" json:"amount"`

	// Cost basis filled by FIFO consumption
	UnitCost  types.Money `db:"unit_cost" json:"unitCost"`
	TotalCost types.Money `db:"total_cost" json:"totalCost"`
}

// Margin returns amount minus cost for the line.
func (l *SaleLine) Margin() types.Money {
	return l.Amount.Sub(l.TotalCost)
}

// NewSale creates a new sale document. Status is assigned by the
// service when the stock effect succeeds.
func NewSale(branchID id.ID, customerName string) *Sale {
	return &Sale{
		Document:     entity.NewDocument(StatusCompleted),
		BranchID:     branchID,
		CustomerName: customerName,
		TotalAmount:  types.Zero(),
		TotalCost:    types.Zero(),
		Lines:        make([]SaleLine, 0),
	}
}

// AddLine adds a line and recalculates totals. Cost fields stay zero
// until the FIFO engine fills them.
func (s *Sale) AddLine(productID id.ID, quantity types.Quantity, unitPrice types.Money) {
	line := SaleLine{
		LineID:    id.New(),
		LineNo:    len(s.Lines) + 1,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Amount:    unitPrice.Mul(quantity.Decimal()),
		UnitCost:  types.Zero(),
		TotalCost: types.Zero(),
	}
	s.Lines = append(s.Lines, line)
	s.recalculateTotals()
}

func (s *Sale) recalculateTotals() {
	s.TotalQuantity = 0
	s.TotalAmount = types.Zero()
	s.TotalCost = types.Zero()
	for _, line := range s.Lines {
		s.TotalQuantity += line.Quantity
		s.TotalAmount = s.TotalAmount.Add(line.Amount)
		s.TotalCost = s.TotalCost.Add(line.TotalCost)
	}
}

// Validate implements entity.Validatable.
func (s *Sale) Validate(ctx context.Context) error {
	if err := s.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(s.BranchID) {
		return apperror.NewValidation("branch is required").
			WithDetail("field", "branchId")
	}

	if len(s.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range s.Lines {
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
