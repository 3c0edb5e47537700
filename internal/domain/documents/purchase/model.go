// Package purchase provides the Purchase document.
// A purchase records goods bought from a supplier; receiving it creates
// one cost lot per line and increases the branch balance.
package purchase

import (
	"context"
	"time"

	"chalin/internal/core/apperror"
	"chalin/internal/core/entity"
	"chalin/internal/core/id"
	"chalin/internal/core/types"
)

// DocumentType identifies purchases in the movements journal.
const DocumentType = "Purchase"

// Lifecycle states.
const (
	StatusPending   entity.Status = "PENDING"
	StatusReceived  entity.Status = "RECEIVED"
	StatusCancelled entity.Status = "CANCELLED"
)

// Purchase represents a purchase order document.
type Purchase struct {
	entity.Document

	// BranchID is the receiving branch
	BranchID id.ID `db:"branch_id" json:"branchId"`

	// SupplierName is free-form (no supplier catalog)
	SupplierName string `db:"supplier_name" json:"supplierName"`

	// Totals (calculated from lines)
	TotalQuantity types.Quantity `db:"total_quantity" json:"totalQuantity"`
	TotalAmount   types.Money    `db:"total_amount" json:"totalAmount"`

	// ReceivedAt is set when the stock effect runs
	ReceivedAt *time.Time `db:"received_at" json:"receivedAt,omitempty"`

	// Table part: purchased goods
	Lines []PurchaseLine `db:"-" json:"lines"`
}

// PurchaseLine represents a line in the purchase.
type PurchaseLine struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID `db:"product_id" json:"productId"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`
	UnitCost types.Money    `db:"unit_cost" json:"unitCost"`
	Amount   types.Money    `db:"amount" json:"amount"`
}

// NewPurchase creates a new purchase in PENDING state.
func NewPurchase(branchID id.ID, supplierName string) *Purchase {
	return &Purchase{
		Document:     entity.NewDocument(StatusPending),
		BranchID:     branchID,
		SupplierName: supplierName,
		TotalAmount:  types.Zero(),
		Lines:        make([]PurchaseLine, 0),
	}
}

// AddLine adds a line and recalculates totals.
func (p *Purchase) AddLine(productID id.ID, quantity types.Quantity, unitCost types.Money) {
	line := PurchaseLine{
		LineID:    id.New(),
		LineNo:    len(p.Lines) + 1,
		ProductID: productID,
		Quantity:  quantity,
		UnitCost:  unitCost,
		Amount:    unitCost.Mul(quantity.Decimal()),
	}
	p.Lines = append(p.Lines, line)
	p.recalculateTotals()
}

func (p *Purchase) recalculateTotals() {
	p.TotalQuantity = 0
	p.TotalAmount = types.Zero()
	for _, line := range p.Lines {
		p.TotalQuantity += line.Quantity
		p.TotalAmount = p.TotalAmount.Add(line.Amount)
	}
}

// Validate implements entity.Validatable.
func (p *Purchase) Validate(ctx context.Context) error {
	if err := p.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(p.BranchID) {
		return apperror.NewValidation("branch is required").
			WithDetail("field", "branchId")
	}

	if len(p.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range p.Lines {
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
		if line.UnitCost.IsNegative() {
			return apperror.NewValidation("unit cost cannot be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}
