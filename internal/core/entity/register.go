// Package entity provides core domain entities.
package entity

import (
	"time"

	"chalin/internal/core/id"
	"chalin/internal/core/types"
)

// RecordType defines movement direction for the stock register.
type RecordType string

const (
	// RecordTypeReceipt increases balance
	RecordTypeReceipt RecordType = "receipt"
	// RecordTypeExpense decreases balance
	RecordTypeExpense RecordType = "expense"
)

// LotRefType identifies the document kind that created a stock lot.
type LotRefType string

const (
	LotRefPurchase LotRefType = "PURCHASE"
	LotRefTransfer LotRefType = "TRANSFER"
)

// StockLot is an immutable-origin record of inbound stock at a specific
// unit cost. Lots are the source of truth for FIFO costing: outgoing
// stock decrements RemainingQuantity oldest-lot-first. A fully depleted
// lot is never deleted; it persists as history.
//
// Invariant: 0 <= RemainingQuantity <= Quantity.
type StockLot struct {
	ID id.ID `db:"id" json:"id"`

	// Dimensions
	BranchID  id.ID `db:"branch_id" json:"branchId"`
	ProductID id.ID `db:"product_id" json:"productId"`

	// Quantity is the original inbound quantity; RemainingQuantity is
	// what is left after FIFO consumption.
	Quantity          types.Quantity `db:"quantity" json:"quantity"`
	RemainingQuantity types.Quantity `db:"remaining_quantity" json:"remainingQuantity"`

	// UnitCost is the acquisition cost per unit for this lot.
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`

	// LotDate orders lots for FIFO consumption (ties broken by ID,
	// which is time-ordered UUIDv7).
	LotDate time.Time `db:"lot_date" json:"lotDate"`

	// Reference to the document that created the lot.
	RefDocType LotRefType `db:"ref_doc_type" json:"refDocType"`
	RefDocID   id.ID      `db:"ref_doc_id" json:"refDocId"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewStockLot creates a lot with RemainingQuantity = Quantity.
func NewStockLot(
	branchID, productID id.ID,
	quantity types.Quantity,
	unitCost types.Money,
	refType LotRefType,
	refID id.ID,
	lotDate time.Time,
) StockLot {
	now := time.Now().UTC()
	if lotDate.IsZero() {
		lotDate = now
	}
	return StockLot{
		ID:                id.New(),
		BranchID:          branchID,
		ProductID:         productID,
		Quantity:          quantity,
		RemainingQuantity: quantity,
		UnitCost:          unitCost,
		LotDate:           lotDate,
		RefDocType:        refType,
		RefDocID:          refID,
		CreatedAt:         now,
	}
}

// IsDepleted reports whether the lot has no remaining quantity.
func (l *StockLot) IsDepleted() bool {
	return l.RemainingQuantity.IsZero()
}

// RemainingValue returns remaining_quantity x unit_cost (exact).
func (l *StockLot) RemainingValue() types.Money {
	return l.UnitCost.Mul(l.RemainingQuantity.Decimal())
}

// StockBalance is the denormalized current on-hand quantity for a
// branch+product. It is a materialized cache of the lots' sum (plus
// manual adjustment deltas) kept consistent by the document effect
// processors within their transactions.
type StockBalance struct {
	// Dimensions
	BranchID  id.ID `db:"branch_id" json:"branchId"`
	ProductID id.ID `db:"product_id" json:"productId"`

	// Resources
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// MinStock is the reorder threshold for low-stock alerting.
	MinStock types.Quantity `db:"min_stock" json:"minStock"`

	// Metadata
	LastMovementAt time.Time `db:"last_movement_at" json:"lastMovementAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// IsLow reports whether the balance has fallen below its reorder threshold.
func (b *StockBalance) IsLow() bool {
	return b.MinStock.IsPositive() && b.Quantity < b.MinStock
}

// StockMovement is a journal row in the stock register. Movements are
// immutable; document effect processors append one per affected line.
// The journal powers turnover reports and balance-at-date queries.
type StockMovement struct {
	// LineID is unique identifier for this movement line (UUIDv7)
	LineID id.ID `db:"line_id" json:"lineId"`

	// RecorderID is the document that created this movement
	RecorderID id.ID `db:"recorder_id" json:"recorderId"`

	// RecorderType is the document type (e.g., "Purchase", "Sale")
	RecorderType string `db:"recorder_type" json:"recorderType"`

	// Period is the business date for the movement (for period-based queries)
	Period time.Time `db:"period" json:"period"`

	// RecordType: receipt or expense
	RecordType RecordType `db:"record_type" json:"recordType"`

	// Dimensions
	BranchID  id.ID `db:"branch_id" json:"branchId"`
	ProductID id.ID `db:"product_id" json:"productId"`

	// Resources
	Quantity types.Quantity `db:"quantity" json:"quantity"`
	Amount   types.Money    `db:"amount" json:"amount"`

	// CreatedAt is when the movement was recorded
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewStockMovement creates a new stock movement.
func NewStockMovement(
	recorderID id.ID,
	recorderType string,
	period time.Time,
	recordType RecordType,
	branchID, productID id.ID,
	quantity types.Quantity,
	amount types.Money,
) StockMovement {
	return StockMovement{
		LineID:       id.New(),
		RecorderID:   recorderID,
		RecorderType: recorderType,
		Period:       period,
		RecordType:   recordType,
		BranchID:     branchID,
		ProductID:    productID,
		Quantity:     quantity,
		Amount:       amount,
		CreatedAt:    time.Now().UTC(),
	}
}

// SignedQuantity returns quantity with sign based on record type.
// Receipt = positive, Expense = negative.
func (m *StockMovement) SignedQuantity() types.Quantity {
	if m.RecordType == RecordTypeExpense {
		return m.Quantity.Neg()
	}
	return m.Quantity
}
