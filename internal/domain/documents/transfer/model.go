// Package transfer provides the inter-branch Transfer document.
// Transfers move stock between branches at carried cost; lines carry no
// price because the movement is internal.
package transfer

import (
	"context"
	"time"

	"chalin/internal/core/apperror"
	"chalin/internal/core/entity"
	"chalin/internal/core/id"
	"chalin/internal/core/types"
)

// DocumentType identifies transfers in the movements journal.
const DocumentType = "Transfer"

// Lifecycle states.
const (
	StatusPending   entity.Status = "PENDING"
	StatusInTransit entity.Status = "IN_TRANSIT"
	StatusReceived  entity.Status = "RECEIVED"
	StatusCancelled entity.Status = "CANCELLED"
)

// Transfer represents an inter-branch stock movement document.
type Transfer struct {
	entity.Document

	FromBranchID id.ID `db:"from_branch_id" json:"fromBranchId"`
	ToBranchID   id.ID `db:"to_branch_id" json:"toBranchId"`

	TotalQuantity types.Quantity `db:"total_quantity" json:"totalQuantity"`

	ApprovedAt *time.Time `db:"approved_at" json:"approvedAt,omitempty"`
	ReceivedAt *time.Time `db:"received_at" json:"receivedAt,omitempty"`

	// Table part: transferred goods
	Lines []TransferLine `db:"-" json:"lines"`
}

// TransferLine represents a line in the transfer. UnitCost is the
// carried cost basis, filled at receive time.
type TransferLine struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID `db:"product_id" json:"productId"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// UnitCost carried from the source branch (weighted average when
	// the quantity spanned lots at different costs)
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`
}

// NewTransfer creates a new transfer in PENDING state.
func NewTransfer(fromBranchID, toBranchID id.ID) *Transfer {
	return &Transfer{
		Document:     entity.NewDocument(StatusPending),
		FromBranchID: fromBranchID,
		ToBranchID:   toBranchID,
		Lines:        make([]TransferLine, 0),
	}
}

// AddLine adds a line and recalculates totals.
func (t *Transfer) AddLine(productID id.ID, quantity types.Quantity) {
	line := TransferLine{
		LineID:    id.New(),
		LineNo:    len(t.Lines) + 1,
		ProductID: productID,
		Quantity:  quantity,
		UnitCost:  types.Zero(),
	}
	t.Lines = append(t.Lines, line)
	t.recalculateTotals()
}

func (t *Transfer) recalculateTotals() {
	t.TotalQuantity = 0
	for _, line := range t.Lines {
		t.TotalQuantity += line.Quantity
	}
}

// Validate implements entity.Validatable.
func (t *Transfer) Validate(ctx context.Context) error {
	if err := t.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(t.FromBranchID) {
		return apperror.NewValidation("source branch is required").
			WithDetail("field", "fromBranchId")
	}
	if id.IsNil(t.ToBranchID) {
		return apperror.NewValidation("destination branch is required").
			WithDetail("field", "toBranchId")
	}
	if t.FromBranchID == t.ToBranchID {
		return apperror.NewValidation("source and destination branches must differ").
			WithDetail("field", "toBranchId")
	}

	if len(t.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range t.Lines {
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
	}

	return nil
}
