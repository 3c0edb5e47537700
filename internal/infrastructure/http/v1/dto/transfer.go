package dto

import (
	"time"

	"chalin/internal/core/apperror"
	"chalin/internal/core/types"
	"chalin/internal/domain/documents/transfer"
)

// TransferLineRequest is one line of a transfer. Lines carry no price;
// cost basis is carried from the source branch at receive time.
type TransferLineRequest struct {
	ProductID string         `json:"productId" binding:"required"`
	Quantity  types.Quantity `json:"quantity" binding:"required"`
}

// CreateTransferRequest for creating inter-branch transfers.
type CreateTransferRequest struct {
	FromBranchID string                `json:"fromBranchId" binding:"required"`
	ToBranchID   string                `json:"toBranchId" binding:"required"`
	Date         *time.Time            `json:"date"`
	Comment      string                `json:"comment"`
	Lines        []TransferLineRequest `json:"lines" binding:"required"`
}

// ToEntity converts the request to a domain Transfer.
func (r CreateTransferRequest) ToEntity() (*transfer.Transfer, error) {
	fromID, err := ParseID("fromBranchId", r.FromBranchID)
	if err != nil {
		return nil, err
	}
	toID, err := ParseID("toBranchId", r.ToBranchID)
	if err != nil {
		return nil, err
	}

	doc := transfer.NewTransfer(fromID, toID)
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.Comment = r.Comment

	for i, line := range r.Lines {
		productID, err := ParseID("lines.productId", line.ProductID)
		if err != nil {
			return nil, err
		}
		if !line.Quantity.IsPositive() {
			return nil, apperror.NewValidation("quantity must be positive").
				WithDetail("lineNo", i+1)
		}
		doc.AddLine(productID, line.Quantity)
	}

	return doc, nil
}
