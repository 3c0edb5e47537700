package dto

import (
	"time"

	"chalin/internal/core/apperror"
	"chalin/internal/core/types"
	"chalin/internal/domain/documents/purchase"
)

// PurchaseLineRequest is one line of a purchase order.
type PurchaseLineRequest struct {
	ProductID string         `json:"productId" binding:"required"`
	Quantity  types.Quantity `json:"quantity" binding:"required"`
	UnitCost  string         `json:"unitCost" binding:"required"`
}

// CreatePurchaseRequest for creating purchase orders.
type CreatePurchaseRequest struct {
	BranchID     string                `json:"branchId" binding:"required"`
	SupplierName string                `json:"supplierName" binding:"required"`
	Date         *time.Time            `json:"date"`
	Comment      string                `json:"comment"`
	Lines        []PurchaseLineRequest `json:"lines" binding:"required"`
}

// ToEntity converts the request to a domain Purchase.
func (r CreatePurchaseRequest) ToEntity() (*purchase.Purchase, error) {
	branchID, err := ParseID("branchId", r.BranchID)
	if err != nil {
		return nil, err
	}

	doc := purchase.NewPurchase(branchID, r.SupplierName)
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.Comment = r.Comment

	for i, line := range r.Lines {
		productID, err := ParseID("lines.productId", line.ProductID)
		if err != nil {
			return nil, err
		}
		cost, err := ParseMoney("lines.unitCost", line.UnitCost)
		if err != nil {
			return nil, err
		}
		if !line.Quantity.IsPositive() {
			return nil, apperror.NewValidation("quantity must be positive").
				WithDetail("lineNo", i+1)
		}
		doc.AddLine(productID, line.Quantity, cost)
	}

	return doc, nil
}
