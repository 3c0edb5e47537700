package dto

import (
	"time"

	"chalin/internal/core/apperror"
	"chalin/internal/core/types"
	"chalin/internal/domain/documents/sale"
)

// SaleLineRequest is one line of a sale.
type SaleLineRequest struct {
	ProductID string         `json:"productId" binding:"required"`
	Quantity  types.Quantity `json:"quantity" binding:"required"`
	UnitPrice string         `json:"unitPrice" binding:"required"`
}

// CreateSaleRequest for creating sales. The sale completes at creation;
// there is no separate posting step.
type CreateSaleRequest struct {
	BranchID     string            `json:"branchId" binding:"required"`
	CustomerName string            `json:"customerName"`
	Date         *time.Time        `json:"date"`
	Comment      string            `json:"comment"`
	Lines        []SaleLineRequest `json:"lines" binding:"required"`
}

// ToEntity converts the request to a domain Sale.
func (r CreateSaleRequest) ToEntity() (*sale.Sale, error) {
	branchID, err := ParseID("branchId", r.BranchID)
	if err != nil {
		return nil, err
	}

	doc := sale.NewSale(branchID, r.CustomerName)
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.Comment = r.Comment

	for i, line := range r.Lines {
		productID, err := ParseID("lines.productId", line.ProductID)
		if err != nil {
			return nil, err
		}
		price, err := ParseMoney("lines.unitPrice", line.UnitPrice)
		if err != nil {
			return nil, err
		}
		if !line.Quantity.IsPositive() {
			return nil, apperror.NewValidation("quantity must be positive").
				WithDetail("lineNo", i+1)
		}
		doc.AddLine(productID, line.Quantity, price)
	}

	return doc, nil
}
