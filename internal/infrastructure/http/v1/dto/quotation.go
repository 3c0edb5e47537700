package dto

import (
	"time"

	"chalin/internal/core/apperror"
	"chalin/internal/core/types"
	"chalin/internal/domain/documents/quotation"
)

// QuotationLineRequest is one line of a quotation.
type QuotationLineRequest struct {
	ProductID string         `json:"productId" binding:"required"`
	Quantity  types.Quantity `json:"quantity" binding:"required"`
	UnitPrice string         `json:"unitPrice" binding:"required"`
}

// CreateQuotationRequest for creating quotations.
type CreateQuotationRequest struct {
	BranchID     string                 `json:"branchId" binding:"required"`
	CustomerName string                 `json:"customerName"`
	ValidUntil   *time.Time             `json:"validUntil"`
	Date         *time.Time             `json:"date"`
	Comment      string                 `json:"comment"`
	Lines        []QuotationLineRequest `json:"lines" binding:"required"`
}

// ToEntity converts the request to a domain Quotation.
func (r CreateQuotationRequest) ToEntity() (*quotation.Quotation, error) {
	branchID, err := ParseID("branchId", r.BranchID)
	if err != nil {
		return nil, err
	}

	doc := quotation.NewQuotation(branchID, r.CustomerName)
	doc.ValidUntil = r.ValidUntil
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
