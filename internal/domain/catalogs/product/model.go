// Package product provides the Product catalog.
// The catalog Code doubles as the SKU. Costs never live here: acquisition
// cost is a property of stock lots, not of the product itself.
package product

import (
	"context"

	"chalin/internal/core/apperror"
	"chalin/internal/core/entity"
	"chalin/internal/core/types"
)

// Product represents a sellable item.
type Product struct {
	entity.Catalog

	// Category is a free-form grouping (e.g. "rings", "necklaces")
	Category string `db:"category" json:"category,omitempty"`

	// Barcode for POS scanning
	Barcode *string `db:"barcode" json:"barcode,omitempty"`

	// BasePrice is the default selling price. Lines may override it.
	BasePrice types.Money `db:"base_price" json:"basePrice"`

	// Unit of measure (default "pcs")
	Unit string `db:"unit" json:"unit"`

	// IsActive indicates the product can appear on new documents
	IsActive bool `db:"is_active" json:"isActive"`
}

// NewProduct creates a new Product with required fields.
func NewProduct(sku, name string, basePrice types.Money) *Product {
	return &Product{
		Catalog:   entity.NewCatalog(sku, name),
		BasePrice: basePrice,
		Unit:      "pcs",
		IsActive:  true,
	}
}

// SKU returns the stock keeping unit (the catalog code).
func (p *Product) SKU() string {
	return p.Code
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if p.Code == "" {
		return apperror.NewValidation("sku is required").
			WithDetail("field", "code")
	}

	if p.BasePrice.IsNegative() {
		return apperror.NewValidation("base price cannot be negative").
			WithDetail("field", "basePrice").
			WithDetail("value", p.BasePrice.String())
	}

	return nil
}
