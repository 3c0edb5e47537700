package dto

import (
	"chalin/internal/core/types"
	"chalin/internal/domain/catalogs/product"
)

// CreateProductRequest for creating products. Code is the SKU.
type CreateProductRequest struct {
	Code      string  `json:"code" binding:"required"`
	Name      string  `json:"name" binding:"required"`
	Category  string  `json:"category"`
	Barcode   *string `json:"barcode"`
	BasePrice string  `json:"basePrice" binding:"required"`
	Unit      string  `json:"unit"`
}

// ToEntity converts the request to a domain Product.
func (r CreateProductRequest) ToEntity() (*product.Product, error) {
	price, err := ParseMoney("basePrice", r.BasePrice)
	if err != nil {
		return nil, err
	}

	p := product.NewProduct(r.Code, r.Name, price)
	p.Category = r.Category
	p.Barcode = r.Barcode
	if r.Unit != "" {
		p.Unit = r.Unit
	}

	return p, nil
}

// UpdateProductRequest for updating products.
type UpdateProductRequest struct {
	Name      *string `json:"name"`
	Category  *string `json:"category"`
	Barcode   *string `json:"barcode"`
	BasePrice *string `json:"basePrice"`
	Unit      *string `json:"unit"`
	IsActive  *bool   `json:"isActive"`
	Version   int     `json:"version" binding:"required,min=1"`
}

// ApplyTo applies the update onto an existing Product.
func (r UpdateProductRequest) ApplyTo(p *product.Product) error {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Category != nil {
		p.Category = *r.Category
	}
	if r.Barcode != nil {
		p.Barcode = r.Barcode
	}
	if r.BasePrice != nil {
		price, err := ParseMoney("basePrice", *r.BasePrice)
		if err != nil {
			return err
		}
		p.BasePrice = price
	}
	if r.Unit != nil {
		p.Unit = *r.Unit
	}
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
	p.Version = r.Version
	return nil
}

// ProductResponse contains product fields.
type ProductResponse struct {
	ID           string      `json:"id"`
	Code         string      `json:"code"`
	Name         string      `json:"name"`
	Category     string      `json:"category,omitempty"`
	Barcode      *string     `json:"barcode,omitempty"`
	BasePrice    types.Money `json:"basePrice"`
	Unit         string      `json:"unit"`
	IsActive     bool        `json:"isActive"`
	DeletionMark bool        `json:"deletionMark"`
	Version      int         `json:"version"`
}

// FromProduct creates ProductResponse from a domain Product.
func FromProduct(p *product.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID.String(),
		Code:         p.Code,
		Name:         p.Name,
		Category:     p.Category,
		Barcode:      p.Barcode,
		BasePrice:    p.BasePrice,
		Unit:         p.Unit,
		IsActive:     p.IsActive,
		DeletionMark: p.DeletionMark,
		Version:      p.Version,
	}
}
