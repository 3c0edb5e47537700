package product

import (
	"context"

	"chalin/internal/domain"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	domain.CatalogRepository[*Product]

	// GetByBarcode retrieves a product by barcode (for POS lookups).
	GetByBarcode(ctx context.Context, barcode string) (*Product, error)
}
