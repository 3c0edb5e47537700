package reports

import (
	"context"
)

// Repository defines report data access.
type Repository interface {
	// GetSalesSummary aggregates completed sales per branch for a period.
	// Cancelled sales are excluded.
	GetSalesSummary(ctx context.Context, filter SalesSummaryFilter) ([]SalesSummaryRow, error)
}
