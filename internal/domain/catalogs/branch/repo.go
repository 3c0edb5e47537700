package branch

import (
	"context"

	"chalin/internal/domain"
)

// Repository defines the interface for Branch persistence.
type Repository interface {
	domain.CatalogRepository[*Branch]

	// ListActive returns all operational branches (for transfer target pickers).
	ListActive(ctx context.Context) ([]*Branch, error)
}
