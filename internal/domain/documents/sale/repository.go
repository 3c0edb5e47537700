package sale

import (
	"context"

	"chalin/internal/core/id"
	"chalin/internal/domain"
)

// Repository defines the interface for Sale persistence.
// MaxNumber makes the repository a numerator.Scanner.
type Repository interface {
	Create(ctx context.Context, doc *Sale) error
	Update(ctx context.Context, doc *Sale) error
	GetByID(ctx context.Context, docID id.ID) (*Sale, error)

	// GetForUpdate retrieves the document header with a row lock.
	GetForUpdate(ctx context.Context, docID id.ID) (*Sale, error)

	SaveLines(ctx context.Context, docID id.ID, lines []SaleLine) error
	GetLines(ctx context.Context, docID id.ID) ([]SaleLine, error)

	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Sale], error)

	MaxNumber(ctx context.Context, prefix string) (string, error)
}
