package purchase

import (
	"context"

	"chalin/internal/core/id"
	"chalin/internal/domain"
)

// Repository defines the interface for Purchase persistence.
// MaxNumber makes the repository a numerator.Scanner.
type Repository interface {
	Create(ctx context.Context, doc *Purchase) error
	Update(ctx context.Context, doc *Purchase) error
	GetByID(ctx context.Context, docID id.ID) (*Purchase, error)

	// GetForUpdate retrieves the document header with a row lock so a
	// state transition cannot race another transition of the same document.
	GetForUpdate(ctx context.Context, docID id.ID) (*Purchase, error)

	SaveLines(ctx context.Context, docID id.ID, lines []PurchaseLine) error
	GetLines(ctx context.Context, docID id.ID) ([]PurchaseLine, error)

	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Purchase], error)

	MaxNumber(ctx context.Context, prefix string) (string, error)
}
