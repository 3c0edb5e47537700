package transfer

import (
	"context"

	"chalin/internal/core/id"
	"chalin/internal/domain"
)

// Repository defines the interface for Transfer persistence.
// MaxNumber makes the repository a numerator.Scanner.
type Repository interface {
	Create(ctx context.Context, doc *Transfer) error
	Update(ctx context.Context, doc *Transfer) error
	GetByID(ctx context.Context, docID id.ID) (*Transfer, error)

	// GetForUpdate retrieves the document header with a row lock.
	GetForUpdate(ctx context.Context, docID id.ID) (*Transfer, error)

	SaveLines(ctx context.Context, docID id.ID, lines []TransferLine) error
	GetLines(ctx context.Context, docID id.ID) ([]TransferLine, error)

	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Transfer], error)

	MaxNumber(ctx context.Context, prefix string) (string, error)
}
