package quotation

import (
	"context"

	"chalin/internal/core/id"
	"chalin/internal/domain"
)

// Repository defines the interface for Quotation persistence.
// MaxNumber makes the repository a numerator.Scanner.
type Repository interface {
	Create(ctx context.Context, doc *Quotation) error
	Update(ctx context.Context, doc *Quotation) error
	GetByID(ctx context.Context, docID id.ID) (*Quotation, error)

	// GetForUpdate retrieves the document header with a row lock.
	GetForUpdate(ctx context.Context, docID id.ID) (*Quotation, error)

	SaveLines(ctx context.Context, docID id.ID, lines []QuotationLine) error
	GetLines(ctx context.Context, docID id.ID) ([]QuotationLine, error)

	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Quotation], error)

	MaxNumber(ctx context.Context, prefix string) (string, error)
}
