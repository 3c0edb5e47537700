package document_repo

import (
	"context"

	"chalin/internal/core/id"
	"chalin/internal/domain/documents/quotation"
	"chalin/internal/infrastructure/storage/postgres"
)

const (
	quotationTable     = "doc_quotation"
	quotationLineTable = "doc_quotation_line"
)

// QuotationRepo implements quotation.Repository.
type QuotationRepo struct {
	*BaseDocumentRepo[*quotation.Quotation]
}

// NewQuotationRepo creates a new quotation repository.
func NewQuotationRepo(txManager *postgres.TxManager) *QuotationRepo {
	return &QuotationRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			quotationTable,
			quotationLineTable,
			[]string{"branch_id"},
			postgres.ExtractDBColumns[quotation.Quotation](),
			func() *quotation.Quotation { return &quotation.Quotation{} },
		),
	}
}

// Compile-time interface check.
var _ quotation.Repository = (*QuotationRepo)(nil)

// SaveLines replaces the quotation table part.
func (r *QuotationRepo) SaveLines(ctx context.Context, docID id.ID, lines []quotation.QuotationLine) error {
	return replaceLines(ctx, r, quotationLineTable, docID, lines)
}

// GetLines loads the quotation table part ordered by line number.
func (r *QuotationRepo) GetLines(ctx context.Context, docID id.ID) ([]quotation.QuotationLine, error) {
	return selectLines[quotation.QuotationLine](ctx, r, quotationLineTable, docID)
}
