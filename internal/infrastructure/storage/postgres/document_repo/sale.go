package document_repo

import (
	"context"

	"chalin/internal/core/id"
	"chalin/internal/domain/documents/sale"
	"chalin/internal/infrastructure/storage/postgres"
)

const (
	saleTable     = "doc_sale"
	saleLineTable = "doc_sale_line"
)

// SaleRepo implements sale.Repository.
type SaleRepo struct {
	*BaseDocumentRepo[*sale.Sale]
}

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txManager *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			saleTable,
			saleLineTable,
			[]string{"branch_id"},
			postgres.ExtractDBColumns[sale.Sale](),
			func() *sale.Sale { return &sale.Sale{} },
		),
	}
}

// Compile-time interface check.
var _ sale.Repository = (*SaleRepo)(nil)

// SaveLines replaces the sale table part.
func (r *SaleRepo) SaveLines(ctx context.Context, docID id.ID, lines []sale.SaleLine) error {
	return replaceLines(ctx, r, saleLineTable, docID, lines)
}

// GetLines loads the sale table part ordered by line number.
func (r *SaleRepo) GetLines(ctx context.Context, docID id.ID) ([]sale.SaleLine, error) {
	return selectLines[sale.SaleLine](ctx, r, saleLineTable, docID)
}
