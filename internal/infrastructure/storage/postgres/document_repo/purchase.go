package document_repo

import (
	"context"

	"chalin/internal/core/id"
	"chalin/internal/domain/documents/purchase"
	"chalin/internal/infrastructure/storage/postgres"
)

const (
	purchaseTable     = "doc_purchase"
	purchaseLineTable = "doc_purchase_line"
)

// PurchaseRepo implements purchase.Repository.
type PurchaseRepo struct {
	*BaseDocumentRepo[*purchase.Purchase]
}

// NewPurchaseRepo creates a new purchase repository.
func NewPurchaseRepo(txManager *postgres.TxManager) *PurchaseRepo {
	return &PurchaseRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			purchaseTable,
			purchaseLineTable,
			[]string{"branch_id"},
			postgres.ExtractDBColumns[purchase.Purchase](),
			func() *purchase.Purchase { return &purchase.Purchase{} },
		),
	}
}

// Compile-time interface check.
var _ purchase.Repository = (*PurchaseRepo)(nil)

// SaveLines replaces the purchase table part.
func (r *PurchaseRepo) SaveLines(ctx context.Context, docID id.ID, lines []purchase.PurchaseLine) error {
	return replaceLines(ctx, r, purchaseLineTable, docID, lines)
}

// GetLines loads the purchase table part ordered by line number.
func (r *PurchaseRepo) GetLines(ctx context.Context, docID id.ID) ([]purchase.PurchaseLine, error) {
	return selectLines[purchase.PurchaseLine](ctx, r, purchaseLineTable, docID)
}
