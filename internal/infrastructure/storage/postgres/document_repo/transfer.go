package document_repo

import (
	"context"

	"chalin/internal/core/id"
	"chalin/internal/domain/documents/transfer"
	"chalin/internal/infrastructure/storage/postgres"
)

const (
	transferTable     = "doc_transfer"
	transferLineTable = "doc_transfer_line"
)

// TransferRepo implements transfer.Repository.
type TransferRepo struct {
	*BaseDocumentRepo[*transfer.Transfer]
}

// NewTransferRepo creates a new transfer repository.
// ListFilter.BranchID matches either side of the transfer.
func NewTransferRepo(txManager *postgres.TxManager) *TransferRepo {
	return &TransferRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			transferTable,
			transferLineTable,
			[]string{"from_branch_id", "to_branch_id"},
			postgres.ExtractDBColumns[transfer.Transfer](),
			func() *transfer.Transfer { return &transfer.Transfer{} },
		),
	}
}

// Compile-time interface check.
var _ transfer.Repository = (*TransferRepo)(nil)

// SaveLines replaces the transfer table part.
func (r *TransferRepo) SaveLines(ctx context.Context, docID id.ID, lines []transfer.TransferLine) error {
	return replaceLines(ctx, r, transferLineTable, docID, lines)
}

// GetLines loads the transfer table part ordered by line number.
func (r *TransferRepo) GetLines(ctx context.Context, docID id.ID) ([]transfer.TransferLine, error) {
	return selectLines[transfer.TransferLine](ctx, r, transferLineTable, docID)
}
