package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"chalin/internal/domain/catalogs/branch"
	"chalin/internal/infrastructure/storage/postgres"
)

const branchTable = "cat_branch"

// BranchRepo implements branch.Repository.
type BranchRepo struct {
	*BaseCatalogRepo[*branch.Branch]
}

// NewBranchRepo creates a new branch repository.
func NewBranchRepo(txManager *postgres.TxManager) *BranchRepo {
	return &BranchRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			branchTable,
			postgres.ExtractDBColumns[branch.Branch](),
			func() *branch.Branch { return &branch.Branch{} },
		),
	}
}

// Compile-time interface check.
var _ branch.Repository = (*BranchRepo)(nil)

// ListActive returns all operational branches ordered by code.
func (r *BranchRepo) ListActive(ctx context.Context) ([]*branch.Branch, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"is_active": true}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("code ASC")

	items, err := r.FindMany(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list active branches: %w", err)
	}

	return items, nil
}
