package branch

import (
	"context"

	"chalin/internal/core/apperror"
	"chalin/internal/core/id"
	"chalin/internal/core/tx"
	"chalin/internal/domain"
)

// Service provides business logic for the Branch catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Branch]
	repo Repository
}

// NewService creates a new Branch service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Branch]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "branch",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
	}

	base.Hooks().On(domain.BeforeCreate, svc.checkCodeUnique)

	return svc
}

// checkCodeUnique rejects duplicate branch codes. Codes appear in
// document numbers, so they must stay unique and stable.
func (s *Service) checkCodeUnique(ctx context.Context, b *Branch) error {
	if b.Code == "" {
		return apperror.NewValidation("branch code is required").
			WithDetail("field", "code")
	}
	exists, err := s.repo.ExistsByCode(ctx, b.Code)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewDuplicate("branch", "code", b.Code)
	}
	return nil
}

// ListActive returns operational branches.
func (s *Service) ListActive(ctx context.Context) ([]*Branch, error) {
	return s.repo.ListActive(ctx)
}

// GetActive retrieves a branch and verifies it can hold stock.
// Document effects call this before touching the branch's inventory.
func (s *Service) GetActive(ctx context.Context, branchID id.ID) (*Branch, error) {
	b, err := s.GetByID(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if !b.CanHoldStock() {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule, "branch is not operational").
			WithDetail("branch_id", branchID.String())
	}
	return b, nil
}
