package sale

import (
	"context"
	"fmt"

	"chalin/internal/core/apperror"
	"chalin/internal/core/id"
	"chalin/internal/core/security"
	"chalin/internal/core/tx"
	"chalin/internal/domain"
	"chalin/internal/domain/catalogs/branch"
	"chalin/internal/domain/registers/stock"
	"chalin/pkg/logger"
	"chalin/pkg/numerator"
)

// Service provides business operations for sale documents.
type Service struct {
	repo      Repository
	stock     *stock.Service
	branches  *branch.Service
	numbers   *numerator.Service
	txManager tx.Manager
}

// NewService creates a new sale service.
func NewService(
	repo Repository,
	stockSvc *stock.Service,
	branches *branch.Service,
	numbers *numerator.Service,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		stock:     stockSvc,
		branches:  branches,
		numbers:   numbers,
		txManager: txManager,
	}
}

// Create runs the sale effect: every line is consumed FIFO, cost fields
// are filled from the consumption plan and the document is persisted as
// COMPLETED. If any line cannot be satisfied the whole sale fails and
// the transaction rolls back, leaving lots and balances untouched.
func (s *Service) Create(ctx context.Context, doc *Sale) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	scope := security.GetScope(ctx)
	if err := scope.RequireBranch(doc.BranchID); err != nil {
		return err
	}
	doc.CreatedBy = security.GetUserID(ctx)
	doc.UpdatedBy = doc.CreatedBy

	br, err := s.branches.GetActive(ctx, doc.BranchID)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if doc.Number == "" {
			number, err := s.numbers.Next(ctx, numerator.DefaultConfig(numerator.PrefixSale), br.Code, doc.Date)
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
			doc.Number = number
		}

		// Lines consume in stored order. The row locks taken by
		// Withdraw serialize concurrent sales on the same product.
		for i := range doc.Lines {
			line := &doc.Lines[i]
			plan, err := s.stock.Withdraw(ctx, stock.Withdrawal{
				BranchID:     doc.BranchID,
				ProductID:    line.ProductID,
				Quantity:     line.Quantity,
				RecorderID:   doc.ID,
				RecorderType: DocumentType,
				Period:       doc.Date,
			})
			if err != nil {
				return fmt.Errorf("sell line %d: %w", line.LineNo, err)
			}
			line.UnitCost = plan.AverageUnitCost
			line.TotalCost = plan.TotalCost
		}
		doc.recalculateTotals()

		doc.Status = StatusCompleted
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "sale completed",
		"id", doc.ID,
		"number", doc.Number,
		"amount", doc.TotalAmount.String(),
		"cost", doc.TotalCost.String(),
	)

	return nil
}

// Cancel marks the sale CANCELLED. Bookkeeping flag only: consumed lots
// and balances are not restored. This is the documented business rule,
// not an omission.
func (s *Service) Cancel(ctx context.Context, docID id.ID) (*Sale, error) {
	var doc *Sale

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.getForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		scope := security.GetScope(ctx)
		if err := scope.RequireBranch(doc.BranchID); err != nil {
			return err
		}

		if err := doc.Transition(DocumentType, StatusCancelled, StatusCompleted); err != nil {
			return err
		}
		doc.UpdatedBy = security.GetUserID(ctx)

		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale cancelled", "id", doc.ID, "number", doc.Number)
	return doc, nil
}

// GetByID retrieves a sale with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Sale, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, s.normalizeGetErr(err, docID)
	}
	return s.withLines(ctx, doc)
}

// List retrieves sales with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Sale], error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) getForUpdate(ctx context.Context, docID id.ID) (*Sale, error) {
	doc, err := s.repo.GetForUpdate(ctx, docID)
	if err != nil {
		return nil, s.normalizeGetErr(err, docID)
	}
	return s.withLines(ctx, doc)
}

func (s *Service) withLines(ctx context.Context, doc *Sale) (*Sale, error) {
	lines, err := s.repo.GetLines(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines
	return doc, nil
}

func (s *Service) normalizeGetErr(err error, docID id.ID) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound("sale", docID.String())
	}
	return err
}
