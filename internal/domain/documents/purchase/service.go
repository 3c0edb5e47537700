package purchase

import (
	"context"
	"fmt"
	"time"

	"chalin/internal/core/apperror"
	"chalin/internal/core/entity"
	"chalin/internal/core/id"
	"chalin/internal/core/security"
	"chalin/internal/core/tx"
	"chalin/internal/domain"
	"chalin/internal/domain/catalogs/branch"
	"chalin/internal/domain/registers/stock"
	"chalin/pkg/logger"
	"chalin/pkg/numerator"
)

// Service provides business operations for purchase documents.
type Service struct {
	repo      Repository
	stock     *stock.Service
	branches  *branch.Service
	numbers   *numerator.Service
	txManager tx.Manager
}

// NewService creates a new purchase service.
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

// Create persists a new purchase in PENDING state. No stock effect yet.
func (s *Service) Create(ctx context.Context, doc *Purchase) error {
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

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if doc.Number == "" {
			number, err := s.numbers.Next(ctx, numerator.DefaultConfig(numerator.PrefixPurchase), br.Code, doc.Date)
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
			doc.Number = number
		}

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}

		logger.Info(ctx, "purchase created", "id", doc.ID, "number", doc.Number)
		return nil
	})
}

// Receive runs the stock effect: PENDING -> RECEIVED, one new lot and
// one balance increase per line, all in a single transaction.
func (s *Service) Receive(ctx context.Context, docID id.ID) (*Purchase, error) {
	var doc *Purchase

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

		if err := doc.Transition(DocumentType, StatusReceived, StatusPending); err != nil {
			return err
		}

		// Lines are processed in stored order so a failure is reproducible.
		for _, line := range doc.Lines {
			_, err := s.stock.Receive(ctx, stock.Receipt{
				BranchID:     doc.BranchID,
				ProductID:    line.ProductID,
				Quantity:     line.Quantity,
				UnitCost:     line.UnitCost,
				RefDocType:   entity.LotRefPurchase,
				RefDocID:     doc.ID,
				RecorderType: DocumentType,
				Period:       doc.Date,
			})
			if err != nil {
				return fmt.Errorf("receive line %d: %w", line.LineNo, err)
			}
		}

		now := time.Now().UTC()
		doc.ReceivedAt = &now
		doc.UpdatedBy = security.GetUserID(ctx)

		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase received",
		"id", doc.ID,
		"number", doc.Number,
		"lines", len(doc.Lines),
	)

	return doc, nil
}

// Cancel marks the purchase CANCELLED. Only legal from PENDING; nothing
// was received, so there is no stock effect to unwind.
func (s *Service) Cancel(ctx context.Context, docID id.ID) (*Purchase, error) {
	var doc *Purchase

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

		if err := doc.Transition(DocumentType, StatusCancelled, StatusPending); err != nil {
			return err
		}
		doc.UpdatedBy = security.GetUserID(ctx)

		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase cancelled", "id", doc.ID, "number", doc.Number)
	return doc, nil
}

// GetByID retrieves a purchase with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Purchase, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, s.normalizeGetErr(err, docID)
	}
	return s.withLines(ctx, doc)
}

// List retrieves purchases with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Purchase], error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) getForUpdate(ctx context.Context, docID id.ID) (*Purchase, error) {
	doc, err := s.repo.GetForUpdate(ctx, docID)
	if err != nil {
		return nil, s.normalizeGetErr(err, docID)
	}
	return s.withLines(ctx, doc)
}

func (s *Service) withLines(ctx context.Context, doc *Purchase) (*Purchase, error) {
	lines, err := s.repo.GetLines(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines
	return doc, nil
}

func (s *Service) normalizeGetErr(err error, docID id.ID) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound("purchase", docID.String())
	}
	return err
}
