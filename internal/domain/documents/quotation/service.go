package quotation

import (
	"context"
	"fmt"
	"time"

	"chalin/internal/core/apperror"
	"chalin/internal/core/id"
	"chalin/internal/core/security"
	"chalin/internal/core/tx"
	"chalin/internal/domain"
	"chalin/internal/domain/catalogs/branch"
	"chalin/internal/domain/documents/sale"
	"chalin/pkg/logger"
	"chalin/pkg/numerator"
)

// SaleCreator runs the sale effect for converted quotations.
// Satisfied by *sale.Service.
type SaleCreator interface {
	Create(ctx context.Context, doc *sale.Sale) error
}

// Service provides business operations for quotation documents.
type Service struct {
	repo      Repository
	sales     SaleCreator
	branches  *branch.Service
	numbers   *numerator.Service
	txManager tx.Manager
}

// NewService creates a new quotation service.
func NewService(
	repo Repository,
	sales SaleCreator,
	branches *branch.Service,
	numbers *numerator.Service,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		sales:     sales,
		branches:  branches,
		numbers:   numbers,
		txManager: txManager,
	}
}

// Create persists a new quotation in PENDING state.
func (s *Service) Create(ctx context.Context, doc *Quotation) error {
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
			number, err := s.numbers.Next(ctx, numerator.DefaultConfig(numerator.PrefixQuotation), br.Code, doc.Date)
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

		logger.Info(ctx, "quotation created", "id", doc.ID, "number", doc.Number)
		return nil
	})
}

// ConvertToSale accepts the quotation and creates a sale with the same
// lines. The sale effect (FIFO consumption) and the status flip commit
// together: if stock cannot cover the quoted quantities, the quotation
// stays PENDING.
func (s *Service) ConvertToSale(ctx context.Context, docID id.ID) (*sale.Sale, error) {
	var created *sale.Sale

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.getForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		scope := security.GetScope(ctx)
		if err := scope.RequireBranch(doc.BranchID); err != nil {
			return err
		}

		if doc.IsExpired(time.Now().UTC()) {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "quotation has expired").
				WithDetail("quotation_id", doc.ID.String()).
				WithDetail("valid_until", doc.ValidUntil)
		}

		if err := doc.Transition(DocumentType, StatusAccepted, StatusPending); err != nil {
			return err
		}

		saleDoc := sale.NewSale(doc.BranchID, doc.CustomerName)
		saleDoc.Comment = fmt.Sprintf("from quotation %s", doc.Number)
		for _, line := range doc.Lines {
			saleDoc.AddLine(line.ProductID, line.Quantity, line.UnitPrice)
		}

		if err := s.sales.Create(ctx, saleDoc); err != nil {
			return err
		}
		created = saleDoc

		doc.SaleID = &saleDoc.ID
		doc.UpdatedBy = security.GetUserID(ctx)

		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "quotation converted to sale",
		"quotation_id", docID,
		"sale_id", created.ID,
		"sale_number", created.Number,
	)

	return created, nil
}

// Cancel marks the quotation CANCELLED. Only legal from PENDING.
func (s *Service) Cancel(ctx context.Context, docID id.ID) (*Quotation, error) {
	var doc *Quotation

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

	logger.Info(ctx, "quotation cancelled", "id", doc.ID, "number", doc.Number)
	return doc, nil
}

// GetByID retrieves a quotation with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Quotation, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, s.normalizeGetErr(err, docID)
	}
	return s.withLines(ctx, doc)
}

// List retrieves quotations with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Quotation], error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) getForUpdate(ctx context.Context, docID id.ID) (*Quotation, error) {
	doc, err := s.repo.GetForUpdate(ctx, docID)
	if err != nil {
		return nil, s.normalizeGetErr(err, docID)
	}
	return s.withLines(ctx, doc)
}

func (s *Service) withLines(ctx context.Context, doc *Quotation) (*Quotation, error) {
	lines, err := s.repo.GetLines(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines
	return doc, nil
}

func (s *Service) normalizeGetErr(err error, docID id.ID) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound("quotation", docID.String())
	}
	return err
}
