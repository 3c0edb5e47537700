package transfer

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

// Service provides business operations for transfer documents.
type Service struct {
	repo      Repository
	stock     *stock.Service
	branches  *branch.Service
	numbers   *numerator.Service
	txManager tx.Manager
}

// NewService creates a new transfer service.
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

// Create persists a new transfer in PENDING state. No stock effect yet.
func (s *Service) Create(ctx context.Context, doc *Transfer) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	scope := security.GetScope(ctx)
	if err := scope.RequireBranch(doc.FromBranchID); err != nil {
		return err
	}
	doc.CreatedBy = security.GetUserID(ctx)
	doc.UpdatedBy = doc.CreatedBy

	from, err := s.branches.GetActive(ctx, doc.FromBranchID)
	if err != nil {
		return err
	}
	to, err := s.branches.GetActive(ctx, doc.ToBranchID)
	if err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if doc.Number == "" {
			code := numerator.TransferBranchCode(from.Code, to.Code)
			number, err := s.numbers.Next(ctx, numerator.DefaultConfig(numerator.PrefixTransfer), code, doc.Date)
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

		logger.Info(ctx, "transfer created", "id", doc.ID, "number", doc.Number)
		return nil
	})
}

// Approve runs the outbound effect: PENDING -> IN_TRANSIT. Every line's
// source balance is checked (with locks) before any mutation; only then
// does the FIFO withdrawal run per line. A failing line aborts the
// whole approval.
func (s *Service) Approve(ctx context.Context, docID id.ID) (*Transfer, error) {
	var doc *Transfer

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.getForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		scope := security.GetScope(ctx)
		if err := scope.RequireBranch(doc.FromBranchID); err != nil {
			return err
		}

		if err := doc.Transition(DocumentType, StatusInTransit, StatusPending); err != nil {
			return err
		}

		// Precondition pass: all lines must be coverable before any
		// lot is touched. The balance locks hold until commit.
		for _, line := range doc.Lines {
			if err := s.stock.CheckAvailability(ctx, doc.FromBranchID, line.ProductID, line.Quantity); err != nil {
				return fmt.Errorf("approve line %d: %w", line.LineNo, err)
			}
		}

		for _, line := range doc.Lines {
			_, err := s.stock.Withdraw(ctx, stock.Withdrawal{
				BranchID:     doc.FromBranchID,
				ProductID:    line.ProductID,
				Quantity:     line.Quantity,
				RecorderID:   doc.ID,
				RecorderType: DocumentType,
				Period:       doc.Date,
			})
			if err != nil {
				return fmt.Errorf("withdraw line %d: %w", line.LineNo, err)
			}
		}

		now := time.Now().UTC()
		doc.ApprovedAt = &now
		doc.UpdatedBy = security.GetUserID(ctx)

		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "transfer approved",
		"id", doc.ID,
		"number", doc.Number,
		"lines", len(doc.Lines),
	)

	return doc, nil
}

// Receive runs the inbound effect: IN_TRANSIT -> RECEIVED. For each
// line the carried cost is priced by a second FIFO walk over whatever
// remains at the source branch (the outbound decrements already
// happened at approve time; this walk sources cost basis only), then
// one lot is created at the destination and its balance increased.
func (s *Service) Receive(ctx context.Context, docID id.ID) (*Transfer, error) {
	var doc *Transfer

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.getForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		scope := security.GetScope(ctx)
		if err := scope.RequireBranch(doc.ToBranchID); err != nil {
			return err
		}

		if err := doc.Transition(DocumentType, StatusReceived, StatusInTransit); err != nil {
			return err
		}

		for i := range doc.Lines {
			line := &doc.Lines[i]

			unitCost, err := s.stock.ProbeCarriedCost(ctx, doc.FromBranchID, line.ProductID, line.Quantity)
			if err != nil {
				return fmt.Errorf("price line %d: %w", line.LineNo, err)
			}
			line.UnitCost = unitCost

			_, err = s.stock.Receive(ctx, stock.Receipt{
				BranchID:     doc.ToBranchID,
				ProductID:    line.ProductID,
				Quantity:     line.Quantity,
				UnitCost:     unitCost,
				RefDocType:   entity.LotRefTransfer,
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

		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "transfer received",
		"id", doc.ID,
		"number", doc.Number,
		"lines", len(doc.Lines),
	)

	return doc, nil
}

// Cancel marks the transfer CANCELLED from PENDING or IN_TRANSIT.
// Cancelling an IN_TRANSIT transfer does not restock the source branch;
// the goods already left and the cancellation is bookkeeping only.
func (s *Service) Cancel(ctx context.Context, docID id.ID) (*Transfer, error) {
	var doc *Transfer

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.getForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		scope := security.GetScope(ctx)
		if err := scope.RequireBranch(doc.FromBranchID); err != nil {
			return err
		}

		if err := doc.Transition(DocumentType, StatusCancelled, StatusPending, StatusInTransit); err != nil {
			return err
		}
		doc.UpdatedBy = security.GetUserID(ctx)

		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "transfer cancelled", "id", doc.ID, "number", doc.Number)
	return doc, nil
}

// GetByID retrieves a transfer with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Transfer, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, s.normalizeGetErr(err, docID)
	}
	return s.withLines(ctx, doc)
}

// List retrieves transfers with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Transfer], error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) getForUpdate(ctx context.Context, docID id.ID) (*Transfer, error) {
	doc, err := s.repo.GetForUpdate(ctx, docID)
	if err != nil {
		return nil, s.normalizeGetErr(err, docID)
	}
	return s.withLines(ctx, doc)
}

func (s *Service) withLines(ctx context.Context, doc *Transfer) (*Transfer, error) {
	lines, err := s.repo.GetLines(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines
	return doc, nil
}

func (s *Service) normalizeGetErr(err error, docID id.ID) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound("transfer", docID.String())
	}
	return err
}
