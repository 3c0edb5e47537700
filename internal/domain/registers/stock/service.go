package stock

import (
	"context"
	"fmt"
	"time"

	"chalin/internal/core/apperror"
	"chalin/internal/core/entity"
	"chalin/internal/core/id"
	"chalin/internal/core/security"
	"chalin/internal/core/tx"
	"chalin/internal/core/types"
	"chalin/pkg/logger"
)

// RecorderTypeAdjust identifies manual adjustments in the journal.
const RecorderTypeAdjust = "StockAdjust"

// Service provides business operations for the stock register.
// Transactions are managed by the caller: document effect processors
// invoke these methods inside their own transaction so a failing line
// rolls back the whole document effect. ManualAdjust is the exception,
// opening its own transaction because no document service drives it.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new stock register service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Receipt describes an inbound stock event that creates a lot.
type Receipt struct {
	BranchID  id.ID
	ProductID id.ID
	Quantity  types.Quantity
	UnitCost  types.Money

	// Reference to the originating document
	RefDocType entity.LotRefType
	RefDocID   id.ID

	// LotDate orders the lot for FIFO; zero means now
	LotDate time.Time

	// RecorderType and Period describe the journal entry
	RecorderType string
	Period       time.Time
}

// Receive creates a lot, journals a receipt movement and increases the
// balance. One call per document line.
func (s *Service) Receive(ctx context.Context, r Receipt) (entity.StockLot, error) {
	if !r.Quantity.IsPositive() {
		return entity.StockLot{}, apperror.NewValidation("receipt quantity must be positive").
			WithDetail("product_id", r.ProductID.String()).
			WithDetail("quantity", r.Quantity.String())
	}
	if r.UnitCost.IsNegative() {
		return entity.StockLot{}, apperror.NewValidation("unit cost cannot be negative").
			WithDetail("product_id", r.ProductID.String()).
			WithDetail("unit_cost", r.UnitCost.String())
	}

	lot := entity.NewStockLot(r.BranchID, r.ProductID, r.Quantity, r.UnitCost, r.RefDocType, r.RefDocID, r.LotDate)
	if err := s.repo.CreateLot(ctx, lot); err != nil {
		return entity.StockLot{}, fmt.Errorf("create lot: %w", err)
	}

	movement := entity.NewStockMovement(
		r.RefDocID, r.RecorderType, r.Period,
		entity.RecordTypeReceipt,
		r.BranchID, r.ProductID,
		r.Quantity, r.UnitCost.Mul(r.Quantity.Decimal()),
	)
	if err := s.repo.CreateMovements(ctx, []entity.StockMovement{movement}); err != nil {
		return entity.StockLot{}, fmt.Errorf("journal receipt: %w", err)
	}

	if _, err := s.applyDelta(ctx, r.BranchID, r.ProductID, r.Quantity, r.Period); err != nil {
		return entity.StockLot{}, err
	}

	return lot, nil
}

// Withdrawal describes an outbound stock request consumed FIFO.
type Withdrawal struct {
	BranchID  id.ID
	ProductID id.ID
	Quantity  types.Quantity

	RecorderID   id.ID
	RecorderType string
	Period       time.Time
}

// Withdraw consumes stock oldest-lot-first: locks the available lots,
// plans the consumption, applies the lot decrements, journals an
// expense movement and decreases the balance. All-or-nothing within
// the caller's transaction.
func (s *Service) Withdraw(ctx context.Context, w Withdrawal) (ConsumptionPlan, error) {
	lots, err := s.repo.GetAvailableLotsForUpdate(ctx, w.BranchID, w.ProductID)
	if err != nil {
		return ConsumptionPlan{}, fmt.Errorf("lock lots for %s: %w", w.ProductID, err)
	}

	plan, err := PlanConsumption(lots, w.Quantity, w.ProductID)
	if err != nil {
		return ConsumptionPlan{}, err
	}

	for _, draw := range plan.Draws {
		if err := s.repo.DecrementLot(ctx, draw.LotID, draw.Quantity); err != nil {
			return ConsumptionPlan{}, fmt.Errorf("decrement lot %s: %w", draw.LotID, err)
		}
	}

	movement := entity.NewStockMovement(
		w.RecorderID, w.RecorderType, w.Period,
		entity.RecordTypeExpense,
		w.BranchID, w.ProductID,
		w.Quantity, plan.TotalCost,
	)
	if err := s.repo.CreateMovements(ctx, []entity.StockMovement{movement}); err != nil {
		return ConsumptionPlan{}, fmt.Errorf("journal expense: %w", err)
	}

	if _, err := s.applyDelta(ctx, w.BranchID, w.ProductID, w.Quantity.Neg(), w.Period); err != nil {
		return ConsumptionPlan{}, err
	}

	return plan, nil
}

// CheckAvailability verifies the balance covers the required quantity,
// holding a row lock so the check stays valid for the rest of the
// caller's transaction.
func (s *Service) CheckAvailability(ctx context.Context, branchID, productID id.ID, required types.Quantity) error {
	balance, err := s.repo.GetBalanceForUpdate(ctx, branchID, productID)
	if err != nil {
		return fmt.Errorf("get balance for %s: %w", productID, err)
	}
	if balance.Quantity < required {
		return apperror.NewInsufficientStock(
			productID.String(),
			required.Float64(),
			balance.Quantity.Float64(),
			(required - balance.Quantity).Float64(),
		)
	}
	return nil
}

// ProbeCarriedCost prices a transfer-receive quantity by re-walking the
// source branch's remaining lots (see CarriedCost). Read-only.
func (s *Service) ProbeCarriedCost(ctx context.Context, fromBranchID, productID id.ID, quantity types.Quantity) (types.Money, error) {
	lots, err := s.repo.GetAvailableLots(ctx, fromBranchID, productID)
	if err != nil {
		return types.Zero(), fmt.Errorf("read source lots for %s: %w", productID, err)
	}
	return CarriedCost(lots, quantity), nil
}

// AdjustMode selects the manual adjustment semantics.
type AdjustMode string

const (
	AdjustAdd      AdjustMode = "add"
	AdjustSubtract AdjustMode = "subtract"
	AdjustSet      AdjustMode = "set"
)

// Adjustment is a manual balance correction. Adjustments are
// cost-basis-agnostic: they move the balance and the journal but never
// create or consume lots.
type Adjustment struct {
	BranchID  id.ID
	ProductID id.ID
	Mode      AdjustMode
	Quantity  types.Quantity

	RecorderID   id.ID
	RecorderType string
	Period       time.Time
}

// Adjust applies a manual stock correction.
// add: +quantity. subtract: -quantity, failing with NegativeStockError
// if the balance would go below zero (a missing row counts as zero).
// set: delta = quantity - current; setting to the current quantity is
// a no-op.
func (s *Service) Adjust(ctx context.Context, adj Adjustment) (entity.StockBalance, error) {
	if adj.Quantity.IsNegative() {
		return entity.StockBalance{}, apperror.NewValidation("adjustment quantity cannot be negative").
			WithDetail("quantity", adj.Quantity.String())
	}

	balance, err := s.repo.GetBalanceForUpdate(ctx, adj.BranchID, adj.ProductID)
	if err != nil {
		return entity.StockBalance{}, fmt.Errorf("get balance: %w", err)
	}

	var delta types.Quantity
	switch adj.Mode {
	case AdjustAdd:
		delta = adj.Quantity
	case AdjustSubtract:
		delta = adj.Quantity.Neg()
	case AdjustSet:
		delta = adj.Quantity - balance.Quantity
	default:
		return entity.StockBalance{}, apperror.NewValidation("invalid adjustment mode").
			WithDetail("mode", string(adj.Mode))
	}

	if delta.IsZero() {
		return balance, nil
	}

	if (balance.Quantity + delta).IsNegative() {
		return entity.StockBalance{}, apperror.NewNegativeStock(
			adj.ProductID.String(),
			balance.Quantity.Float64(),
			delta.Float64(),
		)
	}

	recordType := entity.RecordTypeReceipt
	if delta.IsNegative() {
		recordType = entity.RecordTypeExpense
	}
	movement := entity.NewStockMovement(
		adj.RecorderID, adj.RecorderType, adj.Period,
		recordType,
		adj.BranchID, adj.ProductID,
		delta.Abs(), types.Zero(),
	)
	if err := s.repo.CreateMovements(ctx, []entity.StockMovement{movement}); err != nil {
		return entity.StockBalance{}, fmt.Errorf("journal adjustment: %w", err)
	}

	updated, err := s.repo.ApplyDelta(ctx, adj.BranchID, adj.ProductID, delta, adj.Period)
	if err != nil {
		return entity.StockBalance{}, fmt.Errorf("apply delta: %w", err)
	}

	logger.Info(ctx, "stock adjusted",
		"branch_id", adj.BranchID,
		"product_id", adj.ProductID,
		"mode", adj.Mode,
		"delta", delta.String(),
	)

	return updated, nil
}

// ManualAdjust is the user-facing adjustment entry point: checks the
// caller's branch grant, then runs Adjust in its own transaction with a
// fresh recorder ID.
func (s *Service) ManualAdjust(ctx context.Context, branchID, productID id.ID, mode AdjustMode, quantity types.Quantity) (entity.StockBalance, error) {
	scope := security.GetScope(ctx)
	if err := scope.RequireBranch(branchID); err != nil {
		return entity.StockBalance{}, err
	}

	var balance entity.StockBalance
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		balance, err = s.Adjust(ctx, Adjustment{
			BranchID:     branchID,
			ProductID:    productID,
			Mode:         mode,
			Quantity:     quantity,
			RecorderID:   id.New(),
			RecorderType: RecorderTypeAdjust,
			Period:       time.Now().UTC(),
		})
		return err
	})
	if err != nil {
		return entity.StockBalance{}, err
	}
	return balance, nil
}

// applyDelta mutates the balance with a negative-result guard. After a
// planned withdrawal the guard should never fire; if it does, the lots
// and the balance have diverged.
func (s *Service) applyDelta(ctx context.Context, branchID, productID id.ID, delta types.Quantity, movementAt time.Time) (entity.StockBalance, error) {
	if delta.IsNegative() {
		balance, err := s.repo.GetBalanceForUpdate(ctx, branchID, productID)
		if err != nil {
			return entity.StockBalance{}, fmt.Errorf("get balance: %w", err)
		}
		if (balance.Quantity + delta).IsNegative() {
			return entity.StockBalance{}, apperror.NewNegativeStock(
				productID.String(),
				balance.Quantity.Float64(),
				delta.Float64(),
			)
		}
	}

	updated, err := s.repo.ApplyDelta(ctx, branchID, productID, delta, movementAt)
	if err != nil {
		return entity.StockBalance{}, fmt.Errorf("apply delta: %w", err)
	}
	return updated, nil
}

// SetMinStock stores the reorder threshold for low-stock alerting.
func (s *Service) SetMinStock(ctx context.Context, branchID, productID id.ID, minStock types.Quantity) error {
	if minStock.IsNegative() {
		return apperror.NewValidation("min stock cannot be negative").
			WithDetail("min_stock", minStock.String())
	}
	return s.repo.SetMinStock(ctx, branchID, productID, minStock)
}

// GetBalance returns the current balance. A pair with no stock history
// comes back as a zero-quantity default.
func (s *Service) GetBalance(ctx context.Context, branchID, productID id.ID) (entity.StockBalance, error) {
	return s.repo.GetBalance(ctx, branchID, productID)
}

// GetBranchStock returns all products with stock at a branch.
func (s *Service) GetBranchStock(ctx context.Context, branchID id.ID) ([]entity.StockBalance, error) {
	return s.repo.GetBalancesByBranch(ctx, branchID, BalanceFilter{ExcludeZero: true})
}

// GetProductAvailability returns available quantity across branches.
func (s *Service) GetProductAvailability(ctx context.Context, productID id.ID) (types.Quantity, error) {
	balances, err := s.repo.GetBalancesByProduct(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("get balances: %w", err)
	}

	var total types.Quantity
	for _, b := range balances {
		total += b.Quantity
	}
	return total, nil
}

// GetLowStock returns balances at or below their reorder threshold.
func (s *Service) GetLowStock(ctx context.Context, branchID *id.ID) ([]entity.StockBalance, error) {
	return s.repo.GetLowStock(ctx, branchID)
}

// GetTurnover generates a turnover report for the period.
func (s *Service) GetTurnover(ctx context.Context, filter TurnoverFilter) (Turnover, error) {
	return s.repo.GetTurnover(ctx, filter)
}

// GetMovementHistory returns the journal for a product.
func (s *Service) GetMovementHistory(ctx context.Context, productID id.ID, filter MovementFilter) ([]entity.StockMovement, error) {
	return s.repo.GetMovementHistory(ctx, productID, filter)
}

// GetStockValuation returns per-product stock value at a branch.
func (s *Service) GetStockValuation(ctx context.Context, branchID id.ID) ([]ValuationRow, error) {
	return s.repo.GetStockValuation(ctx, branchID)
}
