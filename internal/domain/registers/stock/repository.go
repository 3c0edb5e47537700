// Package stock provides the stock register: cost lots, the
// branch-product balance projection and the movements journal.
package stock

import (
	"context"
	"time"

	"chalin/internal/core/entity"
	"chalin/internal/core/id"
	"chalin/internal/core/types"
)

// Repository defines persistence operations for the stock register.
type Repository interface {
	// Lot operations

	// CreateLot inserts a new stock lot
	CreateLot(ctx context.Context, lot entity.StockLot) error

	// GetAvailableLots returns lots with remaining_quantity > 0 for
	// branch+product, ordered by lot_date then id (FIFO contract)
	GetAvailableLots(ctx context.Context, branchID, productID id.ID) ([]entity.StockLot, error)

	// GetAvailableLotsForUpdate is GetAvailableLots with row locks.
	// Withdrawals must use this form so concurrent consumers of the
	// same branch+product serialize instead of jointly overdrawing.
	GetAvailableLotsForUpdate(ctx context.Context, branchID, productID id.ID) ([]entity.StockLot, error)

	// DecrementLot reduces a lot's remaining quantity.
	// Fails with InsufficientLotQuantity if amount exceeds what is left.
	DecrementLot(ctx context.Context, lotID id.ID, amount types.Quantity) error

	// GetLotsByRef retrieves lots created by a document (incl. depleted)
	GetLotsByRef(ctx context.Context, refType entity.LotRefType, refID id.ID) ([]entity.StockLot, error)

	// Balance operations

	// GetBalance returns current balance for branch+product.
	// A missing row comes back as a zero-quantity default, never an error.
	GetBalance(ctx context.Context, branchID, productID id.ID) (entity.StockBalance, error)

	// GetBalanceForUpdate returns balance with row lock for stock control
	GetBalanceForUpdate(ctx context.Context, branchID, productID id.ID) (entity.StockBalance, error)

	// ApplyDelta upserts the balance row, adding delta to quantity.
	// Negative-result checks belong to the service layer.
	ApplyDelta(ctx context.Context, branchID, productID id.ID, delta types.Quantity, movementAt time.Time) (entity.StockBalance, error)

	// SetMinStock stores the reorder threshold, independent of quantity
	SetMinStock(ctx context.Context, branchID, productID id.ID, minStock types.Quantity) error

	// GetBalancesByBranch returns balances for a branch
	GetBalancesByBranch(ctx context.Context, branchID id.ID, filter BalanceFilter) ([]entity.StockBalance, error)

	// GetBalancesByProduct returns balances across all branches for a product
	GetBalancesByProduct(ctx context.Context, productID id.ID) ([]entity.StockBalance, error)

	// GetLowStock returns balances below their min_stock threshold
	GetLowStock(ctx context.Context, branchID *id.ID) ([]entity.StockBalance, error)

	// Movement journal

	// CreateMovements batch inserts journal rows
	CreateMovements(ctx context.Context, movements []entity.StockMovement) error

	// GetMovementsByRecorder retrieves all movements for a document
	GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.StockMovement, error)

	// GetMovementHistory returns movement history for a product
	GetMovementHistory(ctx context.Context, productID id.ID, filter MovementFilter) ([]entity.StockMovement, error)

	// GetTurnover calculates receipt and expense totals for a period
	GetTurnover(ctx context.Context, filter TurnoverFilter) (Turnover, error)

	// Valuation

	// GetStockValuation returns remaining quantity and value per product
	// for a branch, folded from the lots (Σ remaining × unit_cost)
	GetStockValuation(ctx context.Context, branchID id.ID) ([]ValuationRow, error)
}

// BalanceFilter for filtering balance queries.
type BalanceFilter struct {
	ProductIDs  []id.ID
	ExcludeZero bool
	LowOnly     bool
}

// MovementFilter for filtering movement history.
type MovementFilter struct {
	BranchID   *id.ID
	RecordType *entity.RecordType
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}

// TurnoverFilter for turnover reports.
type TurnoverFilter struct {
	BranchID  *id.ID
	ProductID *id.ID
	FromDate  time.Time
	ToDate    time.Time
}

// Turnover represents receipt/expense totals for a period.
type Turnover struct {
	OpeningBalance types.Quantity `json:"openingBalance"`
	Receipt        types.Quantity `json:"receipt"`
	Expense        types.Quantity `json:"expense"`
	ClosingBalance types.Quantity `json:"closingBalance"`
	ReceiptAmount  types.Money    `json:"receiptAmount"`
	ExpenseAmount  types.Money    `json:"expenseAmount"`
}

// ValuationRow is one product's stock value at a branch.
type ValuationRow struct {
	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	Value     types.Money    `db:"value" json:"value"`
}
