// Package register_repo provides the PostgreSQL implementation of the
// stock register: lots, balances and the movements journal.
//
// Quantities are stored as BIGINT scaled by 1e4 (matching types.Quantity),
// money as NUMERIC. SQL that mixes the two divides by 10000 explicitly.
package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"chalin/internal/core/apperror"
	"chalin/internal/core/entity"
	"chalin/internal/core/id"
	"chalin/internal/core/types"
	"chalin/internal/domain/registers/stock"
	"chalin/internal/infrastructure/storage/postgres"
)

const (
	lotTable      = "reg_stock_lot"
	balanceTable  = "reg_stock_balance"
	movementTable = "reg_stock_movement"
)

var lotCols = postgres.ExtractDBColumns[entity.StockLot]()
var balanceCols = postgres.ExtractDBColumns[entity.StockBalance]()
var movementCols = postgres.ExtractDBColumns[entity.StockMovement]()

// StockRepo implements stock.Repository.
type StockRepo struct {
	txManager *postgres.TxManager
	batch     *postgres.BatchInserter
}

// NewStockRepo creates a new stock register repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		batch:     postgres.NewBatchInserter(txManager),
	}
}

// Compile-time interface check.
var _ stock.Repository = (*StockRepo)(nil)

func (r *StockRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *StockRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

///////////
// Lots  //
///////////

// CreateLot inserts a new stock lot.
func (r *StockRepo) CreateLot(ctx context.Context, lot entity.StockLot) error {
	data := postgres.StructToMap(&lot)

	sql, args, err := r.builder().
		Insert(lotTable).
		SetMap(data).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert lot: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lot: %w", err)
	}

	return nil
}

// GetAvailableLots returns non-depleted lots in FIFO order.
func (r *StockRepo) GetAvailableLots(ctx context.Context, branchID, productID id.ID) ([]entity.StockLot, error) {
	return r.availableLots(ctx, branchID, productID, false)
}

// GetAvailableLotsForUpdate returns non-depleted lots in FIFO order with
// row locks. Requires an active transaction in context.
func (r *StockRepo) GetAvailableLotsForUpdate(ctx context.Context, branchID, productID id.ID) ([]entity.StockLot, error) {
	return r.availableLots(ctx, branchID, productID, true)
}

func (r *StockRepo) availableLots(ctx context.Context, branchID, productID id.ID, forUpdate bool) ([]entity.StockLot, error) {
	q := r.builder().
		Select(lotCols...).
		From(lotTable).
		Where(squirrel.Eq{"branch_id": branchID}).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.Gt{"remaining_quantity": 0}).
		OrderBy("lot_date ASC", "id ASC")

	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lots []entity.StockLot
	if err := pgxscan.Select(ctx, r.querier(ctx), &lots, sql, args...); err != nil {
		return nil, fmt.Errorf("select available lots: %w", err)
	}

	return lots, nil
}

// DecrementLot reduces a lot's remaining quantity. The WHERE guard keeps
// the lot invariant (remaining never below zero) even under races.
func (r *StockRepo) DecrementLot(ctx context.Context, lotID id.ID, amount types.Quantity) error {
	sql := `
		UPDATE reg_stock_lot
		SET remaining_quantity = remaining_quantity - $2
		WHERE id = $1 AND remaining_quantity >= $2
	`

	result, err := r.querier(ctx).Exec(ctx, sql, lotID, amount)
	if err != nil {
		return fmt.Errorf("decrement lot: %w", err)
	}

	if result.RowsAffected() == 0 {
		var remaining types.Quantity
		err := r.querier(ctx).QueryRow(ctx,
			`SELECT remaining_quantity FROM reg_stock_lot WHERE id = $1`, lotID,
		).Scan(&remaining)
		if err == pgx.ErrNoRows {
			return apperror.NewNotFound(lotTable, lotID.String())
		}
		if err != nil {
			return fmt.Errorf("read lot remaining: %w", err)
		}
		return apperror.NewInsufficientLotQuantity(lotID.String(), amount.Float64(), remaining.Float64())
	}

	return nil
}

// GetLotsByRef retrieves lots created by a document, depleted included.
func (r *StockRepo) GetLotsByRef(ctx context.Context, refType entity.LotRefType, refID id.ID) ([]entity.StockLot, error) {
	sql, args, err := r.builder().
		Select(lotCols...).
		From(lotTable).
		Where(squirrel.Eq{"ref_doc_type": refType}).
		Where(squirrel.Eq{"ref_doc_id": refID}).
		OrderBy("lot_date ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lots []entity.StockLot
	if err := pgxscan.Select(ctx, r.querier(ctx), &lots, sql, args...); err != nil {
		return nil, fmt.Errorf("select lots by ref: %w", err)
	}

	return lots, nil
}

//////////////
// Balances //
//////////////

// GetBalance returns the current balance, zero-quantity default when the
// row does not exist yet.
func (r *StockRepo) GetBalance(ctx context.Context, branchID, productID id.ID) (entity.StockBalance, error) {
	return r.balance(ctx, branchID, productID, false)
}

// GetBalanceForUpdate returns the balance with a row lock.
// A missing row still comes back as a zero default; the caller's insert
// path is serialized by the lot row locks taken alongside.
func (r *StockRepo) GetBalanceForUpdate(ctx context.Context, branchID, productID id.ID) (entity.StockBalance, error) {
	return r.balance(ctx, branchID, productID, true)
}

func (r *StockRepo) balance(ctx context.Context, branchID, productID id.ID, forUpdate bool) (entity.StockBalance, error) {
	q := r.builder().
		Select(balanceCols...).
		From(balanceTable).
		Where(squirrel.Eq{"branch_id": branchID}).
		Where(squirrel.Eq{"product_id": productID})

	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return entity.StockBalance{}, fmt.Errorf("build query: %w", err)
	}

	var b entity.StockBalance
	if err := pgxscan.Get(ctx, r.querier(ctx), &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity.StockBalance{
				BranchID:  branchID,
				ProductID: productID,
			}, nil
		}
		return entity.StockBalance{}, fmt.Errorf("get balance: %w", err)
	}

	return b, nil
}

// ApplyDelta upserts the balance row, adding delta to quantity.
func (r *StockRepo) ApplyDelta(ctx context.Context, branchID, productID id.ID, delta types.Quantity, movementAt time.Time) (entity.StockBalance, error) {
	sql := `
		INSERT INTO reg_stock_balance (branch_id, product_id, quantity, min_stock, last_movement_at, updated_at)
		VALUES ($1, $2, $3, 0, $4, $5)
		ON CONFLICT (branch_id, product_id) DO UPDATE SET
			quantity = reg_stock_balance.quantity + EXCLUDED.quantity,
			last_movement_at = EXCLUDED.last_movement_at,
			updated_at = EXCLUDED.updated_at
		RETURNING branch_id, product_id, quantity, min_stock, last_movement_at, updated_at
	`

	var b entity.StockBalance
	err := pgxscan.Get(ctx, r.querier(ctx), &b, sql,
		branchID, productID, delta, movementAt, time.Now().UTC())
	if err != nil {
		return entity.StockBalance{}, fmt.Errorf("apply balance delta: %w", err)
	}

	return b, nil
}

// SetMinStock stores the reorder threshold without touching quantity.
func (r *StockRepo) SetMinStock(ctx context.Context, branchID, productID id.ID, minStock types.Quantity) error {
	sql := `
		INSERT INTO reg_stock_balance (branch_id, product_id, quantity, min_stock, last_movement_at, updated_at)
		VALUES ($1, $2, 0, $3, $4, $4)
		ON CONFLICT (branch_id, product_id) DO UPDATE SET
			min_stock = EXCLUDED.min_stock,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := r.querier(ctx).Exec(ctx, sql, branchID, productID, minStock, time.Now().UTC()); err != nil {
		return fmt.Errorf("set min stock: %w", err)
	}

	return nil
}

// GetBalancesByBranch returns balances for a branch.
func (r *StockRepo) GetBalancesByBranch(ctx context.Context, branchID id.ID, filter stock.BalanceFilter) ([]entity.StockBalance, error) {
	q := r.builder().
		Select(balanceCols...).
		From(balanceTable).
		Where(squirrel.Eq{"branch_id": branchID}).
		OrderBy("product_id ASC")

	if len(filter.ProductIDs) > 0 {
		q = q.Where(squirrel.Eq{"product_id": filter.ProductIDs})
	}
	if filter.ExcludeZero {
		q = q.Where(squirrel.NotEq{"quantity": 0})
	}
	if filter.LowOnly {
		q = q.Where(squirrel.Gt{"min_stock": 0}).
			Where(squirrel.Expr("quantity < min_stock"))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []entity.StockBalance
	if err := pgxscan.Select(ctx, r.querier(ctx), &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select balances by branch: %w", err)
	}

	return balances, nil
}

// GetBalancesByProduct returns balances across branches for a product.
func (r *StockRepo) GetBalancesByProduct(ctx context.Context, productID id.ID) ([]entity.StockBalance, error) {
	sql, args, err := r.builder().
		Select(balanceCols...).
		From(balanceTable).
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("branch_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []entity.StockBalance
	if err := pgxscan.Select(ctx, r.querier(ctx), &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select balances by product: %w", err)
	}

	return balances, nil
}

// GetLowStock returns balances below their reorder threshold.
func (r *StockRepo) GetLowStock(ctx context.Context, branchID *id.ID) ([]entity.StockBalance, error) {
	q := r.builder().
		Select(balanceCols...).
		From(balanceTable).
		Where(squirrel.Gt{"min_stock": 0}).
		Where(squirrel.Expr("quantity < min_stock")).
		OrderBy("branch_id ASC", "product_id ASC")

	if branchID != nil {
		q = q.Where(squirrel.Eq{"branch_id": *branchID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []entity.StockBalance
	if err := pgxscan.Select(ctx, r.querier(ctx), &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select low stock: %w", err)
	}

	return balances, nil
}

///////////////
// Movements //
///////////////

// CreateMovements batch inserts journal rows via the COPY protocol.
func (r *StockRepo) CreateMovements(ctx context.Context, movements []entity.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(movements))
	for i := range movements {
		data := postgres.StructToMap(&movements[i])
		row := make([]any, 0, len(movementCols))
		for _, col := range movementCols {
			row = append(row, data[col])
		}
		rows = append(rows, row)
	}

	if _, err := r.batch.CopyFromSlice(ctx, movementTable, movementCols, rows); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}

	return nil
}

// GetMovementsByRecorder retrieves all movements for a document.
func (r *StockRepo) GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.StockMovement, error) {
	sql, args, err := r.builder().
		Select(movementCols...).
		From(movementTable).
		Where(squirrel.Eq{"recorder_id": recorderID}).
		OrderBy("line_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.StockMovement
	if err := pgxscan.Select(ctx, r.querier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements by recorder: %w", err)
	}

	return movements, nil
}

// GetMovementHistory returns movement history for a product, newest first.
func (r *StockRepo) GetMovementHistory(ctx context.Context, productID id.ID, filter stock.MovementFilter) ([]entity.StockMovement, error) {
	q := r.builder().
		Select(movementCols...).
		From(movementTable).
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("period DESC", "line_id DESC")

	if filter.BranchID != nil {
		q = q.Where(squirrel.Eq{"branch_id": *filter.BranchID})
	}
	if filter.RecordType != nil {
		q = q.Where(squirrel.Eq{"record_type": *filter.RecordType})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"period": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"period": *filter.ToDate})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.StockMovement
	if err := pgxscan.Select(ctx, r.querier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movement history: %w", err)
	}

	return movements, nil
}

// GetTurnover calculates opening balance plus receipt/expense totals for
// a period. Opening is folded from all journal rows before FromDate.
func (r *StockRepo) GetTurnover(ctx context.Context, filter stock.TurnoverFilter) (stock.Turnover, error) {
	var t stock.Turnover

	where := squirrel.And{}
	if filter.BranchID != nil {
		where = append(where, squirrel.Eq{"branch_id": *filter.BranchID})
	}
	if filter.ProductID != nil {
		where = append(where, squirrel.Eq{"product_id": *filter.ProductID})
	}

	openQ := r.builder().
		Select(`COALESCE(SUM(CASE WHEN record_type = 'receipt' THEN quantity ELSE -quantity END), 0)::bigint`).
		From(movementTable).
		Where(where).
		Where(squirrel.Lt{"period": filter.FromDate})

	sql, args, err := openQ.ToSql()
	if err != nil {
		return t, fmt.Errorf("build opening query: %w", err)
	}

	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&t.OpeningBalance); err != nil {
		return t, fmt.Errorf("opening balance: %w", err)
	}

	periodQ := r.builder().
		Select(
			`COALESCE(SUM(quantity) FILTER (WHERE record_type = 'receipt'), 0)::bigint AS receipt`,
			`COALESCE(SUM(quantity) FILTER (WHERE record_type = 'expense'), 0)::bigint AS expense`,
			`COALESCE(SUM(amount) FILTER (WHERE record_type = 'receipt'), 0) AS receipt_amount`,
			`COALESCE(SUM(amount) FILTER (WHERE record_type = 'expense'), 0) AS expense_amount`,
		).
		From(movementTable).
		Where(where).
		Where(squirrel.GtOrEq{"period": filter.FromDate}).
		Where(squirrel.LtOrEq{"period": filter.ToDate})

	sql, args, err = periodQ.ToSql()
	if err != nil {
		return t, fmt.Errorf("build period query: %w", err)
	}

	err = r.querier(ctx).QueryRow(ctx, sql, args...).
		Scan(&t.Receipt, &t.Expense, &t.ReceiptAmount, &t.ExpenseAmount)
	if err != nil {
		return t, fmt.Errorf("period turnover: %w", err)
	}

	t.ClosingBalance = t.OpeningBalance + t.Receipt - t.Expense

	return t, nil
}

///////////////
// Valuation //
///////////////

// GetStockValuation folds remaining lots into per-product quantity and
// value. Quantity is stored scaled by 1e4, hence the divide.
func (r *StockRepo) GetStockValuation(ctx context.Context, branchID id.ID) ([]stock.ValuationRow, error) {
	sql := `
		SELECT product_id,
			   SUM(remaining_quantity)::bigint AS quantity,
			   SUM((remaining_quantity::numeric / 10000) * unit_cost) AS value
		FROM reg_stock_lot
		WHERE branch_id = $1 AND remaining_quantity > 0
		GROUP BY product_id
		ORDER BY product_id
	`

	var rows []stock.ValuationRow
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, branchID); err != nil {
		return nil, fmt.Errorf("select stock valuation: %w", err)
	}

	return rows, nil
}
