package stock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chalin/internal/core/apperror"
	"chalin/internal/core/entity"
	"chalin/internal/core/id"
	"chalin/internal/core/security"
	"chalin/internal/core/types"
)

// fakeRepo is an in-memory Repository. Locking methods behave like
// their plain counterparts; the tests are single-goroutine.
type fakeRepo struct {
	lots      map[id.ID]*entity.StockLot
	balances  map[[2]id.ID]*entity.StockBalance
	movements []entity.StockMovement
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		lots:     make(map[id.ID]*entity.StockLot),
		balances: make(map[[2]id.ID]*entity.StockBalance),
	}
}

func (f *fakeRepo) CreateLot(_ context.Context, lot entity.StockLot) error {
	f.lots[lot.ID] = &lot
	return nil
}

func (f *fakeRepo) GetAvailableLots(_ context.Context, branchID, productID id.ID) ([]entity.StockLot, error) {
	var out []entity.StockLot
	for _, lot := range f.lots {
		if lot.BranchID == branchID && lot.ProductID == productID && lot.RemainingQuantity.IsPositive() {
			out = append(out, *lot)
		}
	}
	return sortFIFO(out), nil
}

func (f *fakeRepo) GetAvailableLotsForUpdate(ctx context.Context, branchID, productID id.ID) ([]entity.StockLot, error) {
	return f.GetAvailableLots(ctx, branchID, productID)
}

func (f *fakeRepo) DecrementLot(_ context.Context, lotID id.ID, amount types.Quantity) error {
	lot, ok := f.lots[lotID]
	if !ok {
		return apperror.NewNotFound("stock lot", lotID.String())
	}
	if lot.RemainingQuantity < amount {
		return apperror.NewInsufficientLotQuantity(lotID.String(), amount.Float64(), lot.RemainingQuantity.Float64())
	}
	lot.RemainingQuantity -= amount
	return nil
}

func (f *fakeRepo) GetLotsByRef(_ context.Context, refType entity.LotRefType, refID id.ID) ([]entity.StockLot, error) {
	var out []entity.StockLot
	for _, lot := range f.lots {
		if lot.RefDocType == refType && lot.RefDocID == refID {
			out = append(out, *lot)
		}
	}
	return sortFIFO(out), nil
}

func (f *fakeRepo) GetBalance(_ context.Context, branchID, productID id.ID) (entity.StockBalance, error) {
	if b, ok := f.balances[[2]id.ID{branchID, productID}]; ok {
		return *b, nil
	}
	return entity.StockBalance{BranchID: branchID, ProductID: productID}, nil
}

func (f *fakeRepo) GetBalanceForUpdate(ctx context.Context, branchID, productID id.ID) (entity.StockBalance, error) {
	return f.GetBalance(ctx, branchID, productID)
}

func (f *fakeRepo) ApplyDelta(_ context.Context, branchID, productID id.ID, delta types.Quantity, movementAt time.Time) (entity.StockBalance, error) {
	key := [2]id.ID{branchID, productID}
	b, ok := f.balances[key]
	if !ok {
		b = &entity.StockBalance{BranchID: branchID, ProductID: productID}
		f.balances[key] = b
	}
	b.Quantity += delta
	b.LastMovementAt = movementAt
	b.UpdatedAt = time.Now().UTC()
	return *b, nil
}

func (f *fakeRepo) SetMinStock(_ context.Context, branchID, productID id.ID, minStock types.Quantity) error {
	key := [2]id.ID{branchID, productID}
	b, ok := f.balances[key]
	if !ok {
		b = &entity.StockBalance{BranchID: branchID, ProductID: productID}
		f.balances[key] = b
	}
	b.MinStock = minStock
	return nil
}

func (f *fakeRepo) GetBalancesByBranch(_ context.Context, branchID id.ID, filter BalanceFilter) ([]entity.StockBalance, error) {
	var out []entity.StockBalance
	for _, b := range f.balances {
		if b.BranchID != branchID {
			continue
		}
		if filter.ExcludeZero && b.Quantity.IsZero() {
			continue
		}
		if filter.LowOnly && !b.IsLow() {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeRepo) GetBalancesByProduct(_ context.Context, productID id.ID) ([]entity.StockBalance, error) {
	var out []entity.StockBalance
	for _, b := range f.balances {
		if b.ProductID == productID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetLowStock(_ context.Context, branchID *id.ID) ([]entity.StockBalance, error) {
	var out []entity.StockBalance
	for _, b := range f.balances {
		if branchID != nil && b.BranchID != *branchID {
			continue
		}
		if b.IsLow() {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateMovements(_ context.Context, movements []entity.StockMovement) error {
	f.movements = append(f.movements, movements...)
	return nil
}

func (f *fakeRepo) GetMovementsByRecorder(_ context.Context, recorderID id.ID) ([]entity.StockMovement, error) {
	var out []entity.StockMovement
	for _, m := range f.movements {
		if m.RecorderID == recorderID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetMovementHistory(_ context.Context, productID id.ID, _ MovementFilter) ([]entity.StockMovement, error) {
	var out []entity.StockMovement
	for _, m := range f.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetTurnover(_ context.Context, filter TurnoverFilter) (Turnover, error) {
	var t Turnover
	for _, m := range f.movements {
		if filter.BranchID != nil && m.BranchID != *filter.BranchID {
			continue
		}
		if filter.ProductID != nil && m.ProductID != *filter.ProductID {
			continue
		}
		switch {
		case m.Period.Before(filter.FromDate):
			t.OpeningBalance += m.SignedQuantity()
		case !m.Period.After(filter.ToDate):
			if m.RecordType == entity.RecordTypeReceipt {
				t.Receipt += m.Quantity
				t.ReceiptAmount = t.ReceiptAmount.Add(m.Amount)
			} else {
				t.Expense += m.Quantity
				t.ExpenseAmount = t.ExpenseAmount.Add(m.Amount)
			}
		}
	}
	t.ClosingBalance = t.OpeningBalance + t.Receipt - t.Expense
	return t, nil
}

func (f *fakeRepo) GetStockValuation(_ context.Context, branchID id.ID) ([]ValuationRow, error) {
	byProduct := make(map[id.ID]*ValuationRow)
	for _, lot := range f.lots {
		if lot.BranchID != branchID || !lot.RemainingQuantity.IsPositive() {
			continue
		}
		row, ok := byProduct[lot.ProductID]
		if !ok {
			row = &ValuationRow{ProductID: lot.ProductID, Value: types.Zero()}
			byProduct[lot.ProductID] = row
		}
		row.Quantity += lot.RemainingQuantity
		row.Value = row.Value.Add(lot.RemainingValue())
	}
	var out []ValuationRow
	for _, row := range byProduct {
		out = append(out, *row)
	}
	return out, nil
}

// noopTx runs the function directly; rollback semantics are not
// simulated, tests assert on state instead.
type noopTx struct{}

func (noopTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	return NewService(repo, noopTx{}), repo
}

func testCtx() context.Context {
	return security.WithScope(context.Background(), security.SystemScope())
}

func TestReceiveThenWithdraw(t *testing.T) {
	svc, repo := newTestService()
	ctx := testCtx()

	branchID := id.New()
	productID := id.New()
	docID := id.New()
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.Receive(ctx, Receipt{
		BranchID: branchID, ProductID: productID,
		Quantity: types.NewQuantityFromInt(5), UnitCost: types.MustMoney("10"),
		RefDocType: entity.LotRefPurchase, RefDocID: docID,
		LotDate: day, RecorderType: "Purchase", Period: day,
	})
	require.NoError(t, err)

	_, err = svc.Receive(ctx, Receipt{
		BranchID: branchID, ProductID: productID,
		Quantity: types.NewQuantityFromInt(5), UnitCost: types.MustMoney("20"),
		RefDocType: entity.LotRefPurchase, RefDocID: docID,
		LotDate: day.Add(time.Hour), RecorderType: "Purchase", Period: day,
	})
	require.NoError(t, err)

	balance, err := svc.GetBalance(ctx, branchID, productID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(10), balance.Quantity)

	plan, err := svc.Withdraw(ctx, Withdrawal{
		BranchID: branchID, ProductID: productID,
		Quantity:   types.NewQuantityFromInt(7),
		RecorderID: id.New(), RecorderType: "Sale", Period: day,
	})
	require.NoError(t, err)
	assert.True(t, plan.TotalCost.Equal(types.MustMoney("90")))

	balance, err = svc.GetBalance(ctx, branchID, productID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(3), balance.Quantity)

	// Oldest lot fully consumed, 3 left on the newer one.
	lots, err := repo.GetAvailableLots(ctx, branchID, productID)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, types.NewQuantityFromInt(3), lots[0].RemainingQuantity)
	assert.True(t, lots[0].UnitCost.Equal(types.MustMoney("20")))

	// Journal: 2 receipts + 1 expense.
	movements, err := svc.GetMovementHistory(ctx, productID, MovementFilter{})
	require.NoError(t, err)
	assert.Len(t, movements, 3)
}

func TestWithdraw_InsufficientLeavesStateUntouched(t *testing.T) {
	svc, repo := newTestService()
	ctx := testCtx()

	branchID := id.New()
	productID := id.New()
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.Receive(ctx, Receipt{
		BranchID: branchID, ProductID: productID,
		Quantity: types.NewQuantityFromInt(4), UnitCost: types.MustMoney("10"),
		RefDocType: entity.LotRefPurchase, RefDocID: id.New(),
		RecorderType: "Purchase", Period: day,
	})
	require.NoError(t, err)

	_, err = svc.Withdraw(ctx, Withdrawal{
		BranchID: branchID, ProductID: productID,
		Quantity:   types.NewQuantityFromInt(5),
		RecorderID: id.New(), RecorderType: "Sale", Period: day,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	balance, err := svc.GetBalance(ctx, branchID, productID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(4), balance.Quantity)

	lots, err := repo.GetAvailableLots(ctx, branchID, productID)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, types.NewQuantityFromInt(4), lots[0].RemainingQuantity)
}

func TestAdjust_Modes(t *testing.T) {
	svc, _ := newTestService()
	ctx := testCtx()

	branchID := id.New()
	productID := id.New()

	adjust := func(mode AdjustMode, qty int64) (entity.StockBalance, error) {
		return svc.Adjust(ctx, Adjustment{
			BranchID: branchID, ProductID: productID,
			Mode: mode, Quantity: types.NewQuantityFromInt(qty),
			RecorderID: id.New(), RecorderType: RecorderTypeAdjust,
			Period: time.Now().UTC(),
		})
	}

	balance, err := adjust(AdjustAdd, 5)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(5), balance.Quantity)

	balance, err = adjust(AdjustSubtract, 2)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(3), balance.Quantity)

	balance, err = adjust(AdjustSet, 10)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(10), balance.Quantity)

	_, err = adjust(AdjustSubtract, 11)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNegativeStock))

	_, err = adjust("unknown", 1)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestAdjust_SetToCurrentIsNoOp(t *testing.T) {
	svc, repo := newTestService()
	ctx := testCtx()

	branchID := id.New()
	productID := id.New()

	_, err := svc.Adjust(ctx, Adjustment{
		BranchID: branchID, ProductID: productID,
		Mode: AdjustAdd, Quantity: types.NewQuantityFromInt(3),
		RecorderID: id.New(), RecorderType: RecorderTypeAdjust,
		Period: time.Now().UTC(),
	})
	require.NoError(t, err)
	journalLen := len(repo.movements)

	balance, err := svc.Adjust(ctx, Adjustment{
		BranchID: branchID, ProductID: productID,
		Mode: AdjustSet, Quantity: types.NewQuantityFromInt(3),
		RecorderID: id.New(), RecorderType: RecorderTypeAdjust,
		Period: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(3), balance.Quantity)
	assert.Len(t, repo.movements, journalLen, "no-op set must not journal")
}

func TestManualAdjust_RequiresBranchGrant(t *testing.T) {
	svc, _ := newTestService()

	scope := &security.Scope{UserID: "u1", Role: security.RoleManager}
	ctx := security.WithScope(context.Background(), scope)

	_, err := svc.ManualAdjust(ctx, id.New(), id.New(), AdjustAdd, types.NewQuantityFromInt(1))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))
}

func TestCheckAvailability(t *testing.T) {
	svc, _ := newTestService()
	ctx := testCtx()

	branchID := id.New()
	productID := id.New()

	_, err := svc.Receive(ctx, Receipt{
		BranchID: branchID, ProductID: productID,
		Quantity: types.NewQuantityFromInt(5), UnitCost: types.MustMoney("10"),
		RefDocType: entity.LotRefPurchase, RefDocID: id.New(),
		RecorderType: "Purchase", Period: time.Now().UTC(),
	})
	require.NoError(t, err)

	require.NoError(t, svc.CheckAvailability(ctx, branchID, productID, types.NewQuantityFromInt(5)))

	err = svc.CheckAvailability(ctx, branchID, productID, types.NewQuantityFromInt(6))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
}

func TestGetProductAvailability_SumsBranches(t *testing.T) {
	svc, _ := newTestService()
	ctx := testCtx()

	productID := id.New()
	for _, qty := range []int64{2, 3} {
		_, err := svc.Receive(ctx, Receipt{
			BranchID: id.New(), ProductID: productID,
			Quantity: types.NewQuantityFromInt(qty), UnitCost: types.MustMoney("10"),
			RefDocType: entity.LotRefPurchase, RefDocID: id.New(),
			RecorderType: "Purchase", Period: time.Now().UTC(),
		})
		require.NoError(t, err)
	}

	total, err := svc.GetProductAvailability(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(5), total)
}

func TestGetStockValuation_SumsRemainingTimesCost(t *testing.T) {
	svc, _ := newTestService()
	ctx := testCtx()

	branchID := id.New()
	productID := id.New()

	for _, r := range []struct {
		qty  int64
		cost string
	}{{5, "10"}, {5, "20"}} {
		_, err := svc.Receive(ctx, Receipt{
			BranchID: branchID, ProductID: productID,
			Quantity: types.NewQuantityFromInt(r.qty), UnitCost: types.MustMoney(r.cost),
			RefDocType: entity.LotRefPurchase, RefDocID: id.New(),
			RecorderType: "Purchase", Period: time.Now().UTC(),
		})
		require.NoError(t, err)
	}

	_, err := svc.Withdraw(ctx, Withdrawal{
		BranchID: branchID, ProductID: productID,
		Quantity:     types.NewQuantityFromInt(7),
		RecorderID:   id.New(),
		RecorderType: "Sale",
		Period:       time.Now().UTC(),
	})
	require.NoError(t, err)

	rows, err := svc.GetStockValuation(ctx, branchID)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// 3 units remain on the second lot at cost 20.
	assert.Equal(t, types.NewQuantityFromInt(3), rows[0].Quantity)
	assert.True(t, rows[0].Value.Equal(types.MustMoney("60")), "value = %s", rows[0].Value)
}
