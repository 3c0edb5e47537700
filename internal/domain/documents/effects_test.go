// Package documents holds cross-document effect tests: purchase
// receive, sale consumption, transfer at carried cost and quotation
// conversion, all running against in-memory stores.
package documents

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chalin/internal/core/apperror"
	"chalin/internal/core/entity"
	"chalin/internal/core/id"
	"chalin/internal/core/security"
	"chalin/internal/core/tx"
	"chalin/internal/core/types"
	"chalin/internal/domain"
	"chalin/internal/domain/catalogs/branch"
	"chalin/internal/domain/documents/purchase"
	"chalin/internal/domain/documents/quotation"
	"chalin/internal/domain/documents/sale"
	"chalin/internal/domain/documents/transfer"
	"chalin/internal/domain/registers/stock"
	"chalin/pkg/numerator"
)

// --- in-memory infrastructure ---

type memTx struct{}

func (memTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var _ tx.Manager = memTx{}

// docStore is a generic in-memory document repository.
type docStore[T interface{ GetID() id.ID }, L any] struct {
	docs    map[id.ID]T
	lines   map[id.ID][]L
	numbers []string
	number  func(T) string
}

func newDocStore[T interface{ GetID() id.ID }, L any](number func(T) string) *docStore[T, L] {
	return &docStore[T, L]{
		docs:   make(map[id.ID]T),
		lines:  make(map[id.ID][]L),
		number: number,
	}
}

func (s *docStore[T, L]) Create(_ context.Context, doc T) error {
	s.docs[doc.GetID()] = doc
	if n := s.number(doc); n != "" {
		s.numbers = append(s.numbers, n)
	}
	return nil
}

func (s *docStore[T, L]) Update(_ context.Context, doc T) error {
	s.docs[doc.GetID()] = doc
	return nil
}

func (s *docStore[T, L]) GetByID(_ context.Context, docID id.ID) (T, error) {
	doc, ok := s.docs[docID]
	if !ok {
		var zero T
		return zero, apperror.NewNotFound("document", docID.String())
	}
	return doc, nil
}

func (s *docStore[T, L]) GetForUpdate(ctx context.Context, docID id.ID) (T, error) {
	return s.GetByID(ctx, docID)
}

func (s *docStore[T, L]) SaveLines(_ context.Context, docID id.ID, lines []L) error {
	s.lines[docID] = append([]L(nil), lines...)
	return nil
}

func (s *docStore[T, L]) GetLines(_ context.Context, docID id.ID) ([]L, error) {
	return append([]L(nil), s.lines[docID]...), nil
}

func (s *docStore[T, L]) List(_ context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{Limit: filter.Limit, Offset: filter.Offset}
	for _, doc := range s.docs {
		result.Items = append(result.Items, doc)
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
}

func (s *docStore[T, L]) MaxNumber(_ context.Context, prefix string) (string, error) {
	max := ""
	for _, n := range s.numbers {
		if strings.HasPrefix(n, prefix) && n > max {
			max = n
		}
	}
	return max, nil
}

// branchStore is an in-memory branch.Repository.
type branchStore struct {
	byID map[id.ID]*branch.Branch
}

func newBranchStore() *branchStore {
	return &branchStore{byID: make(map[id.ID]*branch.Branch)}
}

func (s *branchStore) Create(_ context.Context, b *branch.Branch) error {
	s.byID[b.ID] = b
	return nil
}

func (s *branchStore) GetByID(_ context.Context, branchID id.ID) (*branch.Branch, error) {
	b, ok := s.byID[branchID]
	if !ok {
		return nil, apperror.NewNotFound("branch", branchID.String())
	}
	return b, nil
}

func (s *branchStore) GetByCode(_ context.Context, code string) (*branch.Branch, error) {
	for _, b := range s.byID {
		if b.Code == code {
			return b, nil
		}
	}
	return nil, apperror.NewNotFound("branch", code)
}

func (s *branchStore) Update(_ context.Context, b *branch.Branch) error {
	s.byID[b.ID] = b
	return nil
}

func (s *branchStore) SetDeletionMark(_ context.Context, branchID id.ID, marked bool) error {
	b, ok := s.byID[branchID]
	if !ok {
		return apperror.NewNotFound("branch", branchID.String())
	}
	b.DeletionMark = marked
	return nil
}

func (s *branchStore) List(_ context.Context, filter domain.ListFilter) (domain.ListResult[*branch.Branch], error) {
	result := domain.ListResult[*branch.Branch]{Limit: filter.Limit}
	for _, b := range s.byID {
		result.Items = append(result.Items, b)
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
}

func (s *branchStore) Exists(_ context.Context, branchID id.ID) (bool, error) {
	_, ok := s.byID[branchID]
	return ok, nil
}

func (s *branchStore) ExistsByCode(_ context.Context, code string) (bool, error) {
	for _, b := range s.byID {
		if b.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *branchStore) ListActive(_ context.Context) ([]*branch.Branch, error) {
	var out []*branch.Branch
	for _, b := range s.byID {
		if b.CanHoldStock() {
			out = append(out, b)
		}
	}
	return out, nil
}

var _ branch.Repository = (*branchStore)(nil)

// stockStore is an in-memory stock.Repository.
type stockStore struct {
	lots      map[id.ID]*entity.StockLot
	balances  map[[2]id.ID]*entity.StockBalance
	movements []entity.StockMovement
}

func newStockStore() *stockStore {
	return &stockStore{
		lots:     make(map[id.ID]*entity.StockLot),
		balances: make(map[[2]id.ID]*entity.StockBalance),
	}
}

func (s *stockStore) CreateLot(_ context.Context, lot entity.StockLot) error {
	s.lots[lot.ID] = &lot
	return nil
}

func (s *stockStore) GetAvailableLots(_ context.Context, branchID, productID id.ID) ([]entity.StockLot, error) {
	var out []entity.StockLot
	for _, lot := range s.lots {
		if lot.BranchID == branchID && lot.ProductID == productID && lot.RemainingQuantity.IsPositive() {
			out = append(out, *lot)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LotDate.Equal(out[j].LotDate) {
			return out[i].LotDate.Before(out[j].LotDate)
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out, nil
}

func (s *stockStore) GetAvailableLotsForUpdate(ctx context.Context, branchID, productID id.ID) ([]entity.StockLot, error) {
	return s.GetAvailableLots(ctx, branchID, productID)
}

func (s *stockStore) DecrementLot(_ context.Context, lotID id.ID, amount types.Quantity) error {
	lot, ok := s.lots[lotID]
	if !ok {
		return apperror.NewNotFound("stock lot", lotID.String())
	}
	if lot.RemainingQuantity < amount {
		return apperror.NewInsufficientLotQuantity(lotID.String(), amount.Float64(), lot.RemainingQuantity.Float64())
	}
	lot.RemainingQuantity -= amount
	return nil
}

func (s *stockStore) GetLotsByRef(_ context.Context, refType entity.LotRefType, refID id.ID) ([]entity.StockLot, error) {
	var out []entity.StockLot
	for _, lot := range s.lots {
		if lot.RefDocType == refType && lot.RefDocID == refID {
			out = append(out, *lot)
		}
	}
	return out, nil
}

func (s *stockStore) GetBalance(_ context.Context, branchID, productID id.ID) (entity.StockBalance, error) {
	if b, ok := s.balances[[2]id.ID{branchID, productID}]; ok {
		return *b, nil
	}
	return entity.StockBalance{BranchID: branchID, ProductID: productID}, nil
}

func (s *stockStore) GetBalanceForUpdate(ctx context.Context, branchID, productID id.ID) (entity.StockBalance, error) {
	return s.GetBalance(ctx, branchID, productID)
}

func (s *stockStore) ApplyDelta(_ context.Context, branchID, productID id.ID, delta types.Quantity, movementAt time.Time) (entity.StockBalance, error) {
	key := [2]id.ID{branchID, productID}
	b, ok := s.balances[key]
	if !ok {
		b = &entity.StockBalance{BranchID: branchID, ProductID: productID}
		s.balances[key] = b
	}
	b.Quantity += delta
	b.LastMovementAt = movementAt
	return *b, nil
}

func (s *stockStore) SetMinStock(_ context.Context, branchID, productID id.ID, minStock types.Quantity) error {
	key := [2]id.ID{branchID, productID}
	b, ok := s.balances[key]
	if !ok {
		b = &entity.StockBalance{BranchID: branchID, ProductID: productID}
		s.balances[key] = b
	}
	b.MinStock = minStock
	return nil
}

func (s *stockStore) GetBalancesByBranch(_ context.Context, branchID id.ID, filter stock.BalanceFilter) ([]entity.StockBalance, error) {
	var out []entity.StockBalance
	for _, b := range s.balances {
		if b.BranchID != branchID {
			continue
		}
		if filter.ExcludeZero && b.Quantity.IsZero() {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (s *stockStore) GetBalancesByProduct(_ context.Context, productID id.ID) ([]entity.StockBalance, error) {
	var out []entity.StockBalance
	for _, b := range s.balances {
		if b.ProductID == productID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *stockStore) GetLowStock(_ context.Context, branchID *id.ID) ([]entity.StockBalance, error) {
	var out []entity.StockBalance
	for _, b := range s.balances {
		if branchID != nil && b.BranchID != *branchID {
			continue
		}
		if b.IsLow() {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *stockStore) CreateMovements(_ context.Context, movements []entity.StockMovement) error {
	s.movements = append(s.movements, movements...)
	return nil
}

func (s *stockStore) GetMovementsByRecorder(_ context.Context, recorderID id.ID) ([]entity.StockMovement, error) {
	var out []entity.StockMovement
	for _, m := range s.movements {
		if m.RecorderID == recorderID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *stockStore) GetMovementHistory(_ context.Context, productID id.ID, _ stock.MovementFilter) ([]entity.StockMovement, error) {
	var out []entity.StockMovement
	for _, m := range s.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *stockStore) GetTurnover(_ context.Context, _ stock.TurnoverFilter) (stock.Turnover, error) {
	return stock.Turnover{}, nil
}

func (s *stockStore) GetStockValuation(_ context.Context, _ id.ID) ([]stock.ValuationRow, error) {
	return nil, nil
}

var _ stock.Repository = (*stockStore)(nil)

// --- test environment ---

type env struct {
	ctx context.Context

	stockRepo *stockStore
	stockSvc  *stock.Service
	branchSvc *branch.Service

	main *branch.Branch
	br01 *branch.Branch

	productID id.ID
}

func newEnv(t *testing.T) *env {
	t.Helper()

	ctx := security.WithScope(context.Background(), security.SystemScope())

	branches := newBranchStore()
	main := branch.NewBranch("MAIN", "Main store", branch.TypeMain)
	br01 := branch.NewBranch("BR01", "Branch 01", branch.TypeBranch)
	require.NoError(t, branches.Create(ctx, main))
	require.NoError(t, branches.Create(ctx, br01))

	stockRepo := newStockStore()

	return &env{
		ctx:       ctx,
		stockRepo: stockRepo,
		stockSvc:  stock.NewService(stockRepo, memTx{}),
		branchSvc: branch.NewService(branches, memTx{}),
		main:      main,
		br01:      br01,
		productID: id.New(),
	}
}

// seedStock puts quantity units at unitCost into the branch.
func (e *env) seedStock(t *testing.T, branchID id.ID, quantity int64, unitCost string) {
	t.Helper()
	_, err := e.stockSvc.Receive(e.ctx, stock.Receipt{
		BranchID:     branchID,
		ProductID:    e.productID,
		Quantity:     types.NewQuantityFromInt(quantity),
		UnitCost:     types.MustMoney(unitCost),
		RefDocType:   entity.LotRefPurchase,
		RefDocID:     id.New(),
		RecorderType: purchase.DocumentType,
		Period:       time.Now().UTC(),
	})
	require.NoError(t, err)
}

func (e *env) balance(t *testing.T, branchID id.ID) types.Quantity {
	t.Helper()
	b, err := e.stockSvc.GetBalance(e.ctx, branchID, e.productID)
	require.NoError(t, err)
	return b.Quantity
}

// --- purchases ---

func TestPurchase_ReceiveCreatesLots(t *testing.T) {
	e := newEnv(t)

	repo := newDocStore[*purchase.Purchase, purchase.PurchaseLine](
		func(d *purchase.Purchase) string { return d.Number })
	svc := purchase.NewService(repo, e.stockSvc, e.branchSvc, numerator.New(repo), memTx{})

	doc := purchase.NewPurchase(e.main.ID, "Acme Supply")
	doc.AddLine(e.productID, types.NewQuantityFromInt(5), types.MustMoney("10"))
	require.NoError(t, svc.Create(e.ctx, doc))

	wantNumber := "PO-MAIN-" + doc.Date.Format("200601") + "-001"
	assert.Equal(t, wantNumber, doc.Number)
	assert.Equal(t, purchase.StatusPending, doc.Status)
	assert.Equal(t, types.NewQuantityFromInt(0), e.balance(t, e.main.ID))

	received, err := svc.Receive(e.ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, purchase.StatusReceived, received.Status)
	require.NotNil(t, received.ReceivedAt)

	assert.Equal(t, types.NewQuantityFromInt(5), e.balance(t, e.main.ID))

	lots, err := e.stockRepo.GetLotsByRef(e.ctx, entity.LotRefPurchase, doc.ID)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.True(t, lots[0].UnitCost.Equal(types.MustMoney("10")))
	assert.Equal(t, types.NewQuantityFromInt(5), lots[0].RemainingQuantity)

	// Receiving twice must fail; the first transition consumed PENDING.
	_, err = svc.Receive(e.ctx, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidStateTransition))
}

func TestPurchase_NumbersIncrementPerBranchMonth(t *testing.T) {
	e := newEnv(t)

	repo := newDocStore[*purchase.Purchase, purchase.PurchaseLine](
		func(d *purchase.Purchase) string { return d.Number })
	svc := purchase.NewService(repo, e.stockSvc, e.branchSvc, numerator.New(repo), memTx{})

	first := purchase.NewPurchase(e.main.ID, "Acme Supply")
	first.AddLine(e.productID, types.NewQuantityFromInt(1), types.MustMoney("1"))
	require.NoError(t, svc.Create(e.ctx, first))

	second := purchase.NewPurchase(e.main.ID, "Acme Supply")
	second.AddLine(e.productID, types.NewQuantityFromInt(1), types.MustMoney("1"))
	require.NoError(t, svc.Create(e.ctx, second))

	period := first.Date.Format("200601")
	assert.Equal(t, "PO-MAIN-"+period+"-001", first.Number)
	assert.Equal(t, "PO-MAIN-"+period+"-002", second.Number)
}

func TestPurchase_CancelOnlyFromPending(t *testing.T) {
	e := newEnv(t)

	repo := newDocStore[*purchase.Purchase, purchase.PurchaseLine](
		func(d *purchase.Purchase) string { return d.Number })
	svc := purchase.NewService(repo, e.stockSvc, e.branchSvc, numerator.New(repo), memTx{})

	doc := purchase.NewPurchase(e.main.ID, "Acme Supply")
	doc.AddLine(e.productID, types.NewQuantityFromInt(2), types.MustMoney("10"))
	require.NoError(t, svc.Create(e.ctx, doc))

	cancelled, err := svc.Cancel(e.ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, purchase.StatusCancelled, cancelled.Status)

	// No stock effect for a cancelled purchase.
	assert.Equal(t, types.NewQuantityFromInt(0), e.balance(t, e.main.ID))

	_, err = svc.Receive(e.ctx, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidStateTransition))
}

// --- sales ---

func newSaleService(e *env) (*sale.Service, *docStore[*sale.Sale, sale.SaleLine]) {
	repo := newDocStore[*sale.Sale, sale.SaleLine](
		func(d *sale.Sale) string { return d.Number })
	return sale.NewService(repo, e.stockSvc, e.branchSvc, numerator.New(repo), memTx{}), repo
}

func TestSale_ConsumesFIFOAndRecordsCost(t *testing.T) {
	e := newEnv(t)
	e.seedStock(t, e.main.ID, 5, "10")
	e.seedStock(t, e.main.ID, 5, "20")

	svc, _ := newSaleService(e)

	doc := sale.NewSale(e.main.ID, "Walk-in")
	doc.AddLine(e.productID, types.NewQuantityFromInt(7), types.MustMoney("30"))
	require.NoError(t, svc.Create(e.ctx, doc))

	assert.Equal(t, sale.StatusCompleted, doc.Status)
	assert.Equal(t, "INV-MAIN-"+doc.Date.Format("200601")+"-001", doc.Number)

	// 5 at 10 then 2 at 20: cost 90, weighted average 12.8571.
	require.Len(t, doc.Lines, 1)
	assert.True(t, doc.Lines[0].TotalCost.Equal(types.MustMoney("90")),
		"line cost = %s", doc.Lines[0].TotalCost)
	assert.True(t, doc.Lines[0].UnitCost.Equal(types.MustMoney("12.8571")),
		"line unit cost = %s", doc.Lines[0].UnitCost)

	assert.True(t, doc.TotalAmount.Equal(types.MustMoney("210")))
	assert.True(t, doc.TotalCost.Equal(types.MustMoney("90")))

	assert.Equal(t, types.NewQuantityFromInt(3), e.balance(t, e.main.ID))
}

func TestSale_InsufficientStockFailsWholeSale(t *testing.T) {
	e := newEnv(t)
	e.seedStock(t, e.main.ID, 3, "10")

	svc, repo := newSaleService(e)

	doc := sale.NewSale(e.main.ID, "Walk-in")
	doc.AddLine(e.productID, types.NewQuantityFromInt(4), types.MustMoney("30"))
	err := svc.Create(e.ctx, doc)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	// Planning failed before any mutation: stock intact, nothing stored.
	assert.Equal(t, types.NewQuantityFromInt(3), e.balance(t, e.main.ID))
	assert.Empty(t, repo.docs)
}

func TestSale_CancelKeepsStockConsumed(t *testing.T) {
	e := newEnv(t)
	e.seedStock(t, e.main.ID, 5, "10")

	svc, _ := newSaleService(e)

	doc := sale.NewSale(e.main.ID, "Walk-in")
	doc.AddLine(e.productID, types.NewQuantityFromInt(2), types.MustMoney("15"))
	require.NoError(t, svc.Create(e.ctx, doc))
	require.Equal(t, types.NewQuantityFromInt(3), e.balance(t, e.main.ID))

	cancelled, err := svc.Cancel(e.ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, sale.StatusCancelled, cancelled.Status)

	// Cancellation is bookkeeping only; consumed lots stay consumed.
	assert.Equal(t, types.NewQuantityFromInt(3), e.balance(t, e.main.ID))
}

// --- transfers ---

func newTransferService(e *env) *transfer.Service {
	repo := newDocStore[*transfer.Transfer, transfer.TransferLine](
		func(d *transfer.Transfer) string { return d.Number })
	return transfer.NewService(repo, e.stockSvc, e.branchSvc, numerator.New(repo), memTx{})
}

func TestTransfer_MovesStockAtCarriedCost(t *testing.T) {
	e := newEnv(t)
	e.seedStock(t, e.main.ID, 10, "7")

	svc := newTransferService(e)

	doc := transfer.NewTransfer(e.main.ID, e.br01.ID)
	doc.AddLine(e.productID, types.NewQuantityFromInt(4))
	require.NoError(t, svc.Create(e.ctx, doc))
	assert.Equal(t, "TR-MAIN-BR01-"+doc.Date.Format("200601")+"-001", doc.Number)

	approved, err := svc.Approve(e.ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, transfer.StatusInTransit, approved.Status)
	require.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, types.NewQuantityFromInt(6), e.balance(t, e.main.ID))
	assert.Equal(t, types.NewQuantityFromInt(0), e.balance(t, e.br01.ID))

	received, err := svc.Receive(e.ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, transfer.StatusReceived, received.Status)

	// The destination lot carries the source cost basis.
	require.Len(t, received.Lines, 1)
	assert.True(t, received.Lines[0].UnitCost.Equal(types.MustMoney("7")),
		"carried cost = %s", received.Lines[0].UnitCost)

	assert.Equal(t, types.NewQuantityFromInt(4), e.balance(t, e.br01.ID))

	lots, err := e.stockRepo.GetLotsByRef(e.ctx, entity.LotRefTransfer, doc.ID)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, e.br01.ID, lots[0].BranchID)
	assert.True(t, lots[0].UnitCost.Equal(types.MustMoney("7")))
}

func TestTransfer_ApproveRequiresCoverage(t *testing.T) {
	e := newEnv(t)
	e.seedStock(t, e.main.ID, 2, "7")

	svc := newTransferService(e)

	doc := transfer.NewTransfer(e.main.ID, e.br01.ID)
	doc.AddLine(e.productID, types.NewQuantityFromInt(3))
	require.NoError(t, svc.Create(e.ctx, doc))

	_, err := svc.Approve(e.ctx, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	// The availability check runs before any lot is touched.
	assert.Equal(t, types.NewQuantityFromInt(2), e.balance(t, e.main.ID))
}

func TestTransfer_ReceiveOnlyFromInTransit(t *testing.T) {
	e := newEnv(t)
	e.seedStock(t, e.main.ID, 5, "7")

	svc := newTransferService(e)

	doc := transfer.NewTransfer(e.main.ID, e.br01.ID)
	doc.AddLine(e.productID, types.NewQuantityFromInt(2))
	require.NoError(t, svc.Create(e.ctx, doc))

	_, err := svc.Receive(e.ctx, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidStateTransition))
}

// --- quotations ---

func TestQuotation_ConvertCreatesCompletedSale(t *testing.T) {
	e := newEnv(t)
	e.seedStock(t, e.main.ID, 5, "10")

	saleSvc, _ := newSaleService(e)
	repo := newDocStore[*quotation.Quotation, quotation.QuotationLine](
		func(d *quotation.Quotation) string { return d.Number })
	svc := quotation.NewService(repo, saleSvc, e.branchSvc, numerator.New(repo), memTx{})

	doc := quotation.NewQuotation(e.main.ID, "Big Corp")
	doc.AddLine(e.productID, types.NewQuantityFromInt(3), types.MustMoney("25"))
	require.NoError(t, svc.Create(e.ctx, doc))
	assert.Equal(t, "QT-MAIN-"+doc.Date.Format("200601")+"-001", doc.Number)

	// No stock effect until conversion.
	assert.Equal(t, types.NewQuantityFromInt(5), e.balance(t, e.main.ID))

	created, err := svc.ConvertToSale(e.ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, sale.StatusCompleted, created.Status)
	assert.True(t, created.TotalAmount.Equal(types.MustMoney("75")))
	assert.True(t, created.TotalCost.Equal(types.MustMoney("30")))
	assert.Equal(t, types.NewQuantityFromInt(2), e.balance(t, e.main.ID))

	converted, err := svc.GetByID(e.ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, quotation.StatusAccepted, converted.Status)
	require.NotNil(t, converted.SaleID)
	assert.Equal(t, created.ID, *converted.SaleID)

	// A quotation converts once.
	_, err = svc.ConvertToSale(e.ctx, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidStateTransition))
}

func TestQuotation_ExpiredCannotConvert(t *testing.T) {
	e := newEnv(t)
	e.seedStock(t, e.main.ID, 5, "10")

	saleSvc, _ := newSaleService(e)
	repo := newDocStore[*quotation.Quotation, quotation.QuotationLine](
		func(d *quotation.Quotation) string { return d.Number })
	svc := quotation.NewService(repo, saleSvc, e.branchSvc, numerator.New(repo), memTx{})

	doc := quotation.NewQuotation(e.main.ID, "Big Corp")
	doc.AddLine(e.productID, types.NewQuantityFromInt(1), types.MustMoney("25"))
	expired := time.Now().UTC().Add(-time.Hour)
	doc.ValidUntil = &expired
	require.NoError(t, svc.Create(e.ctx, doc))

	_, err := svc.ConvertToSale(e.ctx, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeBusinessRule))

	// Stock untouched by the failed conversion.
	assert.Equal(t, types.NewQuantityFromInt(5), e.balance(t, e.main.ID))
}

func TestQuotation_CancelOnlyFromPending(t *testing.T) {
	e := newEnv(t)

	saleSvc, _ := newSaleService(e)
	repo := newDocStore[*quotation.Quotation, quotation.QuotationLine](
		func(d *quotation.Quotation) string { return d.Number })
	svc := quotation.NewService(repo, saleSvc, e.branchSvc, numerator.New(repo), memTx{})

	doc := quotation.NewQuotation(e.main.ID, "Big Corp")
	doc.AddLine(e.productID, types.NewQuantityFromInt(1), types.MustMoney("25"))
	require.NoError(t, svc.Create(e.ctx, doc))

	cancelled, err := svc.Cancel(e.ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, quotation.StatusCancelled, cancelled.Status)

	_, err = svc.Cancel(e.ctx, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidStateTransition))
}
