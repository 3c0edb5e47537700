package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chalin/internal/core/apperror"
	"chalin/internal/core/id"
	"chalin/internal/core/types"
	"chalin/internal/domain"
	"chalin/internal/domain/catalogs/branch"
	"chalin/internal/domain/registers/stock"
)

type noopTx struct{}

func (noopTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// branchDir is an in-memory branch.Repository.
type branchDir struct {
	byID map[id.ID]*branch.Branch
}

func newBranchDir(branches ...*branch.Branch) *branchDir {
	d := &branchDir{byID: make(map[id.ID]*branch.Branch)}
	for _, b := range branches {
		d.byID[b.ID] = b
	}
	return d
}

func (d *branchDir) Create(_ context.Context, b *branch.Branch) error {
	d.byID[b.ID] = b
	return nil
}

func (d *branchDir) GetByID(_ context.Context, branchID id.ID) (*branch.Branch, error) {
	b, ok := d.byID[branchID]
	if !ok {
		return nil, apperror.NewNotFound("branch", branchID.String())
	}
	return b, nil
}

func (d *branchDir) GetByCode(_ context.Context, code string) (*branch.Branch, error) {
	for _, b := range d.byID {
		if b.Code == code {
			return b, nil
		}
	}
	return nil, apperror.NewNotFound("branch", code)
}

func (d *branchDir) Update(_ context.Context, b *branch.Branch) error {
	d.byID[b.ID] = b
	return nil
}

func (d *branchDir) SetDeletionMark(_ context.Context, branchID id.ID, marked bool) error {
	b, ok := d.byID[branchID]
	if !ok {
		return apperror.NewNotFound("branch", branchID.String())
	}
	b.DeletionMark = marked
	return nil
}

func (d *branchDir) List(_ context.Context, filter domain.ListFilter) (domain.ListResult[*branch.Branch], error) {
	result := domain.ListResult[*branch.Branch]{Limit: filter.Limit}
	for _, b := range d.byID {
		result.Items = append(result.Items, b)
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
}

func (d *branchDir) Exists(_ context.Context, branchID id.ID) (bool, error) {
	_, ok := d.byID[branchID]
	return ok, nil
}

func (d *branchDir) ExistsByCode(_ context.Context, code string) (bool, error) {
	for _, b := range d.byID {
		if b.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (d *branchDir) ListActive(_ context.Context) ([]*branch.Branch, error) {
	var out []*branch.Branch
	for _, b := range d.byID {
		if b.CanHoldStock() {
			out = append(out, b)
		}
	}
	return out, nil
}

var _ branch.Repository = (*branchDir)(nil)

// salesRepo returns canned summary rows and records the filter it saw.
type salesRepo struct {
	rows     []SalesSummaryRow
	called   bool
	lastSeen SalesSummaryFilter
}

func (r *salesRepo) GetSalesSummary(_ context.Context, filter SalesSummaryFilter) ([]SalesSummaryRow, error) {
	r.called = true
	r.lastSeen = filter
	return r.rows, nil
}

func consignmentBranch(code, name, rate string) *branch.Branch {
	b := branch.NewBranch(code, name, branch.TypeConsignment)
	b.CommissionRate = types.MustMoney(rate)
	return b
}

func period() (time.Time, time.Time) {
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

func TestConsignmentSales_CommissionMath(t *testing.T) {
	partner := consignmentBranch("CONS1", "Partner One", "0.15")
	repo := &salesRepo{rows: []SalesSummaryRow{{
		BranchID:    partner.ID,
		SalesCount:  12,
		TotalAmount: types.MustMoney("1000"),
		TotalCost:   types.MustMoney("600"),
	}}}
	svc := NewService(repo, nil, branch.NewService(newBranchDir(partner), noopTx{}), nil)

	from, to := period()
	report, err := svc.ConsignmentSales(context.Background(), SalesSummaryFilter{
		BranchIDs: []id.ID{partner.ID},
		FromDate:  from,
		ToDate:    to,
	})
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)

	row := report.Rows[0]
	assert.Equal(t, "CONS1", row.BranchCode)
	assert.Equal(t, int64(12), row.SalesCount)
	assert.True(t, row.Margin.Equal(types.MustMoney("400")), "margin = %s", row.Margin)
	assert.True(t, row.Commission.Equal(types.MustMoney("150")), "commission = %s", row.Commission)
	assert.True(t, row.Payable.Equal(types.MustMoney("850")), "payable = %s", row.Payable)

	assert.True(t, report.TotalAmount.Equal(types.MustMoney("1000")))
	assert.True(t, report.TotalCommission.Equal(types.MustMoney("150")))
	assert.True(t, report.TotalPayable.Equal(types.MustMoney("850")))
}

func TestConsignmentSales_CommissionRoundedToCostScale(t *testing.T) {
	partner := consignmentBranch("CONS1", "Partner One", "0.1234")
	repo := &salesRepo{rows: []SalesSummaryRow{{
		BranchID:    partner.ID,
		SalesCount:  1,
		TotalAmount: types.MustMoney("999.99"),
		TotalCost:   types.MustMoney("500"),
	}}}
	svc := NewService(repo, nil, branch.NewService(newBranchDir(partner), noopTx{}), nil)

	from, to := period()
	report, err := svc.ConsignmentSales(context.Background(), SalesSummaryFilter{
		BranchIDs: []id.ID{partner.ID},
		FromDate:  from,
		ToDate:    to,
	})
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)

	// 999.99 * 0.1234 = 123.398766, rounded to 4 digits
	assert.True(t, report.Rows[0].Commission.Equal(types.MustMoney("123.3988")),
		"commission = %s", report.Rows[0].Commission)
	assert.True(t, report.Rows[0].Payable.Equal(types.MustMoney("876.5912")),
		"payable = %s", report.Rows[0].Payable)
}

func TestConsignmentSales_RejectsNonConsignmentBranch(t *testing.T) {
	regular := branch.NewBranch("BR01", "Branch One", branch.TypeBranch)
	repo := &salesRepo{}
	svc := NewService(repo, nil, branch.NewService(newBranchDir(regular), noopTx{}), nil)

	from, to := period()
	_, err := svc.ConsignmentSales(context.Background(), SalesSummaryFilter{
		BranchIDs: []id.ID{regular.ID},
		FromDate:  from,
		ToDate:    to,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	assert.False(t, repo.called)
}

func TestConsignmentSales_EmptyFilterExpandsToConsignmentBranches(t *testing.T) {
	main := branch.NewBranch("MAIN", "Main Store", branch.TypeMain)
	partner := consignmentBranch("CONS1", "Partner One", "0.2")
	repo := &salesRepo{rows: []SalesSummaryRow{{
		BranchID:    partner.ID,
		SalesCount:  3,
		TotalAmount: types.MustMoney("500"),
		TotalCost:   types.MustMoney("300"),
	}}}
	svc := NewService(repo, nil, branch.NewService(newBranchDir(main, partner), noopTx{}), nil)

	from, to := period()
	report, err := svc.ConsignmentSales(context.Background(), SalesSummaryFilter{
		FromDate: from,
		ToDate:   to,
	})
	require.NoError(t, err)

	// The main store never reaches the aggregation query.
	require.True(t, repo.called)
	require.Len(t, repo.lastSeen.BranchIDs, 1)
	assert.Equal(t, partner.ID, repo.lastSeen.BranchIDs[0])

	require.Len(t, report.Rows, 1)
	assert.True(t, report.Rows[0].Commission.Equal(types.MustMoney("100")))
}

func TestConsignmentSales_NoConsignmentBranches(t *testing.T) {
	main := branch.NewBranch("MAIN", "Main Store", branch.TypeMain)
	repo := &salesRepo{}
	svc := NewService(repo, nil, branch.NewService(newBranchDir(main), noopTx{}), nil)

	from, to := period()
	report, err := svc.ConsignmentSales(context.Background(), SalesSummaryFilter{
		FromDate: from,
		ToDate:   to,
	})
	require.NoError(t, err)

	assert.Empty(t, report.Rows)
	assert.True(t, report.TotalAmount.IsZero())
	assert.False(t, repo.called)
}

func TestConsignmentSales_RequiresDateRange(t *testing.T) {
	svc := NewService(&salesRepo{}, nil, branch.NewService(newBranchDir(), noopTx{}), nil)

	_, err := svc.ConsignmentSales(context.Background(), SalesSummaryFilter{})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	from, to := period()
	_, err = svc.ConsignmentSales(context.Background(), SalesSummaryFilter{
		FromDate: to,
		ToDate:   from,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestStockTurnover_RequiresDateRange(t *testing.T) {
	svc := NewService(&salesRepo{}, nil, branch.NewService(newBranchDir(), noopTx{}), nil)

	from, to := period()
	_, err := svc.StockTurnover(context.Background(), stock.TurnoverFilter{})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = svc.StockTurnover(context.Background(), stock.TurnoverFilter{FromDate: to, ToDate: from})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestConsignmentStock_RejectsNonConsignmentBranch(t *testing.T) {
	regular := branch.NewBranch("BR01", "Branch One", branch.TypeBranch)
	svc := NewService(&salesRepo{}, nil, branch.NewService(newBranchDir(regular), noopTx{}), nil)

	_, err := svc.ConsignmentStock(context.Background(), regular.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}
