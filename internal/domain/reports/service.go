package reports

import (
	"context"
	"fmt"
	"time"

	"chalin/internal/core/apperror"
	"chalin/internal/core/id"
	"chalin/internal/core/types"
	"chalin/internal/domain/catalogs/branch"
	"chalin/internal/domain/catalogs/product"
	"chalin/internal/domain/registers/stock"
)

// Service provides report generation operations.
type Service struct {
	repo     Repository
	stock    *stock.Service
	branches *branch.Service
	products *product.Service
}

// NewService creates a new reports service.
func NewService(repo Repository, stockSvc *stock.Service, branches *branch.Service, products *product.Service) *Service {
	return &Service{
		repo:     repo,
		stock:    stockSvc,
		branches: branches,
		products: products,
	}
}

// ConsignmentStock values the stock currently held at a consignment branch.
func (s *Service) ConsignmentStock(ctx context.Context, branchID id.ID) (*ConsignmentStockReport, error) {
	br, err := s.branches.GetByID(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if !br.IsConsignment() {
		return nil, apperror.NewValidation("branch is not a consignment branch").
			WithDetail("branch_id", branchID.String()).
			WithDetail("type", string(br.Type))
	}

	valuation, err := s.stock.GetStockValuation(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("get valuation: %w", err)
	}

	report := &ConsignmentStockReport{
		BranchID:   br.ID,
		BranchCode: br.Code,
		BranchName: br.Name,
		AsOf:       time.Now().UTC(),
		TotalValue: types.Zero(),
	}

	for _, row := range valuation {
		out := ConsignmentStockRow{
			ProductID: row.ProductID,
			Quantity:  row.Quantity,
			Value:     row.Value,
		}
		if p, err := s.products.GetByID(ctx, row.ProductID); err == nil {
			out.ProductSKU = p.SKU()
			out.ProductName = p.Name
		}
		report.Rows = append(report.Rows, out)
		report.TotalValue = report.TotalValue.Add(row.Value)
	}

	return report, nil
}

// ConsignmentSales summarizes completed sales at consignment branches
// for the period and computes each branch's commission.
func (s *Service) ConsignmentSales(ctx context.Context, filter SalesSummaryFilter) (*ConsignmentSalesReport, error) {
	if filter.FromDate.IsZero() || filter.ToDate.IsZero() {
		return nil, apperror.NewValidation("fromDate and toDate are required")
	}
	if filter.FromDate.After(filter.ToDate) {
		return nil, apperror.NewValidation("fromDate must be before toDate")
	}

	consignment := make(map[id.ID]*branch.Branch)
	if len(filter.BranchIDs) == 0 {
		all, err := s.branches.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		for _, br := range all {
			if br.IsConsignment() {
				consignment[br.ID] = br
				filter.BranchIDs = append(filter.BranchIDs, br.ID)
			}
		}
	} else {
		for _, branchID := range filter.BranchIDs {
			br, err := s.branches.GetByID(ctx, branchID)
			if err != nil {
				return nil, err
			}
			if !br.IsConsignment() {
				return nil, apperror.NewValidation("branch is not a consignment branch").
					WithDetail("branch_id", branchID.String())
			}
			consignment[br.ID] = br
		}
	}

	report := &ConsignmentSalesReport{
		FromDate:        filter.FromDate,
		ToDate:          filter.ToDate,
		TotalAmount:     types.Zero(),
		TotalCommission: types.Zero(),
		TotalPayable:    types.Zero(),
	}

	if len(filter.BranchIDs) == 0 {
		return report, nil
	}

	summary, err := s.repo.GetSalesSummary(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get sales summary: %w", err)
	}

	for _, row := range summary {
		br, ok := consignment[row.BranchID]
		if !ok {
			continue
		}

		commission := row.TotalAmount.Mul(br.CommissionRate).Round(types.CostScale)
		out := ConsignmentSalesRow{
			BranchID:       br.ID,
			BranchCode:     br.Code,
			BranchName:     br.Name,
			SalesCount:     row.SalesCount,
			TotalAmount:    row.TotalAmount,
			TotalCost:      row.TotalCost,
			Margin:         row.TotalAmount.Sub(row.TotalCost),
			CommissionRate: br.CommissionRate,
			Commission:     commission,
			Payable:        row.TotalAmount.Sub(commission),
		}

		report.Rows = append(report.Rows, out)
		report.TotalAmount = report.TotalAmount.Add(out.TotalAmount)
		report.TotalCommission = report.TotalCommission.Add(out.Commission)
		report.TotalPayable = report.TotalPayable.Add(out.Payable)
	}

	return report, nil
}

// StockTurnover proxies the register turnover report.
func (s *Service) StockTurnover(ctx context.Context, filter stock.TurnoverFilter) (stock.Turnover, error) {
	if filter.FromDate.IsZero() || filter.ToDate.IsZero() {
		return stock.Turnover{}, apperror.NewValidation("fromDate and toDate are required")
	}
	if filter.FromDate.After(filter.ToDate) {
		return stock.Turnover{}, apperror.NewValidation("fromDate must be before toDate")
	}
	return s.stock.GetTurnover(ctx, filter)
}
