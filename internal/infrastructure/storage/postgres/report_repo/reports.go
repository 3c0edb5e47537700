// Package report_repo provides PostgreSQL report queries.
package report_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"chalin/internal/domain/documents/sale"
	"chalin/internal/domain/reports"
	"chalin/internal/infrastructure/storage/postgres"
)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txManager *postgres.TxManager
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{txManager: txManager}
}

// Compile-time interface check.
var _ reports.Repository = (*ReportRepo)(nil)

// GetSalesSummary aggregates completed sales per branch for a period.
func (r *ReportRepo) GetSalesSummary(ctx context.Context, filter reports.SalesSummaryFilter) ([]reports.SalesSummaryRow, error) {
	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select(
			"branch_id",
			"COUNT(*) AS sales_count",
			"COALESCE(SUM(total_amount), 0) AS total_amount",
			"COALESCE(SUM(total_cost), 0) AS total_cost",
		).
		From("doc_sale").
		Where(squirrel.Eq{"status": sale.StatusCompleted}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Where(squirrel.GtOrEq{"date": filter.FromDate}).
		Where(squirrel.LtOrEq{"date": filter.ToDate}).
		GroupBy("branch_id").
		OrderBy("branch_id")

	if len(filter.BranchIDs) > 0 {
		q = q.Where(squirrel.Eq{"branch_id": filter.BranchIDs})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []reports.SalesSummaryRow
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select sales summary: %w", err)
	}

	return rows, nil
}
