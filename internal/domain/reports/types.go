// Package reports provides read-only reporting over the stock register
// and the sales journal. Reports fold existing cost fields; they never
// mutate state and tolerate weaker isolation than document effects.
package reports

import (
	"time"

	"chalin/internal/core/id"
	"chalin/internal/core/types"
)

// --- Consignment Stock Report ---

// ConsignmentStockRow is one product held on consignment at a branch.
type ConsignmentStockRow struct {
	ProductID   id.ID          `json:"productId"`
	ProductSKU  string         `json:"productSku"`
	ProductName string         `json:"productName"`
	Quantity    types.Quantity `json:"quantity"`
	Value       types.Money    `json:"value"`
}

// ConsignmentStockReport values the stock currently held at a
// consignment branch (Σ remaining_quantity × unit_cost over its lots).
type ConsignmentStockReport struct {
	BranchID   id.ID                 `json:"branchId"`
	BranchCode string                `json:"branchCode"`
	BranchName string                `json:"branchName"`
	AsOf       time.Time             `json:"asOf"`
	Rows       []ConsignmentStockRow `json:"rows"`
	TotalValue types.Money           `json:"totalValue"`
}

// --- Consignment Sales Report ---

// SalesSummaryFilter bounds the sales aggregation.
type SalesSummaryFilter struct {
	BranchIDs []id.ID
	FromDate  time.Time
	ToDate    time.Time
}

// SalesSummaryRow is the per-branch aggregation of completed sales.
type SalesSummaryRow struct {
	BranchID    id.ID       `db:"branch_id" json:"branchId"`
	SalesCount  int64       `db:"sales_count" json:"salesCount"`
	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`
	TotalCost   types.Money `db:"total_cost" json:"totalCost"`
}

// ConsignmentSalesRow extends the summary with commission figures.
type ConsignmentSalesRow struct {
	BranchID       id.ID       `json:"branchId"`
	BranchCode     string      `json:"branchCode"`
	BranchName     string      `json:"branchName"`
	SalesCount     int64       `json:"salesCount"`
	TotalAmount    types.Money `json:"totalAmount"`
	TotalCost      types.Money `json:"totalCost"`
	Margin         types.Money `json:"margin"`
	CommissionRate types.Money `json:"commissionRate"`
	Commission     types.Money `json:"commission"`

	// Payable is what the consignment partner owes the network:
	// sales amount minus the partner's commission.
	Payable types.Money `json:"payable"`
}

// ConsignmentSalesReport summarizes consignment sales for a period.
type ConsignmentSalesReport struct {
	FromDate        time.Time             `json:"fromDate"`
	ToDate          time.Time             `json:"toDate"`
	Rows            []ConsignmentSalesRow `json:"rows"`
	TotalAmount     types.Money           `json:"totalAmount"`
	TotalCommission types.Money           `json:"totalCommission"`
	TotalPayable    types.Money           `json:"totalPayable"`
}
