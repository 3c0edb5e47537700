package dto

import (
	"chalin/internal/core/types"
)

// AdjustStockRequest for manual stock corrections.
// Mode: "add", "subtract" or "set".
type AdjustStockRequest struct {
	BranchID  string         `json:"branchId" binding:"required"`
	ProductID string         `json:"productId" binding:"required"`
	Mode      string         `json:"mode" binding:"required"`
	Quantity  types.Quantity `json:"quantity"`
}

// SetMinStockRequest sets the reorder threshold for branch+product.
type SetMinStockRequest struct {
	BranchID  string         `json:"branchId" binding:"required"`
	ProductID string         `json:"productId" binding:"required"`
	MinStock  types.Quantity `json:"minStock"`
}

// AvailabilityResponse is the network-wide quantity of a product.
type AvailabilityResponse struct {
	ProductID string         `json:"productId"`
	Quantity  types.Quantity `json:"quantity"`
}
