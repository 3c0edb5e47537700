package dto

import (
	"chalin/internal/core/types"
	"chalin/internal/domain/catalogs/branch"
)

// CreateBranchRequest for creating branches.
type CreateBranchRequest struct {
	Code           string  `json:"code" binding:"required"`
	Name           string  `json:"name" binding:"required"`
	Type           string  `json:"type" binding:"required"`
	Address        *string `json:"address"`
	Phone          *string `json:"phone"`
	CommissionRate string  `json:"commissionRate"`
}

// ToEntity converts the request to a domain Branch.
func (r CreateBranchRequest) ToEntity() (*branch.Branch, error) {
	b := branch.NewBranch(r.Code, r.Name, branch.BranchType(r.Type))
	b.Address = r.Address
	b.Phone = r.Phone

	if r.CommissionRate != "" {
		rate, err := ParseMoney("commissionRate", r.CommissionRate)
		if err != nil {
			return nil, err
		}
		b.CommissionRate = rate
	}

	return b, nil
}

// UpdateBranchRequest for updating branches.
type UpdateBranchRequest struct {
	Name           *string `json:"name"`
	Address        *string `json:"address"`
	Phone          *string `json:"phone"`
	IsActive       *bool   `json:"isActive"`
	CommissionRate *string `json:"commissionRate"`
	Version        int     `json:"version" binding:"required,min=1"`
}

// ApplyTo applies the update onto an existing Branch.
func (r UpdateBranchRequest) ApplyTo(b *branch.Branch) error {
	if r.Name != nil {
		b.Name = *r.Name
	}
	if r.Address != nil {
		b.Address = r.Address
	}
	if r.Phone != nil {
		b.Phone = r.Phone
	}
	if r.IsActive != nil {
		b.IsActive = *r.IsActive
	}
	if r.CommissionRate != nil {
		rate, err := ParseMoney("commissionRate", *r.CommissionRate)
		if err != nil {
			return err
		}
		b.CommissionRate = rate
	}
	b.Version = r.Version
	return nil
}

// BranchResponse contains branch fields.
type BranchResponse struct {
	ID             string      `json:"id"`
	Code           string      `json:"code"`
	Name           string      `json:"name"`
	Type           string      `json:"type"`
	Address        *string     `json:"address,omitempty"`
	Phone          *string     `json:"phone,omitempty"`
	IsActive       bool        `json:"isActive"`
	CommissionRate types.Money `json:"commissionRate"`
	DeletionMark   bool        `json:"deletionMark"`
	Version        int         `json:"version"`
}

// FromBranch creates BranchResponse from a domain Branch.
func FromBranch(b *branch.Branch) BranchResponse {
	return BranchResponse{
		ID:             b.ID.String(),
		Code:           b.Code,
		Name:           b.Name,
		Type:           string(b.Type),
		Address:        b.Address,
		Phone:          b.Phone,
		IsActive:       b.IsActive,
		CommissionRate: b.CommissionRate,
		DeletionMark:   b.DeletionMark,
		Version:        b.Version,
	}
}
