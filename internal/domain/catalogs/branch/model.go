// Package branch provides the Branch catalog.
// A branch is a stock-holding location: the main store, a regular branch
// store, or a consignment point whose sales earn the network a commission.
package branch

import (
	"context"

	"chalin/internal/core/apperror"
	"chalin/internal/core/entity"
	"chalin/internal/core/types"
)

// BranchType defines the branch category.
type BranchType string

const (
	TypeMain        BranchType = "main"
	TypeBranch      BranchType = "branch"
	TypeConsignment BranchType = "consignment"
)

// Branch represents a stock-holding location.
type Branch struct {
	entity.Catalog

	// Type defines the branch category
	Type BranchType `db:"type" json:"type"`

	// Address is the physical address
	Address *string `db:"address" json:"address,omitempty"`

	// Phone is a contact number
	Phone *string `db:"phone" json:"phone,omitempty"`

	// IsActive indicates if the branch is operational
	IsActive bool `db:"is_active" json:"isActive"`

	// CommissionRate is the consignment commission as a fraction
	// (0.15 = 15%). Only meaningful for consignment branches.
	CommissionRate types.Money `db:"commission_rate" json:"commissionRate"`
}

// NewBranch creates a new Branch with required fields.
func NewBranch(code, name string, branchType BranchType) *Branch {
	return &Branch{
		Catalog:        entity.NewCatalog(code, name),
		Type:           branchType,
		IsActive:       true,
		CommissionRate: types.Zero(),
	}
}

// Validate implements entity.Validatable interface.
func (b *Branch) Validate(ctx context.Context) error {
	if err := b.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !isValidBranchType(b.Type) {
		return apperror.NewValidation("invalid branch type").
			WithDetail("field", "type").
			WithDetail("value", string(b.Type))
	}

	if b.CommissionRate.IsNegative() || b.CommissionRate.GreaterThan(types.MustMoney("1")) {
		return apperror.NewValidation("commission rate must be between 0 and 1").
			WithDetail("field", "commissionRate").
			WithDetail("value", b.CommissionRate.String())
	}

	if b.Type != TypeConsignment && b.CommissionRate.IsPositive() {
		return apperror.NewValidation("commission rate applies only to consignment branches").
			WithDetail("field", "commissionRate")
	}

	return nil
}

// IsConsignment reports whether sales at this branch earn commission.
func (b *Branch) IsConsignment() bool {
	return b.Type == TypeConsignment
}

// CanHoldStock returns true if the branch can receive and issue stock.
func (b *Branch) CanHoldStock() bool {
	return b.IsActive && !b.DeletionMark
}

func isValidBranchType(t BranchType) bool {
	switch t {
	case TypeMain, TypeBranch, TypeConsignment:
		return true
	}
	return false
}
