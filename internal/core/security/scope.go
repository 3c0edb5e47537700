// Package security provides authorization and access control.
package security

import (
	"context"

	"chalin/internal/core/apperror"
	"chalin/internal/core/id"
)

// Role defines a set of capabilities.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleCashier Role = "cashier"
	RoleViewer  Role = "viewer"
)

// Scope is the capability object carried through every document effect
// call. Branch-level grants are explicit here rather than ambient global
// state: a processor acts on a branch only if the scope allows it.
type Scope struct {
	// UserID is the authenticated user
	UserID string

	// Role of the user
	Role Role

	// IsAdmin bypasses branch filtering
	IsAdmin bool

	// BranchIDs limits stock operations to specific branches.
	// Empty = no access (unless IsAdmin).
	BranchIDs []id.ID
}

// CanActOn checks if the scope permits operating on the branch.
func (s *Scope) CanActOn(branchID id.ID) bool {
	if s == nil {
		return false
	}
	if s.IsAdmin {
		return true
	}
	for _, b := range s.BranchIDs {
		if b == branchID {
			return true
		}
	}
	return false
}

// RequireBranch returns a Forbidden error unless the scope permits the branch.
func (s *Scope) RequireBranch(branchID id.ID) error {
	if s.CanActOn(branchID) {
		return nil
	}
	return apperror.NewForbidden("no access to branch").
		WithDetail("branch_id", branchID.String())
}

type scopeKey struct{}

// WithScope adds the capability scope to context.
// Used by middleware to propagate the authenticated user through the request chain.
func WithScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// GetScope retrieves the scope from context, or nil if unauthenticated.
func GetScope(ctx context.Context) *Scope {
	if s, ok := ctx.Value(scopeKey{}).(*Scope); ok {
		return s
	}
	return nil
}

// GetUserID retrieves the user ID from the context scope.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	if s := GetScope(ctx); s != nil {
		return s.UserID
	}
	return ""
}

// SystemScope returns an all-access scope for internal jobs and tests.
func SystemScope() *Scope {
	return &Scope{UserID: "system", Role: RoleAdmin, IsAdmin: true}
}
