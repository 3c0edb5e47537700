package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chalin/internal/core/id"
)

func TestJWT_RoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))
	branchID := id.New()

	scope := &Scope{
		UserID:    "user-1",
		Role:      RoleManager,
		BranchIDs: []id.ID{branchID},
	}

	token, expiresAt, err := svc.GenerateAccessToken(scope)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.False(t, expiresAt.IsZero())

	parsed, err := svc.ValidateToken(token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", parsed.UserID)
	assert.Equal(t, RoleManager, parsed.Role)
	assert.False(t, parsed.IsAdmin)
	require.Len(t, parsed.BranchIDs, 1)
	assert.Equal(t, branchID, parsed.BranchIDs[0])
}

func TestJWT_AdminFlagSurvives(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	token, _, err := svc.GenerateAccessToken(&Scope{UserID: "root", Role: RoleAdmin, IsAdmin: true})
	require.NoError(t, err)

	parsed, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, parsed.IsAdmin)
	assert.True(t, parsed.CanActOn(id.New()))
}

func TestJWT_WrongSecretRejected(t *testing.T) {
	issuer := NewJWTService(DefaultJWTConfig("secret-a"))
	verifier := NewJWTService(DefaultJWTConfig("secret-b"))

	token, _, err := issuer.GenerateAccessToken(&Scope{UserID: "user-1", Role: RoleViewer})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWT_GarbageRejected(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))
	_, err := svc.ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestScope_RequireBranch(t *testing.T) {
	granted := id.New()
	other := id.New()

	scope := &Scope{UserID: "u", Role: RoleCashier, BranchIDs: []id.ID{granted}}

	assert.NoError(t, scope.RequireBranch(granted))
	assert.Error(t, scope.RequireBranch(other))

	var nilScope *Scope
	assert.False(t, nilScope.CanActOn(granted))
}
