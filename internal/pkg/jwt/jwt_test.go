package jwt

import (
	"testing"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSETokenCarriesActor(t *testing.T) {
	svc := NewJWTService("test-secret-key-for-jwt", 0)
	actor := user.Actor{UserID: "u1", EmployeeID: "e1", CompanyID: "c1", Role: user.RoleStaff}

	token, expiresIn, err := svc.GenerateSSEToken(actor)
	require.NoError(t, err)
	assert.Equal(t, 300, expiresIn)

	got, err := svc.ValidateSSEToken(token)
	require.NoError(t, err)
	assert.Equal(t, actor, got)
}

func TestValidateSSEToken_RejectsAccessToken(t *testing.T) {
	svc := NewJWTService("test-secret-key-for-jwt", 0)
	token, _, err := svc.GenerateAccessToken(user.Actor{UserID: "u1", CompanyID: "c1", Role: user.RoleAdmin})
	require.NoError(t, err)

	_, err = svc.ValidateSSEToken(token)
	assert.ErrorIs(t, err, user.ErrInvalidToken)
}

func TestActorFromClaims(t *testing.T) {
	_, ok := ActorFromClaims(map[string]interface{}{"user_id": "u1", "role": "STAFF"})
	assert.False(t, ok, "company is required")

	_, ok = ActorFromClaims(map[string]interface{}{"user_id": "u1", "company_id": "c1", "role": "owner"})
	assert.False(t, ok, "unknown role")

	a, ok := ActorFromClaims(map[string]interface{}{"user_id": "u1", "company_id": "c1", "role": "MANAGER"})
	require.True(t, ok)
	assert.True(t, a.CanApprove())
	assert.Empty(t, a.EmployeeID)
}
