package identity

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstore/backend/internal/domain/shared"
)

func TestNormalizeEmail(t *testing.T) {
	email, err := NormalizeEmail("  Jane.Doe@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@example.com", email)

	for _, bad := range []string{"", "not-an-email", "Jane <jane@example.com>"} {
		_, err := NormalizeEmail(bad)
		assert.ErrorIs(t, err, shared.ErrInvalidInput, bad)
	}
}

func TestNewUser(t *testing.T) {
	u, err := NewUser(uuid.New(), "owner@shop.io", "", "hash", RoleOwner)
	require.NoError(t, err)
	assert.Equal(t, "owner", u.DisplayName)
	assert.True(t, u.CanLogin())

	_, err = NewUser(uuid.New(), "owner@shop.io", "Owner", "hash", Role("ROOT"))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewUser(uuid.New(), "owner@shop.io", "Owner", "", RoleOwner)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestUser_DisableBlocksLogin(t *testing.T) {
	u, err := NewUser(uuid.New(), "staff@shop.io", "Staff", "hash", RoleStaff)
	require.NoError(t, err)

	u.Disable()
	assert.False(t, u.CanLogin())

	u.Enable()
	assert.True(t, u.CanLogin())
}

func TestValidatePassword(t *testing.T) {
	assert.ErrorIs(t, ValidatePassword("short"), shared.ErrInvalidInput)
	assert.ErrorIs(t, ValidatePassword(strings.Repeat("a", 73)), shared.ErrInvalidInput)
	assert.NoError(t, ValidatePassword("correct horse"))
}

func TestGenerateAPIKey(t *testing.T) {
	tenantID := uuid.New()
	key, raw, err := GenerateAPIKey(tenantID, uuid.New(), "storefront", []string{"product:read"}, nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(raw, APIKeyPrefix))
	assert.Equal(t, HashAPIKey(raw), key.KeyHash)
	assert.NotContains(t, key.KeyHash, raw)
	assert.True(t, strings.HasPrefix(raw, key.Prefix))
	assert.Equal(t, tenantID, key.TenantID)
	assert.True(t, key.IsActive(time.Now()))

	require.NoError(t, key.Revoke())
	assert.False(t, key.IsActive(time.Now()))
	assert.ErrorIs(t, key.Revoke(), shared.ErrInvalidState)
}

func TestAPIKey_Expiry(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	key, _, err := GenerateAPIKey(uuid.New(), uuid.New(), "temp", []string{"order:read"}, &exp)
	require.NoError(t, err)

	assert.True(t, key.IsActive(time.Now()))
	assert.False(t, key.IsActive(exp))

	past := time.Now().Add(-time.Minute)
	_, _, err = GenerateAPIKey(uuid.New(), uuid.New(), "old", []string{"order:read"}, &past)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestNewOrganization(t *testing.T) {
	org, err := NewOrganization("  Acme Goods & Co. ", "OPS@acme.io")
	require.NoError(t, err)
	assert.Equal(t, "acme-goods-co", org.Slug)
	assert.Equal(t, "ops@acme.io", org.Email)
	assert.Equal(t, PlanFree, org.Plan)
	assert.Equal(t, org.ID, org.TenantID())
	assert.Equal(t, "USD", org.Settings.Currency)

	_, err = NewOrganization("!!!", "x@y.z")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
