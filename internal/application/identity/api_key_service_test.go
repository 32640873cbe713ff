package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/identity"
	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/infrastructure/persistence"
	"github.com/smartstore/backend/internal/infrastructure/persistence/persistencetest"
)

func TestAPIKeyService_Lifecycle(t *testing.T) {
	db := persistencetest.NewDB(t)
	users := persistence.NewGormUserRepository(db)
	keys := persistence.NewGormAPIKeyRepository(db)
	svc := NewAPIKeyService(keys, users, zap.NewNop())
	ctx := t.Context()

	tenantID := uuid.New()
	manager := newUser(t, tenantID, "manager@shop.test", identity.RoleManager)
	require.NoError(t, users.Save(ctx, manager))

	readProducts := identity.Permission(identity.ResourceProduct, identity.ActionRead)

	created, err := svc.Create(ctx, tenantID, manager.ID, CreateAPIKeyRequest{
		Name:        "storefront",
		Permissions: []string{readProducts, readProducts},
	})
	require.NoError(t, err)
	assert.True(t, len(created.Key) > len(identity.APIKeyPrefix))
	assert.Equal(t, identity.APIKeyPrefix, created.Key[:len(identity.APIKeyPrefix)])
	assert.Equal(t, []string{readProducts}, created.Permissions)

	principal, err := svc.Authenticate(ctx, created.Key)
	require.NoError(t, err)
	assert.Equal(t, tenantID, principal.TenantID)
	assert.Equal(t, manager.ID, principal.CreatedBy)
	assert.Equal(t, []string{readProducts}, principal.Permissions)

	listed, err := svc.List(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.NotNil(t, listed[0].LastUsedAt)

	other, err := svc.List(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, svc.Revoke(ctx, tenantID, created.ID))
	_, err = svc.Authenticate(ctx, created.Key)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	assert.ErrorIs(t, svc.Revoke(ctx, tenantID, created.ID), shared.ErrInvalidState)
}

func TestAPIKeyService_RejectsEscalationAndExpiredKeys(t *testing.T) {
	db := persistencetest.NewDB(t)
	users := persistence.NewGormUserRepository(db)
	keys := persistence.NewGormAPIKeyRepository(db)
	svc := NewAPIKeyService(keys, users, zap.NewNop())
	ctx := t.Context()

	tenantID := uuid.New()
	viewer := newUser(t, tenantID, "viewer@shop.test", identity.RoleViewer)
	require.NoError(t, users.Save(ctx, viewer))

	_, err := svc.Create(ctx, tenantID, viewer.ID, CreateAPIKeyRequest{
		Name:        "writer",
		Permissions: []string{identity.Permission(identity.ResourceProduct, identity.ActionCreate)},
	})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	expiry := time.Now().Add(time.Hour)
	created, err := svc.Create(ctx, tenantID, viewer.ID, CreateAPIKeyRequest{
		Name:        "reader",
		Permissions: []string{identity.Permission(identity.ResourceOrder, identity.ActionRead)},
		ExpiresAt:   &expiry,
	})
	require.NoError(t, err)

	svc.now = func() time.Time { return expiry.Add(time.Second) }
	_, err = svc.Authenticate(ctx, created.Key)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	_, err = svc.Authenticate(ctx, "not-a-key")
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
	_, err = svc.Authenticate(ctx, identity.APIKeyPrefix+"unknown")
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}
