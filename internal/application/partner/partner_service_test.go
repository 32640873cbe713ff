package partner

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/infrastructure/persistence"
	"github.com/smartstore/backend/internal/infrastructure/persistence/persistencetest"
)

func TestCustomerService(t *testing.T) {
	db := persistencetest.NewDB(t)
	svc := NewCustomerService(persistence.NewGormCustomerRepository(db), zap.NewNop())
	ctx := t.Context()
	tenantID := uuid.New()

	ada, err := svc.Create(ctx, tenantID, uuid.New(), CreateCustomerRequest{
		Email:          "Ada@Example.com",
		FirstName:      "Ada",
		LastName:       "Lovelace",
		MarketingOptIn: true,
		Addresses:      []AddressDTO{{Line1: "1 Analytical St", City: "London", PostalCode: "N1", Country: "GB"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", ada.Email)
	assert.Equal(t, "Ada Lovelace", ada.FullName)
	assert.Equal(t, "BRONZE", ada.Tier)
	require.Len(t, ada.Addresses, 1)

	t.Run("duplicate email in tenant", func(t *testing.T) {
		_, err := svc.Create(ctx, tenantID, uuid.New(), CreateCustomerRequest{Email: "ada@example.com", FirstName: "Other"})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("needs a contact", func(t *testing.T) {
		_, err := svc.Create(ctx, tenantID, uuid.New(), CreateCustomerRequest{FirstName: "Ghost"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("phone only customer", func(t *testing.T) {
		_, err := svc.Create(ctx, tenantID, uuid.New(), CreateCustomerRequest{Phone: "+447700900000", FirstName: "Charles"})
		require.NoError(t, err)
	})

	notes := "prefers email"
	optOut := false
	updated, err := svc.Update(ctx, tenantID, ada.ID, UpdateCustomerRequest{
		Notes:          &notes,
		MarketingOptIn: &optOut,
		Tags:           []string{"vip"},
	})
	require.NoError(t, err)
	assert.Equal(t, "prefers email", updated.Notes)
	assert.False(t, updated.MarketingOptIn)
	assert.Equal(t, []string{"vip"}, updated.Tags)

	optIn := true
	page, err := svc.List(ctx, tenantID, CustomerListFilter{MarketingOptIn: &optIn})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	page, err = svc.List(ctx, tenantID, CustomerListFilter{Search: "lovelace"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	_, err = svc.GetByID(ctx, uuid.New(), ada.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound, "customers are tenant scoped")

	require.NoError(t, svc.Delete(ctx, tenantID, ada.ID))
	_, err = svc.GetByID(ctx, tenantID, ada.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestWarehouseService_SingleDefault(t *testing.T) {
	db := persistencetest.NewDB(t)
	svc := NewWarehouseService(persistence.NewGormWarehouseRepository(db), persistence.NewGormTxManager(db), zap.NewNop())
	ctx := t.Context()
	tenantID := uuid.New()

	main, err := svc.Create(ctx, tenantID, WarehouseRequest{Code: "main", Name: "Main"})
	require.NoError(t, err)
	assert.True(t, main.IsDefault, "first warehouse becomes the default")
	assert.Equal(t, "MAIN", main.Code)

	annex, err := svc.Create(ctx, tenantID, WarehouseRequest{Code: "annex", Name: "Annex"})
	require.NoError(t, err)
	assert.False(t, annex.IsDefault)

	_, err = svc.Create(ctx, tenantID, WarehouseRequest{Code: "MAIN", Name: "Dup"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	_, err = svc.Update(ctx, tenantID, annex.ID, WarehouseRequest{Name: "Annex", IsDefault: true})
	require.NoError(t, err)

	list, err := svc.List(ctx, tenantID)
	require.NoError(t, err)
	defaults := 0
	for _, w := range list {
		if w.IsDefault {
			defaults++
			assert.Equal(t, annex.ID, w.ID)
		}
	}
	assert.Equal(t, 1, defaults)

	inactive := false
	_, err = svc.Update(ctx, tenantID, annex.ID, WarehouseRequest{Name: "Annex", Active: &inactive})
	assert.ErrorIs(t, err, shared.ErrInvalidState, "the default warehouse cannot be deactivated")

	assert.ErrorIs(t, svc.Delete(ctx, tenantID, annex.ID), shared.ErrInvalidState)
	require.NoError(t, svc.Delete(ctx, tenantID, main.ID))
}
