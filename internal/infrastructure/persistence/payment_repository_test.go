package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstore/backend/internal/domain/payment"
	"github.com/smartstore/backend/internal/domain/shared"
)

func TestGormProcessedWebhookRepository_MarkProcessed(t *testing.T) {
	ctx := context.Background()
	repo := NewGormProcessedWebhookRepository(newTestDB(t))

	first, err := repo.MarkProcessed(ctx, "STRIPE", "evt_1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := repo.MarkProcessed(ctx, "STRIPE", "evt_1")
	require.NoError(t, err)
	assert.False(t, again)

	otherProvider, err := repo.MarkProcessed(ctx, "PAYPAL", "evt_1")
	require.NoError(t, err)
	assert.True(t, otherProvider)
}

func TestGormPaymentRepository_FindByProviderRef(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	repo := NewGormPaymentRepository(newTestDB(t))

	p, err := payment.NewPayment(tenantID, uuid.New(), payment.ProviderStripe, decimal.NewFromInt(50), "USD")
	require.NoError(t, err)
	p.AttachProvider("pi_123", "", "secret")
	require.NoError(t, repo.Save(ctx, p))

	found, err := repo.FindByProviderRef(ctx, payment.ProviderStripe, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)
	assert.Equal(t, tenantID, found.TenantID)

	_, err = repo.FindByProviderRef(ctx, payment.ProviderStripe, "pi_missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	payments, err := repo.FindByOrder(ctx, tenantID, p.OrderID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}
