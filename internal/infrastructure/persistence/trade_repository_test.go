package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/domain/trade"
)

// newTestOrder builds a pending order with one line per product at 10.00 each
func newTestOrder(t *testing.T, tenantID, customerID uuid.UUID, productIDs ...uuid.UUID) *trade.Order {
	t.Helper()
	order, err := trade.NewOrder(tenantID, customerID, uuid.New(), "USD", trade.ChannelDirect)
	require.NoError(t, err)
	for i, productID := range productIDs {
		sku := "SKU-" + productID.String()[:8]
		require.NoError(t, order.AddItem(productID, nil, sku, "Item", int64(i+1), decimal.NewFromInt(10)))
	}
	require.NoError(t, order.Place())
	return order
}

func TestGormOrderRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	repo := NewGormOrderRepository(newTestDB(t))

	order := newTestOrder(t, tenantID, uuid.New(), uuid.New(), uuid.New())
	require.NoError(t, repo.Create(ctx, order))

	found, err := repo.FindByID(ctx, tenantID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, found.OrderNumber)
	assert.Len(t, found.Items, 2)
	assert.True(t, order.TotalAmount.Equal(found.TotalAmount))

	found, err = repo.FindByNumber(ctx, tenantID, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = repo.FindByID(ctx, uuid.New(), order.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormOrderRepository_SaveWithLock(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	repo := NewGormOrderRepository(newTestDB(t))

	order := newTestOrder(t, tenantID, uuid.New(), uuid.New())
	require.NoError(t, repo.Create(ctx, order))

	stale, err := repo.FindByID(ctx, tenantID, order.ID)
	require.NoError(t, err)

	require.NoError(t, order.TransitionTo(trade.OrderStatusConfirmed))
	require.NoError(t, repo.SaveWithLock(ctx, order))

	require.NoError(t, stale.Cancel("changed my mind"))
	err = repo.SaveWithLock(ctx, stale)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	current, err := repo.FindByID(ctx, tenantID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.OrderStatusConfirmed, current.Status)
	assert.Equal(t, 2, current.Version)
}

func TestGormOrderRepository_Summary(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	repo := NewGormOrderRepository(newTestDB(t))
	customerA, customerB := uuid.New(), uuid.New()

	// 10.00 and 30.00 (1x10 + 2x10)
	require.NoError(t, repo.Create(ctx, newTestOrder(t, tenantID, customerA, uuid.New())))
	confirmed := newTestOrder(t, tenantID, customerB, uuid.New(), uuid.New())
	require.NoError(t, confirmed.TransitionTo(trade.OrderStatusConfirmed))
	require.NoError(t, repo.Create(ctx, confirmed))

	cancelled := newTestOrder(t, tenantID, customerB, uuid.New())
	require.NoError(t, cancelled.Cancel("test"))
	require.NoError(t, repo.Create(ctx, cancelled))

	require.NoError(t, repo.Create(ctx, newTestOrder(t, uuid.New(), customerA, uuid.New())))

	now := time.Now()
	summary, err := repo.Summary(ctx, tenantID, shared.DateRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.OrderCount)
	assert.Equal(t, int64(1), summary.PendingCount)
	assert.Equal(t, int64(2), summary.UniqueCustomers)
	assert.Equal(t, "40", summary.Revenue.String())
	assert.Equal(t, "20", summary.AverageOrderValue.String())

	empty, err := repo.Summary(ctx, tenantID, shared.DateRange{From: now.Add(time.Hour), To: now.Add(2 * time.Hour)})
	require.NoError(t, err)
	assert.Zero(t, empty.OrderCount)
	assert.True(t, empty.AverageOrderValue.IsZero())
}
