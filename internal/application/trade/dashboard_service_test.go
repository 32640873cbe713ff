package trade

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstore/backend/internal/domain/shared"
)

func TestDashboardService_Summary(t *testing.T) {
	f := newTradeFixture(t)
	ctx := t.Context()

	first := f.place(t, 1)
	f.place(t, 2)
	cancelled := f.place(t, 3)
	_, err := f.orders.Cancel(ctx, f.tenantID, f.actorID, cancelled.ID, CancelOrderRequest{})
	require.NoError(t, err)
	f.pay(t, first.ID)

	sum, err := f.dashboard.Summary(ctx, f.tenantID, SummaryRequest{})
	require.NoError(t, err)
	assert.Equal(t, "USD", sum.Currency)
	assert.Equal(t, int64(2), sum.OrderCount)
	// 27 + 49
	assert.Equal(t, "76.00", sum.Revenue.StringFixed(2))
	assert.Equal(t, "38.00", sum.AverageOrderValue.StringFixed(2))
	assert.Equal(t, int64(1), sum.PendingOrders)
	assert.Equal(t, int64(1), sum.OrderingCustomers)
	assert.Equal(t, int64(1), sum.TotalCustomers)
	assert.Zero(t, sum.OpenLowStockAlerts)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -30), sum.From, time.Minute)

	past := time.Now().AddDate(-1, 0, 0)
	old, err := f.dashboard.Summary(ctx, f.tenantID, SummaryRequest{From: &past, To: &past})
	require.NoError(t, err)
	assert.Zero(t, old.OrderCount)
	assert.True(t, old.Revenue.IsZero())

	later := time.Now()
	_, err = f.dashboard.Summary(ctx, f.tenantID, SummaryRequest{From: &later, To: &past})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestDashboardService_CountsLowStockAlerts(t *testing.T) {
	f := newTradeFixture(t)

	// org default threshold is 10
	f.place(t, 45)

	sum, err := f.dashboard.Summary(t.Context(), f.tenantID, SummaryRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), sum.OpenLowStockAlerts)
}
