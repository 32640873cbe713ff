package trade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/domain/trade"
)

func wooOrder(id string) ExternalOrder {
	return ExternalOrder{
		Channel:    trade.ChannelWooCommerce,
		ExternalID: id,
		Email:      "Bob@Shop.io",
		FirstName:  "Bob",
		Address:    ShippingAddress{Line1: "5 Oak", City: "Ogdenville", Country: "US"},
		Lines:      []ExternalLine{{SKU: " mug-1", Quantity: 2}},
		Paid:       true,
	}
}

func TestOrderService_ImportIsIdempotent(t *testing.T) {
	f := newTradeFixture(t)
	ctx := t.Context()

	order, created, err := f.orders.Import(ctx, f.tenantID, wooOrder("1001"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "WOOCOMMERCE", order.Channel)
	assert.Equal(t, "1001", order.ExternalID)
	assert.Equal(t, "PAID", order.PaymentStatus)
	assert.Equal(t, "CONFIRMED", order.Status)
	assert.Equal(t, "49.00", order.PaidAmount.StringFixed(2))
	assert.Equal(t, "Ogdenville", order.ShippingAddress.City)
	assert.Equal(t, int64(48), f.stock(t))
	assert.Contains(t, f.publisher.types(), trade.EventTypeOrderPaid)

	customer, err := f.customerRepo.FindByEmail(ctx, f.tenantID, "bob@shop.io")
	require.NoError(t, err)
	assert.Equal(t, order.CustomerID, customer.ID)

	again, created, err := f.orders.Import(ctx, f.tenantID, wooOrder("1001"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, order.ID, again.ID)
	assert.Equal(t, int64(48), f.stock(t))

	// the same customer is reused for the next order
	next, created, err := f.orders.Import(ctx, f.tenantID, wooOrder("1002"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, customer.ID, next.CustomerID)
}

func TestOrderService_ImportRejections(t *testing.T) {
	f := newTradeFixture(t)
	ctx := t.Context()

	unknown := wooOrder("2001")
	unknown.Lines = []ExternalLine{{SKU: "NOPE", Quantity: 1}}
	_, _, err := f.orders.Import(ctx, f.tenantID, unknown)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, _, err = f.orders.Import(ctx, f.tenantID, wooOrder(""))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	unpaid := wooOrder("2002")
	unpaid.Paid = false
	order, created, err := f.orders.Import(ctx, f.tenantID, unpaid)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "UNPAID", order.PaymentStatus)
	assert.Equal(t, "PENDING", order.Status)
}
