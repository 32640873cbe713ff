package trade

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/domain/trade"
)

// deliveredOrder places a paid order for qty mugs and walks it to DELIVERED
func (f *tradeFixture) deliveredOrder(t *testing.T, qty int64) *OrderResponse {
	t.Helper()
	ctx := t.Context()
	order := f.place(t, qty)
	f.pay(t, order.ID)
	for _, status := range []string{"PROCESSING", "SHIPPED", "DELIVERED"} {
		_, err := f.orders.UpdateStatus(ctx, f.tenantID, f.actorID, order.ID, UpdateStatusRequest{Status: status})
		require.NoError(t, err)
	}
	got, err := f.orders.GetByID(ctx, f.tenantID, order.ID)
	require.NoError(t, err)
	return got
}

func TestReturnService_FullFlow(t *testing.T) {
	f := newTradeFixture(t)
	ctx := t.Context()

	// 2 x 20 + 10% tax + 5 shipping = 49, earns 49 points
	order := f.deliveredOrder(t, 2)
	assert.Equal(t, "49.00", order.TotalAmount.StringFixed(2))
	assert.Equal(t, int64(1049), f.points(t))
	assert.Equal(t, int64(48), f.stock(t))

	ret, err := f.returns.Request(ctx, f.tenantID, order.ID, CreateReturnRequest{
		Lines:  []ReturnLineRequest{{OrderItemID: order.Items[0].ID, Quantity: 1}},
		Reason: "Chipped",
	})
	require.NoError(t, err)
	assert.Equal(t, "REQUESTED", ret.Status)
	assert.True(t, ret.Restock)
	assert.Equal(t, "22.00", ret.RefundAmount.StringFixed(2))

	_, err = f.returns.Request(ctx, f.tenantID, order.ID, CreateReturnRequest{
		Lines:  []ReturnLineRequest{{OrderItemID: order.Items[0].ID, Quantity: 1}},
		Reason: "Again",
	})
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = f.returns.Complete(ctx, f.tenantID, f.actorID, ret.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	approved, err := f.returns.Approve(ctx, f.tenantID, f.actorID, ret.ID)
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, f.actorID, *approved.ReviewedBy)
	f.publisher.reset()

	done, err := f.returns.Complete(ctx, f.tenantID, f.actorID, ret.ID)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", done.Status)
	assert.NotNil(t, done.CompletedAt)

	require.Len(t, f.refunder.amounts, 1)
	assert.Equal(t, "22.00", f.refunder.amounts[0].StringFixed(2))
	assert.Equal(t, int64(49), f.stock(t))
	// 22/49 of the 49 earned points
	assert.Equal(t, int64(1027), f.points(t))
	assert.Contains(t, f.publisher.types(), trade.EventTypeReturnCompleted)

	updated, err := f.orders.GetByID(ctx, f.tenantID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "DELIVERED", updated.Status)
	assert.Equal(t, int64(1), updated.Items[0].ReturnedQuantity)

	list, err := f.returns.ListByOrder(ctx, f.tenantID, order.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestReturnService_FullReturnMarksOrderReturned(t *testing.T) {
	f := newTradeFixture(t)
	ctx := t.Context()
	order := f.deliveredOrder(t, 1)
	noRestock := false

	ret, err := f.returns.Request(ctx, f.tenantID, order.ID, CreateReturnRequest{
		Lines:   []ReturnLineRequest{{OrderItemID: order.Items[0].ID, Quantity: 1}},
		Reason:  "Wrong colour",
		Restock: &noRestock,
	})
	require.NoError(t, err)
	_, err = f.returns.Approve(ctx, f.tenantID, f.actorID, ret.ID)
	require.NoError(t, err)
	_, err = f.returns.Complete(ctx, f.tenantID, f.actorID, ret.ID)
	require.NoError(t, err)

	updated, err := f.orders.GetByID(ctx, f.tenantID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "RETURNED", updated.Status)
	assert.Equal(t, int64(49), f.stock(t))
}

func TestReturnService_RejectAndValidation(t *testing.T) {
	f := newTradeFixture(t)
	ctx := t.Context()

	pending := f.place(t, 1)
	_, err := f.returns.Request(ctx, f.tenantID, pending.ID, CreateReturnRequest{
		Lines:  []ReturnLineRequest{{OrderItemID: pending.Items[0].ID, Quantity: 1}},
		Reason: "Early",
	})
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	order := f.deliveredOrder(t, 1)
	_, err = f.returns.Request(ctx, f.tenantID, order.ID, CreateReturnRequest{
		Lines:  []ReturnLineRequest{{OrderItemID: order.Items[0].ID, Quantity: 2}},
		Reason: "Too many",
	})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	ret, err := f.returns.Request(ctx, f.tenantID, order.ID, CreateReturnRequest{
		Lines:  []ReturnLineRequest{{OrderItemID: order.Items[0].ID, Quantity: 1}},
		Reason: "Changed mind",
	})
	require.NoError(t, err)

	_, err = f.returns.Reject(ctx, f.tenantID, f.actorID, ret.ID, RejectReturnRequest{Reason: " "})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	rejected, err := f.returns.Reject(ctx, f.tenantID, f.actorID, ret.ID, RejectReturnRequest{Reason: "Used item"})
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", rejected.Status)
	assert.Equal(t, "Used item", rejected.RejectReason)

	_, err = f.returns.Approve(ctx, f.tenantID, f.actorID, ret.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	// a rejected return no longer blocks a new request
	_, err = f.returns.Request(ctx, f.tenantID, order.ID, CreateReturnRequest{
		Lines:  []ReturnLineRequest{{OrderItemID: order.Items[0].ID, Quantity: 1}},
		Reason: "Second try",
	})
	assert.NoError(t, err)

	_, err = f.returns.GetByID(ctx, f.tenantID, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestReturnService_RefundFailureCanBeRetried(t *testing.T) {
	f := newTradeFixture(t)
	ctx := t.Context()
	order := f.deliveredOrder(t, 1)

	ret, err := f.returns.Request(ctx, f.tenantID, order.ID, CreateReturnRequest{
		Lines:  []ReturnLineRequest{{OrderItemID: order.Items[0].ID, Quantity: 1}},
		Reason: "Broken",
	})
	require.NoError(t, err)
	_, err = f.returns.Approve(ctx, f.tenantID, f.actorID, ret.ID)
	require.NoError(t, err)

	f.refunder.err = errors.New("gateway down")
	_, err = f.returns.Complete(ctx, f.tenantID, f.actorID, ret.ID)
	require.Error(t, err)

	got, err := f.returns.GetByID(ctx, f.tenantID, ret.ID)
	require.NoError(t, err)
	assert.Equal(t, "REFUNDING", got.Status)
	assert.Nil(t, got.RefundedAt)
	assert.Equal(t, int64(49), f.stock(t))

	// the open refund still blocks another return
	_, err = f.returns.Request(ctx, f.tenantID, order.ID, CreateReturnRequest{
		Lines:  []ReturnLineRequest{{OrderItemID: order.Items[0].ID, Quantity: 1}},
		Reason: "Again",
	})
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	f.refunder.err = nil
	done, err := f.returns.Complete(ctx, f.tenantID, f.actorID, ret.ID)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", done.Status)
	assert.Equal(t, []string{"return-" + ret.ID.String()}, f.refunder.keys)
}

func TestReturnService_CompletionFailureDoesNotRefundTwice(t *testing.T) {
	f := newTradeFixture(t)
	ctx := t.Context()
	order := f.deliveredOrder(t, 2)

	ret, err := f.returns.Request(ctx, f.tenantID, order.ID, CreateReturnRequest{
		Lines:  []ReturnLineRequest{{OrderItemID: order.Items[0].ID, Quantity: 1}},
		Reason: "Chipped",
	})
	require.NoError(t, err)
	_, err = f.returns.Approve(ctx, f.tenantID, f.actorID, ret.ID)
	require.NoError(t, err)

	f.mover.failNext = errors.New("transient db error")
	_, err = f.returns.Complete(ctx, f.tenantID, f.actorID, ret.ID)
	require.Error(t, err)
	require.Len(t, f.refunder.amounts, 1)

	got, err := f.returns.GetByID(ctx, f.tenantID, ret.ID)
	require.NoError(t, err)
	assert.Equal(t, "REFUNDING", got.Status)
	require.NotNil(t, got.RefundedAt)
	assert.Equal(t, int64(48), f.stock(t))

	done, err := f.returns.Complete(ctx, f.tenantID, f.actorID, ret.ID)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", done.Status)
	require.Len(t, f.refunder.amounts, 1)
	assert.Equal(t, "22.00", f.refunder.amounts[0].StringFixed(2))
	assert.Equal(t, int64(49), f.stock(t))
	assert.Equal(t, int64(1027), f.points(t))
}
