package trade

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstore/backend/internal/domain/shared"
)

func TestNewReturnRequest_RequiresDeliveredOrder(t *testing.T) {
	o := newTestOrder(t)
	_, err := NewReturnRequest(o, []ReturnLine{{OrderItemID: o.Items[0].ID, Quantity: 1}}, "damaged", true)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestNewReturnRequest_Validation(t *testing.T) {
	o := deliveredOrder(t)
	tee := o.Items[0]

	tests := []struct {
		name    string
		lines   []ReturnLine
		reason  string
		wantErr error
	}{
		{"no reason", []ReturnLine{{OrderItemID: tee.ID, Quantity: 1}}, " ", shared.ErrInvalidInput},
		{"no lines", nil, "damaged", shared.ErrInvalidInput},
		{"zero quantity", []ReturnLine{{OrderItemID: tee.ID, Quantity: 0}}, "damaged", shared.ErrInvalidInput},
		{"too many", []ReturnLine{{OrderItemID: tee.ID, Quantity: 3}}, "damaged", shared.ErrInvalidInput},
		{"unknown item", []ReturnLine{{OrderItemID: uuid.New(), Quantity: 1}}, "damaged", shared.ErrNotFound},
		{"duplicate item", []ReturnLine{{OrderItemID: tee.ID, Quantity: 1}, {OrderItemID: tee.ID, Quantity: 1}}, "damaged", shared.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReturnRequest(o, tt.lines, tt.reason, true)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewReturnRequest_RefundShareOfDiscountedValue(t *testing.T) {
	o := newTestOrder(t)
	require.NoError(t, o.ApplyCoupon(uuid.New(), "SAVE10", d("10")))
	require.NoError(t, o.SetCharges(d("0.1"), d("5")))
	require.NoError(t, o.RecordPayment(o.TotalAmount))
	require.NoError(t, o.TransitionTo(OrderStatusProcessing))
	require.NoError(t, o.TransitionTo(OrderStatusShipped))
	require.NoError(t, o.TransitionTo(OrderStatusDelivered))

	r, err := NewReturnRequest(o, []ReturnLine{{OrderItemID: o.Items[0].ID, Quantity: 1}}, "wrong size", true)
	require.NoError(t, err)

	// 20 of 50 merchandise, discounted to 40/50, plus 10% tax
	assert.True(t, d("17.6").Equal(r.RefundAmount), r.RefundAmount.String())
	assert.Equal(t, ReturnStatusRequested, r.Status)
	assert.Equal(t, o.CustomerID, r.CustomerID)
}

func TestReturnRequest_Lifecycle(t *testing.T) {
	o := deliveredOrder(t)
	r, err := NewReturnRequest(o, []ReturnLine{{OrderItemID: o.Items[1].ID, Quantity: 1}}, "broken", true)
	require.NoError(t, err)

	assert.ErrorIs(t, r.Complete(), shared.ErrInvalidState)

	reviewer := uuid.New()
	require.NoError(t, r.Approve(reviewer))
	assert.Equal(t, reviewer, *r.ReviewedBy)
	assert.ErrorIs(t, r.Reject(reviewer, "no"), shared.ErrInvalidState)

	// money has to go out before the return can complete
	assert.ErrorIs(t, r.MarkRefunded(time.Now()), shared.ErrInvalidState)
	assert.ErrorIs(t, r.Complete(), shared.ErrInvalidState)
	require.NoError(t, r.StartRefund())
	assert.Equal(t, ReturnStatusRefunding, r.Status)
	assert.ErrorIs(t, r.StartRefund(), shared.ErrInvalidState)
	assert.True(t, r.RefundPending())
	require.NoError(t, r.MarkRefunded(time.Now()))
	assert.False(t, r.RefundPending())

	require.NoError(t, r.Complete())
	assert.Equal(t, ReturnStatusCompleted, r.Status)
	require.Len(t, r.PendingEvents(), 1)
	assert.Equal(t, EventTypeReturnCompleted, r.PendingEvents()[0].EventType())
}

func TestReturnRequest_Reject(t *testing.T) {
	o := deliveredOrder(t)
	r, err := NewReturnRequest(o, []ReturnLine{{OrderItemID: o.Items[1].ID, Quantity: 1}}, "broken", false)
	require.NoError(t, err)

	assert.ErrorIs(t, r.Reject(uuid.New(), ""), shared.ErrInvalidInput)
	require.NoError(t, r.Reject(uuid.New(), "outside return window"))
	assert.Equal(t, ReturnStatusRejected, r.Status)
}
