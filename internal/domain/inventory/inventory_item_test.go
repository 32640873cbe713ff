package inventory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstore/backend/internal/domain/shared"
)

func newTestItem(t *testing.T, qty int64) *InventoryItem {
	t.Helper()
	item, err := NewInventoryItem(uuid.New(), uuid.New(), uuid.New(), nil)
	require.NoError(t, err)
	item.Quantity = qty
	return item
}

func TestNewInventoryItem_Validation(t *testing.T) {
	_, err := NewInventoryItem(uuid.New(), uuid.Nil, uuid.New(), nil)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewInventoryItem(uuid.New(), uuid.New(), uuid.Nil, nil)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	item, err := NewInventoryItem(uuid.New(), uuid.New(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), item.Quantity)
	assert.Equal(t, 1, item.Version)
}

func TestInventoryItem_Apply(t *testing.T) {
	tests := []struct {
		name      string
		start     int64
		mvType    MovementType
		qty       int64
		wantAfter int64
		wantErr   error
	}{
		{"purchase adds", 10, MovementPurchase, 5, 15, nil},
		{"return adds", 0, MovementReturn, 3, 3, nil},
		{"transfer in adds", 2, MovementTransferIn, 8, 10, nil},
		{"sale subtracts", 10, MovementSale, 4, 6, nil},
		{"sale to zero", 4, MovementSale, 4, 0, nil},
		{"damage subtracts", 10, MovementDamage, 1, 9, nil},
		{"transfer out subtracts", 10, MovementTransferOut, 10, 0, nil},
		{"adjustment sets absolute count", 10, MovementAdjustment, 3, 3, nil},
		{"adjustment to zero", 10, MovementAdjustment, 0, 0, nil},
		{"sale beyond stock fails", 3, MovementSale, 4, 3, shared.ErrInsufficientStock},
		{"damage beyond stock fails", 0, MovementDamage, 1, 0, shared.ErrInsufficientStock},
		{"zero purchase rejected", 10, MovementPurchase, 0, 10, shared.ErrInvalidInput},
		{"negative adjustment rejected", 10, MovementAdjustment, -1, 10, shared.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := newTestItem(t, tt.start)

			at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
			before, after, err := item.Apply(tt.mvType, tt.qty, at)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.start, item.Quantity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.start, before)
			assert.Equal(t, tt.wantAfter, after)
			assert.Equal(t, tt.wantAfter, item.Quantity)
			require.NotNil(t, item.LastMovementAt)
			assert.Equal(t, at, *item.LastMovementAt)
			assert.Equal(t, at, item.UpdatedAt)
		})
	}
}

func TestParseMovementType(t *testing.T) {
	mt, err := ParseMovementType(" purchase ")
	require.NoError(t, err)
	assert.Equal(t, MovementPurchase, mt)

	mt, err = ParseMovementType("transfer")
	require.NoError(t, err)
	assert.Equal(t, MovementTransfer, mt)

	_, err = ParseMovementType("TRANSFER_IN")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = ParseMovementType("steal")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestMovementType_IsOutbound(t *testing.T) {
	assert.True(t, MovementSale.IsOutbound())
	assert.True(t, MovementDamage.IsOutbound())
	assert.True(t, MovementTransferOut.IsOutbound())
	assert.False(t, MovementPurchase.IsOutbound())
	assert.False(t, MovementAdjustment.IsOutbound())
}

func TestEvaluateStockLevel(t *testing.T) {
	tests := []struct {
		name          string
		qty           int64
		threshold     int
		hasUnresolved bool
		want          AlertAction
	}{
		{"below threshold opens", 3, 10, false, AlertActionOpen},
		{"at threshold opens", 10, 10, false, AlertActionOpen},
		{"below threshold with open alert refreshes", 2, 10, true, AlertActionRefresh},
		{"restocked resolves", 11, 10, true, AlertActionResolve},
		{"healthy does nothing", 50, 10, false, AlertActionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateStockLevel(tt.qty, tt.threshold, tt.hasUnresolved))
		})
	}
}

func TestLowStockAlert_Lifecycle(t *testing.T) {
	item := newTestItem(t, 2)
	alert := NewLowStockAlert(item, 5)

	assert.Equal(t, AlertStatusOpen, alert.Status)
	assert.Equal(t, int64(2), alert.Quantity)
	assert.Equal(t, 5, alert.Threshold)

	user := uuid.New()
	require.NoError(t, alert.Acknowledge(user))
	assert.Equal(t, AlertStatusAcknowledged, alert.Status)
	assert.Equal(t, user, *alert.AcknowledgedBy)

	assert.ErrorIs(t, alert.Acknowledge(user), shared.ErrInvalidState)

	alert.Refresh(1)
	assert.Equal(t, int64(1), alert.Quantity)

	alert.Resolve()
	assert.Equal(t, AlertStatusResolved, alert.Status)
	assert.NotNil(t, alert.ResolvedAt)
}

func TestComputeForecast(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	productID := uuid.New()

	f := ComputeForecast(productID, 40, 60, 30, 30, 10, now)

	assert.Equal(t, "2", f.AverageDailyUsage.String())
	assert.Equal(t, int64(60), f.ProjectedDemand)
	require.NotNil(t, f.DaysUntilStockout)
	assert.Equal(t, 20, *f.DaysUntilStockout)
	assert.Equal(t, now.AddDate(0, 0, 20), *f.StockoutDate)
	assert.Equal(t, int64(30), f.SuggestedReorder)
}

func TestComputeForecast_RoundsDemandUp(t *testing.T) {
	f := ComputeForecast(uuid.New(), 100, 10, 30, 7, 0, time.Now())

	// 10/30 per day over 7 days is 2.33
	assert.Equal(t, int64(3), f.ProjectedDemand)
	assert.Equal(t, int64(0), f.SuggestedReorder)
	assert.Equal(t, 300, *f.DaysUntilStockout)
}

func TestComputeForecast_NoSales(t *testing.T) {
	f := ComputeForecast(uuid.New(), 5, 0, 0, 0, 10, time.Now())

	assert.Equal(t, DefaultLookbackDays, f.LookbackDays)
	assert.Equal(t, DefaultHorizonDays, f.HorizonDays)
	assert.Equal(t, int64(0), f.ProjectedDemand)
	assert.Nil(t, f.DaysUntilStockout)
	assert.Nil(t, f.StockoutDate)
	assert.Equal(t, int64(5), f.SuggestedReorder)
}
