package partner

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstore/backend/internal/domain/loyalty"
	"github.com/smartstore/backend/internal/domain/shared"
)

func newTestCustomer(t *testing.T) *Customer {
	t.Helper()
	c, err := NewCustomer(uuid.New(), "jane@example.com", "", "Jane", "Doe")
	require.NoError(t, err)
	return c
}

func TestNewCustomer_RequiresContact(t *testing.T) {
	_, err := NewCustomer(uuid.New(), "", "", "Jane", "Doe")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	c, err := NewCustomer(uuid.New(), "", "+15551234567", "Jane", "Doe")
	require.NoError(t, err)
	assert.Equal(t, loyalty.TierBronze, c.Tier)
	assert.Equal(t, "Jane Doe", c.FullName())
}

func TestCustomer_EarnAndRedeem(t *testing.T) {
	c := newTestCustomer(t)

	require.NoError(t, c.EarnPoints(1200))
	assert.Equal(t, int64(1200), c.LoyaltyPoints)
	assert.Equal(t, int64(1200), c.LifetimePoints)
	assert.Equal(t, loyalty.TierSilver, c.Tier)

	require.NoError(t, c.RedeemPoints(200))
	assert.Equal(t, int64(1000), c.LoyaltyPoints)
	assert.Equal(t, int64(1200), c.LifetimePoints)
	assert.Equal(t, loyalty.TierSilver, c.Tier)

	err := c.RedeemPoints(5000)
	assert.ErrorIs(t, err, shared.ErrInsufficientBalance)
	assert.Equal(t, int64(1000), c.LoyaltyPoints)
}

func TestCustomer_AdjustPoints(t *testing.T) {
	c := newTestCustomer(t)

	require.NoError(t, c.AdjustPoints(100))
	assert.Equal(t, int64(100), c.LoyaltyPoints)

	assert.ErrorIs(t, c.AdjustPoints(-101), shared.ErrInsufficientBalance)
	require.NoError(t, c.AdjustPoints(-100))
	assert.Equal(t, int64(0), c.LoyaltyPoints)
	assert.Equal(t, int64(100), c.LifetimePoints)

	assert.ErrorIs(t, c.AdjustPoints(0), shared.ErrInvalidInput)
}

func TestCustomer_ReversePoints(t *testing.T) {
	c := newTestCustomer(t)
	require.NoError(t, c.EarnPoints(5200))
	require.NoError(t, c.RedeemPoints(5000))

	reversed := c.ReversePoints(1000)

	assert.Equal(t, int64(200), reversed)
	assert.Equal(t, int64(0), c.LoyaltyPoints)
	assert.Equal(t, int64(4200), c.LifetimePoints)
	assert.Equal(t, loyalty.TierSilver, c.Tier)
}

func TestCustomer_RecordOrder(t *testing.T) {
	c := newTestCustomer(t)
	at := time.Now()

	c.RecordOrder(decimal.NewFromInt(50), at)
	c.RecordOrder(decimal.NewFromInt(25), at)

	assert.True(t, decimal.NewFromInt(75).Equal(c.TotalSpent))
	assert.Equal(t, 2, c.OrderCount)
	assert.Equal(t, at, *c.LastOrderAt)
}

func TestWarehouse_DefaultCannotBeDeactivated(t *testing.T) {
	w, err := NewWarehouse(uuid.New(), "main", "Main", Address{City: "Austin"})
	require.NoError(t, err)
	assert.Equal(t, "MAIN", w.Code)

	w.IsDefault = true
	assert.ErrorIs(t, w.Deactivate(), shared.ErrInvalidState)

	w.IsDefault = false
	require.NoError(t, w.Deactivate())
	assert.False(t, w.IsActive())
}
