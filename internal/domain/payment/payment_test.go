package payment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstore/backend/internal/domain/shared"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewPayment(t *testing.T) {
	_, err := NewPayment(uuid.New(), uuid.New(), ProviderStripe, decimal.Zero, "USD")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	p, err := NewPayment(uuid.New(), uuid.New(), ProviderStripe, d("12.50"), "eur")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, "EUR", p.Currency)
}

func TestPayment_MarkSucceededIsIdempotent(t *testing.T) {
	p, err := NewPayment(uuid.New(), uuid.New(), ProviderPayPal, d("10"), "USD")
	require.NoError(t, err)

	changed, err := p.MarkSucceeded()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NotNil(t, p.SucceededAt)

	changed, err = p.MarkSucceeded()
	require.NoError(t, err)
	assert.False(t, changed)

	assert.ErrorIs(t, p.MarkFailed("late decline"), shared.ErrInvalidState)
}

func TestPayment_Refunds(t *testing.T) {
	p, err := NewPayment(uuid.New(), uuid.New(), ProviderStripe, d("100"), "USD")
	require.NoError(t, err)

	assert.ErrorIs(t, p.ValidateRefund(d("10")), shared.ErrInvalidState)

	_, err = p.MarkSucceeded()
	require.NoError(t, err)

	assert.ErrorIs(t, p.ValidateRefund(d("100.01")), shared.ErrInvalidInput)
	assert.ErrorIs(t, p.ValidateRefund(d("-1")), shared.ErrInvalidInput)

	require.NoError(t, p.RecordRefund(d("40")))
	assert.Equal(t, StatusPartiallyRefunded, p.Status)
	assert.True(t, d("60").Equal(p.Refundable()))

	require.NoError(t, p.RecordRefund(d("60")))
	assert.Equal(t, StatusRefunded, p.Status)
	assert.True(t, decimal.Zero.Equal(p.Refundable()))
}

func TestPayment_SyncRefundedTotal(t *testing.T) {
	p, err := NewPayment(uuid.New(), uuid.New(), ProviderStripe, d("50"), "USD")
	require.NoError(t, err)
	_, err = p.MarkSucceeded()
	require.NoError(t, err)

	delta, err := p.SyncRefundedTotal(d("20"))
	require.NoError(t, err)
	assert.True(t, d("20").Equal(delta))

	delta, err = p.SyncRefundedTotal(d("20"))
	require.NoError(t, err)
	assert.True(t, delta.IsZero())

	delta, err = p.SyncRefundedTotal(d("80"))
	require.NoError(t, err)
	assert.True(t, d("30").Equal(delta))
	assert.Equal(t, StatusRefunded, p.Status)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(1999), ToMinorUnits(d("19.99"), "usd"))
	assert.Equal(t, int64(1000), ToMinorUnits(d("1000"), "JPY"))
	assert.True(t, d("19.99").Equal(FromMinorUnits(1999, "USD")))
	assert.True(t, d("1000").Equal(FromMinorUnits(1000, "jpy")))
	assert.Equal(t, "10.50", FormatAmount(d("10.5"), "USD"))
	assert.Equal(t, "500", FormatAmount(d("500"), "KRW"))
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider("paypal")
	require.NoError(t, err)
	assert.Equal(t, ProviderPayPal, p)

	_, err = ParseProvider("bitcoin")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
