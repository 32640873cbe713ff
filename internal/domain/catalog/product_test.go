package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstore/backend/internal/domain/shared"
)

func newTestProduct(t *testing.T) *Product {
	t.Helper()
	p, err := NewProduct(uuid.New(), " tee-01 ", "T-Shirt", decimal.NewFromInt(20), "usd")
	require.NoError(t, err)
	return p
}

func TestNewProduct(t *testing.T) {
	p := newTestProduct(t)
	assert.Equal(t, "TEE-01", p.SKU)
	assert.Equal(t, "USD", p.Currency)
	assert.Equal(t, ProductStatusActive, p.Status)
	assert.True(t, p.IsSellable())

	tests := []struct {
		name     string
		sku      string
		prodName string
		price    decimal.Decimal
		currency string
	}{
		{"empty sku", "", "X", decimal.NewFromInt(1), "USD"},
		{"empty name", "X1", " ", decimal.NewFromInt(1), "USD"},
		{"negative price", "X1", "X", decimal.NewFromInt(-1), "USD"},
		{"bad currency", "X1", "X", decimal.NewFromInt(1), "US"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProduct(uuid.New(), tt.sku, tt.prodName, tt.price, tt.currency)
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
		})
	}
}

func TestProduct_Variants(t *testing.T) {
	p := newTestProduct(t)
	v1Price := decimal.NewFromInt(25)

	v1, err := p.AddVariant("tee-01-l", "Large", map[string]string{"size": "L"}, &v1Price)
	require.NoError(t, err)
	assert.Equal(t, "TEE-01-L", v1.SKU)
	v1ID := v1.ID

	_, err = p.AddVariant("TEE-01-L", "Large again", nil, nil)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	_, err = p.AddVariant("TEE-01", "Same as product", nil, nil)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	v2, err := p.AddVariant("TEE-01-S", "Small", nil, nil)
	require.NoError(t, err)
	v2ID := v2.ID

	line, err := p.Resolve(&v1ID)
	require.NoError(t, err)
	assert.Equal(t, "TEE-01-L", line.SKU)
	assert.Equal(t, "T-Shirt - Large", line.Name)
	assert.True(t, v1Price.Equal(line.UnitPrice))

	line, err = p.Resolve(&v2ID)
	require.NoError(t, err)
	assert.True(t, p.Price.Equal(line.UnitPrice))

	line, err = p.Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, "TEE-01", line.SKU)

	require.NoError(t, p.RemoveVariant(v1ID))
	assert.Nil(t, p.Variant(v1ID))
	assert.ErrorIs(t, p.RemoveVariant(v1ID), shared.ErrNotFound)

	missing := uuid.New()
	_, err = p.Resolve(&missing)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestProduct_Threshold(t *testing.T) {
	p := newTestProduct(t)
	assert.Equal(t, 10, p.Threshold(10))

	five := 5
	require.NoError(t, p.SetLowStockThreshold(&five))
	assert.Equal(t, 5, p.Threshold(10))

	neg := -1
	assert.ErrorIs(t, p.SetLowStockThreshold(&neg), shared.ErrInvalidInput)
}

func TestProduct_TouchBumpsVersion(t *testing.T) {
	p := newTestProduct(t)
	v := p.Version

	require.NoError(t, p.UpdatePricing(decimal.NewFromInt(30), decimal.NewFromInt(12)))
	assert.Equal(t, v+1, p.Version)

	require.NoError(t, p.SetStatus(ProductStatusArchived))
	assert.False(t, p.IsSellable())
	assert.ErrorIs(t, p.SetStatus(ProductStatus("GONE")), shared.ErrInvalidInput)
}
