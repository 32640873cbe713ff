package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstore/backend/internal/domain/catalog"
	"github.com/smartstore/backend/internal/domain/shared"
)

func newTestProduct(t *testing.T, tenantID uuid.UUID, sku string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(tenantID, sku, "Product "+sku, decimal.NewFromInt(25), "USD")
	require.NoError(t, err)
	return p
}

func TestGormProductRepository_SaveReconcilesVariants(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	repo := NewGormProductRepository(newTestDB(t))

	product := newTestProduct(t, tenantID, "TSHIRT")
	small, err := product.AddVariant("TSHIRT-S", "Small", map[string]string{"size": "S"}, nil)
	require.NoError(t, err)
	_, err = product.AddVariant("TSHIRT-M", "Medium", map[string]string{"size": "M"}, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, product))

	found, err := repo.FindByID(ctx, tenantID, product.ID)
	require.NoError(t, err)
	assert.Len(t, found.Variants, 2)

	require.NoError(t, found.RemoveVariant(small.ID))
	require.NoError(t, repo.Save(ctx, found))

	found, err = repo.FindByID(ctx, tenantID, product.ID)
	require.NoError(t, err)
	require.Len(t, found.Variants, 1)
	assert.Equal(t, "TSHIRT-M", found.Variants[0].SKU)
}

func TestGormProductRepository_SKUExists(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	repo := NewGormProductRepository(newTestDB(t))

	product := newTestProduct(t, tenantID, "MUG")
	_, err := product.AddVariant("MUG-RED", "Red", nil, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, product))

	tests := []struct {
		name    string
		tenant  uuid.UUID
		sku     string
		exclude *uuid.UUID
		want    bool
	}{
		{"product sku", tenantID, "MUG", nil, true},
		{"variant sku", tenantID, "MUG-RED", nil, true},
		{"unknown sku", tenantID, "PLATE", nil, false},
		{"other tenant", uuid.New(), "MUG", nil, false},
		{"excluding owner", tenantID, "MUG-RED", &product.ID, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exists, err := repo.SKUExists(ctx, tt.tenant, tt.sku, tt.exclude)
			require.NoError(t, err)
			assert.Equal(t, tt.want, exists)
		})
	}

	t.Run("deleted products release their sku", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, tenantID, product.ID))
		exists, err := repo.SKUExists(ctx, tenantID, "MUG-RED", nil)
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = repo.FindByID(ctx, tenantID, product.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormProductRepository_DuplicateSKU(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	repo := NewGormProductRepository(newTestDB(t))

	require.NoError(t, repo.Save(ctx, newTestProduct(t, tenantID, "LAMP")))
	err := repo.Save(ctx, newTestProduct(t, tenantID, "LAMP"))
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	assert.NoError(t, repo.Save(ctx, newTestProduct(t, uuid.New(), "LAMP")))
}

func TestGormProductRepository_FindAllIsTenantScoped(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	repo := NewGormProductRepository(newTestDB(t))

	require.NoError(t, repo.Save(ctx, newTestProduct(t, tenantID, "A-100")))
	require.NoError(t, repo.Save(ctx, newTestProduct(t, tenantID, "B-200")))
	require.NoError(t, repo.Save(ctx, newTestProduct(t, uuid.New(), "A-300")))

	products, total, err := repo.FindAll(ctx, tenantID, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, products, 2)

	filter := shared.DefaultFilter()
	filter.Search = "a-1"
	products, total, err = repo.FindAll(ctx, tenantID, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, products, 1)
	assert.Equal(t, "A-100", products[0].SKU)
}
