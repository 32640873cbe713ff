package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstore/backend/internal/domain/catalog"
	"github.com/smartstore/backend/internal/domain/recommendation"
)

type recommendationFixture struct {
	tenantID uuid.UUID
	customer uuid.UUID
	// products bought by customer
	bought   *catalog.Product
	sibling  *catalog.Product
	coBought *catalog.Product
	popular  *catalog.Product
	source   *GormRecommendationSource
}

func newRecommendationFixture(t *testing.T) recommendationFixture {
	t.Helper()
	ctx := context.Background()
	db := newTestDB(t)
	products := NewGormProductRepository(db)
	orders := NewGormOrderRepository(db)

	f := recommendationFixture{tenantID: uuid.New(), customer: uuid.New(), source: NewGormRecommendationSource(db)}
	category, err := catalog.NewCategory(f.tenantID, "Shoes", "", nil)
	require.NoError(t, err)
	require.NoError(t, NewGormCategoryRepository(db).Save(ctx, category))

	mk := func(sku string, categoryID *uuid.UUID) *catalog.Product {
		p := newTestProduct(t, f.tenantID, sku)
		p.CategoryID = categoryID
		require.NoError(t, products.Save(ctx, p))
		return p
	}
	f.bought = mk("RUNNER", &category.ID)
	f.sibling = mk("TRAIL", &category.ID)
	f.coBought = mk("SOCKS", nil)
	f.popular = mk("CAP", nil)

	// customer bought the runner; a co-buyer bought runner and socks;
	// strangers made the cap the best seller
	require.NoError(t, orders.Create(ctx, newTestOrder(t, f.tenantID, f.customer, f.bought.ID)))
	require.NoError(t, orders.Create(ctx, newTestOrder(t, f.tenantID, uuid.New(), f.bought.ID, f.coBought.ID)))
	require.NoError(t, orders.Create(ctx, newTestOrder(t, f.tenantID, uuid.New(), f.sibling.ID)))
	require.NoError(t, orders.Create(ctx, newTestOrder(t, f.tenantID, uuid.New(), f.popular.ID, f.popular.ID)))
	require.NoError(t, orders.Create(ctx, newTestOrder(t, f.tenantID, uuid.New(), f.coBought.ID, f.popular.ID)))
	return f
}

func productIDs(recs []recommendation.Recommendation) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ProductID)
	}
	return ids
}

func TestGormRecommendationSource(t *testing.T) {
	ctx := context.Background()
	f := newRecommendationFixture(t)

	t.Run("content based stays in purchased categories", func(t *testing.T) {
		recs, err := f.source.ContentBased(ctx, f.tenantID, f.customer, 10)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{f.sibling.ID}, productIDs(recs))
		assert.Equal(t, recommendation.StrategyContentBased, recs[0].Strategy)
	})

	t.Run("collaborative uses co-buyers", func(t *testing.T) {
		recs, err := f.source.Collaborative(ctx, f.tenantID, f.customer, 10)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{f.coBought.ID}, productIDs(recs))
		assert.Equal(t, "SOCKS", recs[0].SKU)
	})

	t.Run("best sellers rank by units", func(t *testing.T) {
		recs, err := f.source.BestSellers(ctx, f.tenantID, f.customer, 1)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, f.popular.ID, recs[0].ProductID)
	})

	t.Run("other tenants see nothing", func(t *testing.T) {
		recs, err := f.source.BestSellers(ctx, uuid.New(), f.customer, 10)
		require.NoError(t, err)
		assert.Empty(t, recs)
	})
}
