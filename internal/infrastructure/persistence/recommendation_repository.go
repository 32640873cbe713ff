package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smartstore/backend/internal/domain/catalog"
	"github.com/smartstore/backend/internal/domain/recommendation"
	"github.com/smartstore/backend/internal/domain/trade"
)

// GormRecommendationSource implements recommendation.Source with grouped
// queries over order history. Cancelled orders never count.
type GormRecommendationSource struct {
	db *gorm.DB
}

// NewGormRecommendationSource creates a new GormRecommendationSource
func NewGormRecommendationSource(db *gorm.DB) *GormRecommendationSource {
	return &GormRecommendationSource{db: db}
}

const purchasedByCustomer = `
	SELECT pi.product_id FROM order_items pi
	JOIN orders po ON po.id = pi.order_id
	WHERE po.tenant_id = @tenant AND po.customer_id = @customer AND po.status <> @cancelled`

const contentBasedSQL = `
SELECT p.id AS product_id, p.sku, p.name, p.price, p.currency, COUNT(DISTINCT o.id) AS score
FROM products p
LEFT JOIN order_items oi ON oi.product_id = p.id
LEFT JOIN orders o ON o.id = oi.order_id AND o.status <> @cancelled
WHERE p.tenant_id = @tenant AND p.status = @active AND p.deleted_at IS NULL
  AND p.category_id IN (
	SELECT bp.category_id FROM order_items bi
	JOIN orders bo ON bo.id = bi.order_id
	JOIN products bp ON bp.id = bi.product_id
	WHERE bo.tenant_id = @tenant AND bo.customer_id = @customer AND bo.status <> @cancelled
	  AND bp.category_id IS NOT NULL)
  AND p.id NOT IN (` + purchasedByCustomer + `)
GROUP BY p.id, p.sku, p.name, p.price, p.currency
ORDER BY score DESC, p.id
LIMIT @limit`

const collaborativeSQL = `
SELECT p.id AS product_id, p.sku, p.name, p.price, p.currency, COUNT(DISTINCT o.customer_id) AS score
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
JOIN products p ON p.id = oi.product_id
WHERE o.tenant_id = @tenant AND o.status <> @cancelled AND o.customer_id <> @customer
  AND p.status = @active AND p.deleted_at IS NULL
  AND o.customer_id IN (
	SELECT co.customer_id FROM order_items ci
	JOIN orders co ON co.id = ci.order_id
	WHERE co.tenant_id = @tenant AND co.status <> @cancelled AND co.customer_id <> @customer
	  AND ci.product_id IN (` + purchasedByCustomer + `))
  AND oi.product_id NOT IN (` + purchasedByCustomer + `)
GROUP BY p.id, p.sku, p.name, p.price, p.currency
ORDER BY score DESC, p.id
LIMIT @limit`

const bestSellersSQL = `
SELECT p.id AS product_id, p.sku, p.name, p.price, p.currency, SUM(oi.quantity) AS score
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
JOIN products p ON p.id = oi.product_id
WHERE o.tenant_id = @tenant AND o.status <> @cancelled
  AND p.status = @active AND p.deleted_at IS NULL
GROUP BY p.id, p.sku, p.name, p.price, p.currency
ORDER BY score DESC, p.id
LIMIT @limit`

type recommendationRow struct {
	ProductID uuid.UUID
	SKU       string
	Name      string
	Price     decimal.Decimal
	Currency  string
	Score     float64
}

func (s *GormRecommendationSource) query(ctx context.Context, sql string, strategy recommendation.Strategy, tenantID, customerID uuid.UUID, limit int) ([]recommendation.Recommendation, error) {
	var rows []recommendationRow
	err := conn(ctx, s.db).Raw(sql, map[string]interface{}{
		"tenant":    tenantID,
		"customer":  customerID,
		"cancelled": trade.OrderStatusCancelled,
		"active":    catalog.ProductStatusActive,
		"limit":     recommendation.NormalizeLimit(limit),
	}).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	confidence := recommendation.ConfidenceOf(strategy)
	out := make([]recommendation.Recommendation, 0, len(rows))
	for _, r := range rows {
		out = append(out, recommendation.Recommendation{
			ProductID:  r.ProductID,
			SKU:        r.SKU,
			Name:       r.Name,
			Price:      r.Price,
			Currency:   r.Currency,
			Strategy:   strategy,
			Confidence: confidence,
			Score:      r.Score,
		})
	}
	return out, nil
}

// ContentBased suggests unpurchased products from categories the customer bought from
func (s *GormRecommendationSource) ContentBased(ctx context.Context, tenantID, customerID uuid.UUID, limit int) ([]recommendation.Recommendation, error) {
	return s.query(ctx, contentBasedSQL, recommendation.StrategyContentBased, tenantID, customerID, limit)
}

// Collaborative suggests what co-buyers purchased that the customer has not
func (s *GormRecommendationSource) Collaborative(ctx context.Context, tenantID, customerID uuid.UUID, limit int) ([]recommendation.Recommendation, error) {
	return s.query(ctx, collaborativeSQL, recommendation.StrategyCollaborative, tenantID, customerID, limit)
}

// BestSellers ranks the tenant's products by units sold
func (s *GormRecommendationSource) BestSellers(ctx context.Context, tenantID, customerID uuid.UUID, limit int) ([]recommendation.Recommendation, error) {
	return s.query(ctx, bestSellersSQL, recommendation.StrategyBestSeller, tenantID, customerID, limit)
}

var _ recommendation.Source = (*GormRecommendationSource)(nil)
