package recommendation

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Strategy names the source of a recommendation
type Strategy string

const (
	StrategyContentBased  Strategy = "CONTENT_BASED"
	StrategyCollaborative Strategy = "COLLABORATIVE"
	StrategyBestSeller    Strategy = "BEST_SELLER"
)

// Confidence per strategy
const (
	ConfidenceContentBased  = 0.6
	ConfidenceCollaborative = 0.8
	ConfidenceBestSeller    = 0.4
)

// Limits
const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// NormalizeLimit clamps a requested limit
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// ConfidenceOf returns the confidence assigned to a strategy
func ConfidenceOf(s Strategy) float64 {
	switch s {
	case StrategyCollaborative:
		return ConfidenceCollaborative
	case StrategyContentBased:
		return ConfidenceContentBased
	default:
		return ConfidenceBestSeller
	}
}

// Recommendation is a product suggested for a customer
type Recommendation struct {
	ProductID  uuid.UUID       `json:"product_id"`
	SKU        string          `json:"sku"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Currency   string          `json:"currency"`
	Strategy   Strategy        `json:"strategy"`
	Confidence float64         `json:"confidence"`
	Score      float64         `json:"score"`
}

// Merge combines candidate lists, keeping the highest-confidence entry per
// product, ordered by confidence then score, truncated to limit.
func Merge(limit int, lists ...[]Recommendation) []Recommendation {
	limit = NormalizeLimit(limit)
	best := make(map[uuid.UUID]Recommendation)
	for _, list := range lists {
		for _, r := range list {
			cur, ok := best[r.ProductID]
			if !ok || r.Confidence > cur.Confidence ||
				(r.Confidence == cur.Confidence && r.Score > cur.Score) {
				best[r.ProductID] = r
			}
		}
	}

	out := make([]Recommendation, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ProductID.String() < out[j].ProductID.String()
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Source produces candidates with the grouped purchase-history queries
type Source interface {
	ContentBased(ctx context.Context, tenantID, customerID uuid.UUID, limit int) ([]Recommendation, error)
	Collaborative(ctx context.Context, tenantID, customerID uuid.UUID, limit int) ([]Recommendation, error)
	BestSellers(ctx context.Context, tenantID, customerID uuid.UUID, limit int) ([]Recommendation, error)
}
