package recommendation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/partner"
	"github.com/smartstore/backend/internal/domain/recommendation"
	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/domain/trade"
	"github.com/smartstore/backend/internal/infrastructure/cache"
)

// DefaultCacheTTL is how long a customer's recommendations are reused
const DefaultCacheTTL = 10 * time.Minute

// RecommendationResponse lists the suggestions for a customer
type RecommendationResponse struct {
	CustomerID uuid.UUID                       `json:"customer_id"`
	Items      []recommendation.Recommendation `json:"items"`
	Cached     bool                            `json:"cached"`
}

// RecommendationService suggests products from purchase history
type RecommendationService struct {
	source       recommendation.Source
	customerRepo partner.CustomerRepository
	cache        cache.JSONCache
	ttl          time.Duration
	logger       *zap.Logger
}

// NewRecommendationService creates a new RecommendationService. A nil cache
// disables caching.
func NewRecommendationService(source recommendation.Source, customerRepo partner.CustomerRepository, jsonCache cache.JSONCache, logger *zap.Logger) *RecommendationService {
	return &RecommendationService{
		source:       source,
		customerRepo: customerRepo,
		cache:        jsonCache,
		ttl:          DefaultCacheTTL,
		logger:       logger,
	}
}

// SetCacheTTL overrides how long results are cached
func (s *RecommendationService) SetCacheTTL(ttl time.Duration) {
	if ttl > 0 {
		s.ttl = ttl
	}
}

func cacheKey(tenantID, customerID uuid.UUID) string {
	return fmt.Sprintf("recommendations:%s:%s", tenantID, customerID)
}

// ForCustomer returns up to limit products for a customer. The full merged
// list is cached so every limit shares one entry.
func (s *RecommendationService) ForCustomer(ctx context.Context, tenantID, customerID uuid.UUID, limit int) (*RecommendationResponse, error) {
	if _, err := s.customerRepo.FindByID(ctx, tenantID, customerID); err != nil {
		return nil, err
	}
	limit = recommendation.NormalizeLimit(limit)

	key := cacheKey(tenantID, customerID)
	if s.cache != nil {
		var cached []recommendation.Recommendation
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("Failed to read recommendation cache", zap.String("key", key), zap.Error(err))
		} else if found {
			return &RecommendationResponse{CustomerID: customerID, Items: truncate(cached, limit), Cached: true}, nil
		}
	}

	items, err := s.compute(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, items, s.ttl); err != nil {
			s.logger.Warn("Failed to write recommendation cache", zap.String("key", key), zap.Error(err))
		}
	}
	return &RecommendationResponse{CustomerID: customerID, Items: truncate(items, limit)}, nil
}

// compute merges both history strategies, falling back to best sellers when
// neither has anything
func (s *RecommendationService) compute(ctx context.Context, tenantID, customerID uuid.UUID) ([]recommendation.Recommendation, error) {
	content, err := s.source.ContentBased(ctx, tenantID, customerID, recommendation.MaxLimit)
	if err != nil {
		return nil, err
	}
	collaborative, err := s.source.Collaborative(ctx, tenantID, customerID, recommendation.MaxLimit)
	if err != nil {
		return nil, err
	}
	if len(content) == 0 && len(collaborative) == 0 {
		best, err := s.source.BestSellers(ctx, tenantID, customerID, recommendation.MaxLimit)
		if err != nil {
			return nil, err
		}
		return recommendation.Merge(recommendation.MaxLimit, best), nil
	}
	return recommendation.Merge(recommendation.MaxLimit, content, collaborative), nil
}

// Invalidate drops a customer's cached recommendations
func (s *RecommendationService) Invalidate(ctx context.Context, tenantID, customerID uuid.UUID) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, cacheKey(tenantID, customerID))
}

// OrderCreatedHandler refreshes the buyer's recommendations after a purchase
func (s *RecommendationService) OrderCreatedHandler() *shared.EventHandlerFunc {
	return &shared.EventHandlerFunc{
		Types: []string{trade.EventTypeOrderCreated},
		Fn: func(ctx context.Context, event shared.DomainEvent) error {
			created, ok := event.(*trade.OrderCreatedEvent)
			if !ok {
				return fmt.Errorf("unexpected event %T", event)
			}
			if err := s.Invalidate(ctx, created.TenantID(), created.CustomerID); err != nil {
				s.logger.Warn("Failed to invalidate recommendations",
					zap.String("customer_id", created.CustomerID.String()),
					zap.Error(err))
			}
			return nil
		},
	}
}

func truncate(items []recommendation.Recommendation, limit int) []recommendation.Recommendation {
	if items == nil {
		return []recommendation.Recommendation{}
	}
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
