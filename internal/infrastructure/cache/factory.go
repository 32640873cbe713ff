package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/infrastructure/config"
)

// Stores bundles the Redis-backed components, or their in-process fallbacks
// when Redis is unreachable and fallback is allowed
type Stores struct {
	Client      *redis.Client
	Idempotency shared.IdempotencyStore
	JSON        JSONCache
}

// FactoryOption configures NewStores
type FactoryOption func(*factory)

type factory struct {
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// WithLogger sets the logger used to report fallbacks
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis is tolerated
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStores connects to Redis and builds the stores on the shared client
func NewStores(ctx context.Context, cfg config.RedisConfig, opts ...FactoryOption) (*Stores, error) {
	f := &factory{logger: zap.NewNop(), allowInMemoryFallback: true}
	for _, opt := range opts {
		opt(f)
	}

	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		if !f.allowInMemoryFallback {
			return nil, err
		}
		f.logger.Warn("Redis unavailable, using in-memory stores; state is not shared across instances",
			zap.String("addr", cfg.Addr()),
			zap.Error(err),
		)
		return &Stores{
			Idempotency: NewInMemoryIdempotencyStore(),
			JSON:        NewInMemoryJSONCache(),
		}, nil
	}

	return &Stores{
		Client:      client,
		Idempotency: NewRedisIdempotencyStore(client, ""),
		JSON:        NewRedisJSONCache(client, "cache:"),
	}, nil
}

// Close releases the Redis client or stops the in-memory cleanup loop
func (s *Stores) Close() error {
	if s.Client != nil {
		return s.Client.Close()
	}
	return s.Idempotency.Close()
}
