package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstore/backend/internal/infrastructure/config"
)

func TestNewStores_FallsBackWhenRedisIsDown(t *testing.T) {
	stores, err := NewStores(context.Background(), config.RedisConfig{Host: "127.0.0.1", Port: 1})
	require.NoError(t, err)
	defer stores.Close()
	assert.Nil(t, stores.Client)
	assert.IsType(t, &InMemoryIdempotencyStore{}, stores.Idempotency)

	_, err = NewStores(context.Background(), config.RedisConfig{Host: "127.0.0.1", Port: 1}, WithInMemoryFallback(false))
	assert.Error(t, err)
}
