//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/smartstore/backend/internal/infrastructure/config"
)

func startRedis(t *testing.T) config.RedisConfig {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)
	return config.RedisConfig{Host: host, Port: port.Int()}
}

func TestRedisStores(t *testing.T) {
	ctx := context.Background()
	stores, err := NewStores(ctx, startRedis(t), WithInMemoryFallback(false))
	require.NoError(t, err)
	defer stores.Close()
	require.NotNil(t, stores.Client)

	isNew, err := stores.Idempotency.MarkProcessed(ctx, "STRIPE:evt_1", time.Minute)
	require.NoError(t, err)
	assert.True(t, isNew)
	isNew, err = stores.Idempotency.MarkProcessed(ctx, "STRIPE:evt_1", time.Minute)
	require.NoError(t, err)
	assert.False(t, isNew)
	require.NoError(t, stores.Idempotency.Release(ctx, "STRIPE:evt_1"))
	isNew, err = stores.Idempotency.MarkProcessed(ctx, "STRIPE:evt_1", time.Minute)
	require.NoError(t, err)
	assert.True(t, isNew)

	want := []cachedItem{{SKU: "CAP", Score: 5}}
	require.NoError(t, stores.JSON.Set(ctx, "recs:1", want, time.Minute))
	var got []cachedItem
	found, err := stores.JSON.Get(ctx, "recs:1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)
}
