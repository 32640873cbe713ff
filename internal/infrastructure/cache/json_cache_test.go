package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedItem struct {
	SKU   string  `json:"sku"`
	Score float64 `json:"score"`
}

func TestInMemoryJSONCache(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryJSONCache()

	var got []cachedItem
	found, err := c.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)

	want := []cachedItem{{SKU: "MUG", Score: 3}}
	require.NoError(t, c.Set(ctx, "recs", want, time.Minute))

	found, err = c.Get(ctx, "recs", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)

	require.NoError(t, c.Delete(ctx, "recs"))
	found, err = c.Get(ctx, "recs", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "short", want, time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	found, err = c.Get(ctx, "short", &got)
	require.NoError(t, err)
	assert.False(t, found)
}
