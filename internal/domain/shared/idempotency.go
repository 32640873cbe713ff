package shared

import (
	"context"
	"strings"
	"time"
)

// IdempotencyStore remembers keys of deliveries that were already handled.
// Webhook receivers use it as a fast first check before the durable record.
type IdempotencyStore interface {
	// MarkProcessed claims key for ttl. It reports false when the key was
	// already claimed and has not expired.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	// Release drops a claim so the key can be processed again
	Release(ctx context.Context, key string) error
	Close() error
}

// DedupKey namespaces an external delivery id by its source, e.g.
// "stripe:evt_123"
func DedupKey(source, id string) string {
	return strings.ToLower(source) + ":" + id
}
