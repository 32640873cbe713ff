package marketing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/smartstore/backend/internal/domain/shared"
)

// CouponRepository persists coupons
type CouponRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Coupon, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Coupon, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Coupon, int64, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
	Save(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	// IncrementUsage consumes one use. It fails with INVALID_STATE when the
	// usage limit has been reached.
	IncrementUsage(ctx context.Context, tenantID, id uuid.UUID) error
	// DecrementUsage releases one use
	DecrementUsage(ctx context.Context, tenantID, id uuid.UUID) error
}

// CampaignRepository persists campaigns
type CampaignRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Campaign, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Campaign, int64, error)
	// FindDue returns scheduled campaigns of all tenants due at now
	FindDue(ctx context.Context, now time.Time, limit int) ([]Campaign, error)
	Save(ctx context.Context, c *Campaign) error
	// SaveWithLock updates the campaign if Version still matches
	SaveWithLock(ctx context.Context, c *Campaign) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
