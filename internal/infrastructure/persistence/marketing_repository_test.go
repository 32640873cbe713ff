package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstore/backend/internal/domain/marketing"
	"github.com/smartstore/backend/internal/domain/shared"
)

func TestGormCouponRepository_Usage(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	repo := NewGormCouponRepository(newTestDB(t))

	coupon, err := marketing.NewCoupon(tenantID, "save10", marketing.CouponTypePercentage, decimal.NewFromInt(10))
	require.NoError(t, err)
	limit := int64(2)
	coupon.UsageLimit = &limit
	require.NoError(t, repo.Save(ctx, coupon))

	require.NoError(t, repo.IncrementUsage(ctx, tenantID, coupon.ID))
	require.NoError(t, repo.IncrementUsage(ctx, tenantID, coupon.ID))

	err = repo.IncrementUsage(ctx, tenantID, coupon.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	found, err := repo.FindByCode(ctx, tenantID, "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, int64(2), found.UsedCount)

	require.NoError(t, repo.DecrementUsage(ctx, tenantID, coupon.ID))
	require.NoError(t, repo.IncrementUsage(ctx, tenantID, coupon.ID))

	err = repo.IncrementUsage(ctx, uuid.New(), coupon.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormCouponRepository_DecrementNeverGoesNegative(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	repo := NewGormCouponRepository(newTestDB(t))

	coupon, err := marketing.NewCoupon(tenantID, "SHIPFREE", marketing.CouponTypeFreeShipping, decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, coupon))

	require.NoError(t, repo.DecrementUsage(ctx, tenantID, coupon.ID))
	found, err := repo.FindByID(ctx, tenantID, coupon.ID)
	require.NoError(t, err)
	assert.Zero(t, found.UsedCount)
}

func TestGormCampaignRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	repo := NewGormCampaignRepository(newTestDB(t))

	newCampaign := func(tenantID uuid.UUID, at time.Time) *marketing.Campaign {
		c, err := marketing.NewCampaign(tenantID, "Spring sale", marketing.CampaignChannelEmail, "Hello", "Hi {{.FirstName}}", marketing.Segment{})
		require.NoError(t, err)
		require.NoError(t, c.Schedule(at, at.Add(-time.Minute)))
		require.NoError(t, repo.Save(ctx, c))
		return c
	}

	due := newCampaign(uuid.New(), now.Add(-time.Minute))
	otherTenantDue := newCampaign(uuid.New(), now.Add(-2*time.Minute))
	newCampaign(uuid.New(), now.Add(time.Hour))

	t.Run("FindDue spans tenants", func(t *testing.T) {
		campaigns, err := repo.FindDue(ctx, now, 10)
		require.NoError(t, err)
		ids := []uuid.UUID{}
		for _, c := range campaigns {
			ids = append(ids, c.ID)
		}
		assert.ElementsMatch(t, []uuid.UUID{due.ID, otherTenantDue.ID}, ids)
	})

	t.Run("SaveWithLock lets one worker claim a campaign", func(t *testing.T) {
		first, err := repo.FindByID(ctx, due.TenantID, due.ID)
		require.NoError(t, err)
		second, err := repo.FindByID(ctx, due.TenantID, due.ID)
		require.NoError(t, err)

		require.NoError(t, first.StartSending(now))
		require.NoError(t, repo.SaveWithLock(ctx, first))

		require.NoError(t, second.StartSending(now))
		assert.ErrorIs(t, repo.SaveWithLock(ctx, second), shared.ErrConcurrencyConflict)

		campaigns, err := repo.FindDue(ctx, now, 10)
		require.NoError(t, err)
		require.Len(t, campaigns, 1)
		assert.Equal(t, otherTenantDue.ID, campaigns[0].ID)
	})
}
