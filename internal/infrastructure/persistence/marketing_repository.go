package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartstore/backend/internal/domain/marketing"
	"github.com/smartstore/backend/internal/domain/shared"
)

// GormCouponRepository implements marketing.CouponRepository
type GormCouponRepository struct {
	db *gorm.DB
}

// NewGormCouponRepository creates a new GormCouponRepository
func NewGormCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

func (r *GormCouponRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*marketing.Coupon, error) {
	var c marketing.Coupon
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Coupon")
	}
	return &c, nil
}

func (r *GormCouponRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*marketing.Coupon, error) {
	var c marketing.Coupon
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).
		First(&c, "code = ?", marketing.NormalizeCode(code)).Error; err != nil {
		return nil, notFound(err, "Coupon")
	}
	return &c, nil
}

// FindAll lists coupons. Filters: active, type.
func (r *GormCouponRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]marketing.Coupon, int64, error) {
	query := conn(ctx, r.db).Model(&marketing.Coupon{}).
		Scopes(tenantScope(tenantID), search(filter.Search, "code", "description"))
	for key, value := range filter.Filters {
		switch key {
		case "active", "type":
			query = query.Where(key+" = ?", value)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var coupons []marketing.Coupon
	if err := query.Scopes(paginate(filter, couponSortFields, "created_at")).Find(&coupons).Error; err != nil {
		return nil, 0, err
	}
	return coupons, total, nil
}

func (r *GormCouponRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&marketing.Coupon{}).
		Scopes(tenantScope(tenantID)).
		Where("code = ?", marketing.NormalizeCode(code)).
		Count(&count).Error
	return count > 0, err
}

func (r *GormCouponRepository) Save(ctx context.Context, c *marketing.Coupon) error {
	return translate(conn(ctx, r.db).Save(c).Error, "Coupon code already exists")
}

func (r *GormCouponRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := conn(ctx, r.db).Scopes(tenantScope(tenantID)).Delete(&marketing.Coupon{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NotFound("Coupon")
	}
	return nil
}

// IncrementUsage consumes one use atomically; the limit check happens in the
// UPDATE so concurrent redemptions cannot overshoot it
func (r *GormCouponRepository) IncrementUsage(ctx context.Context, tenantID, id uuid.UUID) error {
	db := conn(ctx, r.db)
	result := db.Model(&marketing.Coupon{}).
		Scopes(tenantScope(tenantID)).
		Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", id).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}

	if _, err := r.FindByID(ctx, tenantID, id); err != nil {
		return err
	}
	return shared.InvalidState("Coupon usage limit reached")
}

func (r *GormCouponRepository) DecrementUsage(ctx context.Context, tenantID, id uuid.UUID) error {
	return conn(ctx, r.db).Unscoped().Model(&marketing.Coupon{}).
		Scopes(tenantScope(tenantID)).
		Where("id = ? AND used_count > 0", id).
		UpdateColumn("used_count", gorm.Expr("used_count - 1")).Error
}

// GormCampaignRepository implements marketing.CampaignRepository
type GormCampaignRepository struct {
	db *gorm.DB
}

// NewGormCampaignRepository creates a new GormCampaignRepository
func NewGormCampaignRepository(db *gorm.DB) *GormCampaignRepository {
	return &GormCampaignRepository{db: db}
}

func (r *GormCampaignRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*marketing.Campaign, error) {
	var c marketing.Campaign
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Campaign")
	}
	return &c, nil
}

// FindAll lists campaigns. Filters: status, channel.
func (r *GormCampaignRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]marketing.Campaign, int64, error) {
	query := conn(ctx, r.db).Model(&marketing.Campaign{}).
		Scopes(tenantScope(tenantID), search(filter.Search, "name"))
	for key, value := range filter.Filters {
		switch key {
		case "status", "channel":
			query = query.Where(key+" = ?", value)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var campaigns []marketing.Campaign
	if err := query.Scopes(paginate(filter, campaignSortFields, "created_at")).Find(&campaigns).Error; err != nil {
		return nil, 0, err
	}
	return campaigns, total, nil
}

// FindDue returns scheduled campaigns of every tenant whose time has come
func (r *GormCampaignRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]marketing.Campaign, error) {
	var campaigns []marketing.Campaign
	err := conn(ctx, r.db).
		Where("status = ? AND scheduled_at <= ?", marketing.CampaignStatusScheduled, now).
		Order("scheduled_at").
		Limit(limit).
		Find(&campaigns).Error
	return campaigns, err
}

func (r *GormCampaignRepository) Save(ctx context.Context, c *marketing.Campaign) error {
	return conn(ctx, r.db).Save(c).Error
}

// SaveWithLock updates the campaign under optimistic locking so that two
// schedulers cannot both claim it
func (r *GormCampaignRepository) SaveWithLock(ctx context.Context, c *marketing.Campaign) error {
	return updateVersioned(conn(ctx, r.db), c, &c.BaseAggregateRoot, c.TenantID)
}

func (r *GormCampaignRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := conn(ctx, r.db).Scopes(tenantScope(tenantID)).Delete(&marketing.Campaign{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NotFound("Campaign")
	}
	return nil
}

var (
	_ marketing.CouponRepository   = (*GormCouponRepository)(nil)
	_ marketing.CampaignRepository = (*GormCampaignRepository)(nil)
)
