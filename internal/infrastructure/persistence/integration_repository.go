package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartstore/backend/internal/domain/integration"
	"github.com/smartstore/backend/internal/domain/shared"
)

// GormIntegrationRepository implements integration.IntegrationRepository
type GormIntegrationRepository struct {
	db *gorm.DB
}

// NewGormIntegrationRepository creates a new GormIntegrationRepository
func NewGormIntegrationRepository(db *gorm.DB) *GormIntegrationRepository {
	return &GormIntegrationRepository{db: db}
}

func (r *GormIntegrationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*integration.Integration, error) {
	var i integration.Integration
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).First(&i, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Integration")
	}
	return &i, nil
}

// FindAll lists integrations. Filters: platform, status.
func (r *GormIntegrationRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]integration.Integration, int64, error) {
	query := conn(ctx, r.db).Model(&integration.Integration{}).
		Scopes(tenantScope(tenantID), search(filter.Search, "name"))
	for key, value := range filter.Filters {
		switch key {
		case "platform", "status":
			query = query.Where(key+" = ?", value)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var is []integration.Integration
	if err := query.Scopes(paginate(filter, integrationSortFields, "created_at")).Find(&is).Error; err != nil {
		return nil, 0, err
	}
	return is, total, nil
}

func (r *GormIntegrationRepository) FindActiveByPlatform(ctx context.Context, tenantID uuid.UUID, platform integration.Platform) (*integration.Integration, error) {
	var i integration.Integration
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).
		Where("platform = ? AND status <> ?", platform, integration.StatusInactive).
		Order("created_at").
		First(&i).Error; err != nil {
		return nil, notFound(err, "Integration")
	}
	return &i, nil
}

// FindByCredential finds the integration owning a credential value, e.g. the
// WhatsApp phone number id carried by an inbound webhook
func (r *GormIntegrationRepository) FindByCredential(ctx context.Context, platform integration.Platform, key, value string) (*integration.Integration, error) {
	db := conn(ctx, r.db)
	expr := "credentials ->> ? = ?"
	args := []interface{}{key, value}
	if db.Dialector.Name() == "sqlite" {
		expr = "json_extract(credentials, ?) = ?"
		args = []interface{}{"$." + key, value}
	}

	var i integration.Integration
	if err := db.Where("platform = ?", platform).
		Where(expr, args...).
		Order("created_at").
		First(&i).Error; err != nil {
		return nil, notFound(err, "Integration")
	}
	return &i, nil
}

func (r *GormIntegrationRepository) ExistsByName(ctx context.Context, tenantID uuid.UUID, platform integration.Platform, name string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&integration.Integration{}).
		Scopes(tenantScope(tenantID)).
		Where("platform = ? AND name = ?", platform, name).
		Count(&count).Error
	return count > 0, err
}

func (r *GormIntegrationRepository) Save(ctx context.Context, i *integration.Integration) error {
	return translate(conn(ctx, r.db).Save(i).Error, "Integration name already exists")
}

func (r *GormIntegrationRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := conn(ctx, r.db).Scopes(tenantScope(tenantID)).Delete(&integration.Integration{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NotFound("Integration")
	}
	return nil
}

var _ integration.IntegrationRepository = (*GormIntegrationRepository)(nil)
