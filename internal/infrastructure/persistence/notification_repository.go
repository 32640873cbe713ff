package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartstore/backend/internal/domain/notification"
	"github.com/smartstore/backend/internal/domain/shared"
)

// GormNotificationRepository implements notification.NotificationRepository
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*notification.Notification, error) {
	var n notification.Notification
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).First(&n, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Notification")
	}
	return &n, nil
}

// FindByProviderRef matches a delivery receipt to the outbound message
func (r *GormNotificationRepository) FindByProviderRef(ctx context.Context, channel notification.Channel, ref string) (*notification.Notification, error) {
	var n notification.Notification
	if err := conn(ctx, r.db).
		First(&n, "channel = ? AND direction = ? AND provider_ref = ?", channel, notification.DirectionOutbound, ref).Error; err != nil {
		return nil, notFound(err, "Notification")
	}
	return &n, nil
}

// FindAll lists notifications. Filters: channel, direction, status,
// campaign_id, user_id, unread.
func (r *GormNotificationRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]notification.Notification, int64, error) {
	query := conn(ctx, r.db).Model(&notification.Notification{}).
		Scopes(tenantScope(tenantID), search(filter.Search, "recipient", "subject"))
	for key, value := range filter.Filters {
		switch key {
		case "channel", "direction", "status", "campaign_id", "user_id":
			query = query.Where(key+" = ?", value)
		case "unread":
			if value == true {
				query = query.Where("read_at IS NULL")
			}
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var ns []notification.Notification
	if err := query.Scopes(paginate(filter, notificationSortFields, "created_at")).Find(&ns).Error; err != nil {
		return nil, 0, err
	}
	return ns, total, nil
}

func (r *GormNotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	return conn(ctx, r.db).Save(n).Error
}

var _ notification.NotificationRepository = (*GormNotificationRepository)(nil)
