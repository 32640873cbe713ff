package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smartstore/backend/internal/domain/payment"
)

// GormPaymentRepository implements payment.PaymentRepository
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*payment.Payment, error) {
	var p payment.Payment
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Payment")
	}
	return &p, nil
}

// FindByProviderRef is the webhook entry point and is not tenant scoped
func (r *GormPaymentRepository) FindByProviderRef(ctx context.Context, provider payment.Provider, ref string) (*payment.Payment, error) {
	var p payment.Payment
	if err := conn(ctx, r.db).First(&p, "provider = ? AND provider_ref = ?", provider, ref).Error; err != nil {
		return nil, notFound(err, "Payment")
	}
	return &p, nil
}

func (r *GormPaymentRepository) FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]payment.Payment, error) {
	var ps []payment.Payment
	err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).
		Where("order_id = ?", orderID).
		Order("created_at").
		Find(&ps).Error
	return ps, err
}

func (r *GormPaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	return translate(conn(ctx, r.db).Save(p).Error, "Payment reference already recorded")
}

// GormProcessedWebhookRepository implements payment.ProcessedWebhookRepository
type GormProcessedWebhookRepository struct {
	db *gorm.DB
}

// NewGormProcessedWebhookRepository creates a new GormProcessedWebhookRepository
func NewGormProcessedWebhookRepository(db *gorm.DB) *GormProcessedWebhookRepository {
	return &GormProcessedWebhookRepository{db: db}
}

// MarkProcessed inserts the event id; the unique index rejects repeats
func (r *GormProcessedWebhookRepository) MarkProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	result := conn(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(payment.NewProcessedWebhook(provider, eventID))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *GormProcessedWebhookRepository) Unmark(ctx context.Context, provider, eventID string) error {
	return conn(ctx, r.db).
		Where("provider = ? AND event_id = ?", provider, eventID).
		Delete(&payment.ProcessedWebhook{}).Error
}

var (
	_ payment.PaymentRepository          = (*GormPaymentRepository)(nil)
	_ payment.ProcessedWebhookRepository = (*GormProcessedWebhookRepository)(nil)
)
