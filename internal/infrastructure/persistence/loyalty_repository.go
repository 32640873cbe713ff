package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartstore/backend/internal/domain/loyalty"
	"github.com/smartstore/backend/internal/domain/shared"
)

// GormLoyaltyTransactionRepository implements loyalty.TransactionRepository
type GormLoyaltyTransactionRepository struct {
	db *gorm.DB
}

// NewGormLoyaltyTransactionRepository creates a new GormLoyaltyTransactionRepository
func NewGormLoyaltyTransactionRepository(db *gorm.DB) *GormLoyaltyTransactionRepository {
	return &GormLoyaltyTransactionRepository{db: db}
}

// Create appends a ledger entry; entries are never updated
func (r *GormLoyaltyTransactionRepository) Create(ctx context.Context, tx *loyalty.Transaction) error {
	return conn(ctx, r.db).Create(tx).Error
}

func (r *GormLoyaltyTransactionRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) ([]loyalty.Transaction, int64, error) {
	query := conn(ctx, r.db).Model(&loyalty.Transaction{}).
		Scopes(tenantScope(tenantID)).
		Where("customer_id = ?", customerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var txs []loyalty.Transaction
	if err := query.Scopes(paginate(filter, loyaltySortFields, "created_at")).Find(&txs).Error; err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

func (r *GormLoyaltyTransactionRepository) SumByOrder(ctx context.Context, tenantID, orderID uuid.UUID, txType loyalty.TransactionType) (int64, error) {
	var sum int64
	err := conn(ctx, r.db).Model(&loyalty.Transaction{}).
		Scopes(tenantScope(tenantID)).
		Where("order_id = ? AND type = ?", orderID, txType).
		Select("COALESCE(SUM(points), 0)").
		Scan(&sum).Error
	return sum, err
}

var _ loyalty.TransactionRepository = (*GormLoyaltyTransactionRepository)(nil)
