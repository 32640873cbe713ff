package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/domain/trade"
)

// GormOrderRepository implements trade.OrderRepository
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") })
}

// FindByID loads an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*trade.Order, error) {
	var order trade.Order
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID), preloadItems).First(&order, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Order")
	}
	return &order, nil
}

func (r *GormOrderRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*trade.Order, error) {
	var order trade.Order
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID), preloadItems).First(&order, "order_number = ?", number).Error; err != nil {
		return nil, notFound(err, "Order")
	}
	return &order, nil
}

// FindByExternalID finds an order imported from a sales channel
func (r *GormOrderRepository) FindByExternalID(ctx context.Context, tenantID uuid.UUID, channel trade.Channel, externalID string) (*trade.Order, error) {
	var order trade.Order
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID), preloadItems).
		First(&order, "channel = ? AND external_id = ?", channel, externalID).Error; err != nil {
		return nil, notFound(err, "Order")
	}
	return &order, nil
}

// FindAll lists orders with items. Filters: status, payment_status, channel,
// customer_id, from, to (created_at bounds).
func (r *GormOrderRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]trade.Order, int64, error) {
	query := conn(ctx, r.db).Model(&trade.Order{}).
		Scopes(tenantScope(tenantID), search(filter.Search, "order_number"))
	for key, value := range filter.Filters {
		switch key {
		case "status", "payment_status", "channel", "customer_id":
			query = query.Where(key+" = ?", value)
		case "from":
			query = query.Where("created_at >= ?", value)
		case "to":
			query = query.Where("created_at <= ?", value)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var orders []trade.Order
	if err := query.Scopes(preloadItems, paginate(filter, orderSortFields, "created_at")).Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// Create inserts the order together with its items
func (r *GormOrderRepository) Create(ctx context.Context, order *trade.Order) error {
	return translate(conn(ctx, r.db).Create(order).Error, "Order number already exists")
}

// SaveWithLock updates the order header under optimistic locking, then its items
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, order *trade.Order) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := updateVersioned(tx, order, &order.BaseAggregateRoot, order.TenantID); err != nil {
			return err
		}
		for i := range order.Items {
			if err := tx.Save(&order.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

type orderSummaryRow struct {
	OrderCount      int64
	Revenue         decimal.Decimal
	PendingCount    int64
	UniqueCustomers int64
}

// Summary aggregates non-cancelled orders created in the period
func (r *GormOrderRepository) Summary(ctx context.Context, tenantID uuid.UUID, period shared.DateRange) (*trade.OrderSummary, error) {
	var row orderSummaryRow
	err := conn(ctx, r.db).Model(&trade.Order{}).
		Scopes(tenantScope(tenantID)).
		Where("status <> ? AND created_at >= ? AND created_at <= ?", trade.OrderStatusCancelled, period.From, period.To).
		Select(`COUNT(*) AS order_count,
			COALESCE(SUM(total_amount - refunded_amount), 0) AS revenue,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending_count,
			COUNT(DISTINCT customer_id) AS unique_customers`, trade.OrderStatusPending).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	summary := &trade.OrderSummary{
		OrderCount:        row.OrderCount,
		Revenue:           row.Revenue.Round(2),
		AverageOrderValue: decimal.Zero,
		PendingCount:      row.PendingCount,
		UniqueCustomers:   row.UniqueCustomers,
	}
	if row.OrderCount > 0 {
		summary.AverageOrderValue = row.Revenue.Div(decimal.NewFromInt(row.OrderCount)).Round(2)
	}
	return summary, nil
}

// GormReturnRequestRepository implements trade.ReturnRequestRepository
type GormReturnRequestRepository struct {
	db *gorm.DB
}

// NewGormReturnRequestRepository creates a new GormReturnRequestRepository
func NewGormReturnRequestRepository(db *gorm.DB) *GormReturnRequestRepository {
	return &GormReturnRequestRepository{db: db}
}

func (r *GormReturnRequestRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*trade.ReturnRequest, error) {
	var req trade.ReturnRequest
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).First(&req, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Return request")
	}
	return &req, nil
}

func (r *GormReturnRequestRepository) FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]trade.ReturnRequest, error) {
	var reqs []trade.ReturnRequest
	err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).
		Where("order_id = ?", orderID).
		Order("created_at").
		Find(&reqs).Error
	return reqs, err
}

func (r *GormReturnRequestRepository) HasOpen(ctx context.Context, tenantID, orderID uuid.UUID) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&trade.ReturnRequest{}).
		Scopes(tenantScope(tenantID)).
		Where("order_id = ? AND status IN ?", orderID, []trade.ReturnStatus{trade.ReturnStatusRequested, trade.ReturnStatusApproved, trade.ReturnStatusRefunding}).
		Count(&count).Error
	return count > 0, err
}

func (r *GormReturnRequestRepository) Save(ctx context.Context, req *trade.ReturnRequest) error {
	return conn(ctx, r.db).Save(req).Error
}

// SaveWithLock updates the return under optimistic locking so that only one
// caller moves it to refunding
func (r *GormReturnRequestRepository) SaveWithLock(ctx context.Context, req *trade.ReturnRequest) error {
	return updateVersioned(conn(ctx, r.db), req, &req.BaseAggregateRoot, req.TenantID)
}

// GormDeliveryRepository implements trade.DeliveryRepository
type GormDeliveryRepository struct {
	db *gorm.DB
}

// NewGormDeliveryRepository creates a new GormDeliveryRepository
func NewGormDeliveryRepository(db *gorm.DB) *GormDeliveryRepository {
	return &GormDeliveryRepository{db: db}
}

func (r *GormDeliveryRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*trade.Delivery, error) {
	var d trade.Delivery
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).First(&d, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Delivery")
	}
	return &d, nil
}

func (r *GormDeliveryRepository) FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]trade.Delivery, error) {
	var ds []trade.Delivery
	err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).
		Where("order_id = ?", orderID).
		Order("created_at").
		Find(&ds).Error
	return ds, err
}

func (r *GormDeliveryRepository) Save(ctx context.Context, d *trade.Delivery) error {
	return conn(ctx, r.db).Save(d).Error
}

var (
	_ trade.OrderRepository         = (*GormOrderRepository)(nil)
	_ trade.ReturnRequestRepository = (*GormReturnRequestRepository)(nil)
	_ trade.DeliveryRepository      = (*GormDeliveryRepository)(nil)
)
