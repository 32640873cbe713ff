package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartstore/backend/internal/domain/loyalty"
	"github.com/smartstore/backend/internal/domain/partner"
	"github.com/smartstore/backend/internal/domain/shared"
)

// GormCustomerRepository implements partner.CustomerRepository
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

func (r *GormCustomerRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*partner.Customer, error) {
	var customer partner.Customer
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).First(&customer, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Customer")
	}
	return &customer, nil
}

func (r *GormCustomerRepository) FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*partner.Customer, error) {
	var customer partner.Customer
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).First(&customer, "email = ?", email).Error; err != nil {
		return nil, notFound(err, "Customer")
	}
	return &customer, nil
}

func (r *GormCustomerRepository) FindByPhone(ctx context.Context, tenantID uuid.UUID, phone string) (*partner.Customer, error) {
	var customer partner.Customer
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).First(&customer, "phone = ?", phone).Error; err != nil {
		return nil, notFound(err, "Customer")
	}
	return &customer, nil
}

func (r *GormCustomerRepository) ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string, excludeID *uuid.UUID) (bool, error) {
	query := conn(ctx, r.db).Model(&partner.Customer{}).Scopes(tenantScope(tenantID)).Where("email = ?", email)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

// FindAll lists customers. Filters: tier, marketing_opt_in.
func (r *GormCustomerRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]partner.Customer, int64, error) {
	query := conn(ctx, r.db).Model(&partner.Customer{}).
		Scopes(tenantScope(tenantID), search(filter.Search, "email", "first_name", "last_name", "phone"))
	for key, value := range filter.Filters {
		switch key {
		case "tier", "marketing_opt_in":
			query = query.Where(key+" = ?", value)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var customers []partner.Customer
	if err := query.Scopes(paginate(filter, customerSortFields, "created_at")).Find(&customers).Error; err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

func (r *GormCustomerRepository) FindSegment(ctx context.Context, tenantID uuid.UUID, tiers []loyalty.Tier, optedInOnly bool) ([]partner.Customer, error) {
	query := conn(ctx, r.db).Scopes(tenantScope(tenantID))
	if len(tiers) > 0 {
		query = query.Where("tier IN ?", tiers)
	}
	if optedInOnly {
		query = query.Where("marketing_opt_in = ?", true)
	}
	var customers []partner.Customer
	err := query.Order("created_at").Find(&customers).Error
	return customers, err
}

func (r *GormCustomerRepository) Count(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&partner.Customer{}).Scopes(tenantScope(tenantID)).Count(&count).Error
	return count, err
}

// SaveWithLock updates the customer if nobody changed it since it was loaded
func (r *GormCustomerRepository) SaveWithLock(ctx context.Context, customer *partner.Customer) error {
	err := updateVersioned(conn(ctx, r.db), customer, &customer.BaseAggregateRoot, customer.TenantID)
	return translate(err, "Customer email already exists")
}

func (r *GormCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	return translate(conn(ctx, r.db).Save(customer).Error, "Customer email already exists")
}

func (r *GormCustomerRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := conn(ctx, r.db).Scopes(tenantScope(tenantID)).Delete(&partner.Customer{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NotFound("Customer")
	}
	return nil
}

// GormWarehouseRepository implements partner.WarehouseRepository
type GormWarehouseRepository struct {
	db *gorm.DB
}

// NewGormWarehouseRepository creates a new GormWarehouseRepository
func NewGormWarehouseRepository(db *gorm.DB) *GormWarehouseRepository {
	return &GormWarehouseRepository{db: db}
}

func (r *GormWarehouseRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*partner.Warehouse, error) {
	var warehouse partner.Warehouse
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).First(&warehouse, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Warehouse")
	}
	return &warehouse, nil
}

func (r *GormWarehouseRepository) FindDefault(ctx context.Context, tenantID uuid.UUID) (*partner.Warehouse, error) {
	var warehouse partner.Warehouse
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).First(&warehouse, "is_default = ?", true).Error; err != nil {
		return nil, notFound(err, "Default warehouse")
	}
	return &warehouse, nil
}

func (r *GormWarehouseRepository) FindAll(ctx context.Context, tenantID uuid.UUID) ([]partner.Warehouse, error) {
	var warehouses []partner.Warehouse
	err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).Order("is_default DESC, code").Find(&warehouses).Error
	return warehouses, err
}

func (r *GormWarehouseRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string, excludeID *uuid.UUID) (bool, error) {
	query := conn(ctx, r.db).Model(&partner.Warehouse{}).Scopes(tenantScope(tenantID)).Where("code = ?", code)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *GormWarehouseRepository) ClearDefault(ctx context.Context, tenantID uuid.UUID) error {
	return conn(ctx, r.db).Model(&partner.Warehouse{}).
		Scopes(tenantScope(tenantID)).
		Where("is_default = ?", true).
		Update("is_default", false).Error
}

func (r *GormWarehouseRepository) Save(ctx context.Context, warehouse *partner.Warehouse) error {
	return translate(conn(ctx, r.db).Save(warehouse).Error, "Warehouse code already exists")
}

func (r *GormWarehouseRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := conn(ctx, r.db).Scopes(tenantScope(tenantID)).Delete(&partner.Warehouse{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NotFound("Warehouse")
	}
	return nil
}

var (
	_ partner.CustomerRepository  = (*GormCustomerRepository)(nil)
	_ partner.WarehouseRepository = (*GormWarehouseRepository)(nil)
)
