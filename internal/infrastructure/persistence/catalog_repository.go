package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smartstore/backend/internal/domain/catalog"
	"github.com/smartstore/backend/internal/domain/shared"
)

// GormProductRepository implements catalog.ProductRepository
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID loads a product with its variants
func (r *GormProductRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		First(&product, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Product")
	}
	return &product, nil
}

// FindBySKU loads a product by its own SKU
func (r *GormProductRepository) FindBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*catalog.Product, error) {
	var product catalog.Product
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).
		Preload("Variants").
		First(&product, "sku = ?", catalog.NormalizeSKU(sku)).Error; err != nil {
		return nil, notFound(err, "Product")
	}
	return &product, nil
}

// FindByIDs loads several products with variants; missing ids are skipped
func (r *GormProductRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	var products []catalog.Product
	err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).
		Preload("Variants").
		Where("id IN ?", ids).
		Find(&products).Error
	return products, err
}

// FindAll lists products. Filters: status, category_id.
func (r *GormProductRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Product, int64, error) {
	query := conn(ctx, r.db).Model(&catalog.Product{}).
		Scopes(tenantScope(tenantID), search(filter.Search, "name", "sku"))
	for key, value := range filter.Filters {
		switch key {
		case "status", "category_id":
			query = query.Where(key+" = ?", value)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var products []catalog.Product
	if err := query.Preload("Variants").
		Scopes(paginate(filter, productSortFields, "created_at")).
		Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// SKUExists checks the SKU against live products and their variants
func (r *GormProductRepository) SKUExists(ctx context.Context, tenantID uuid.UUID, sku string, excludeProductID *uuid.UUID) (bool, error) {
	db := conn(ctx, r.db)

	products := db.Model(&catalog.Product{}).Scopes(tenantScope(tenantID)).Where("sku = ?", sku)
	if excludeProductID != nil {
		products = products.Where("id <> ?", *excludeProductID)
	}
	var count int64
	if err := products.Count(&count).Error; err != nil || count > 0 {
		return count > 0, err
	}

	variants := db.Model(&catalog.ProductVariant{}).
		Joins("JOIN products ON products.id = product_variants.product_id AND products.deleted_at IS NULL").
		Where("product_variants.tenant_id = ? AND product_variants.sku = ?", tenantID, sku)
	if excludeProductID != nil {
		variants = variants.Where("product_variants.product_id <> ?", *excludeProductID)
	}
	if err := variants.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormProductRepository) CountByCategory(ctx context.Context, tenantID, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&catalog.Product{}).
		Scopes(tenantScope(tenantID)).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	return count, err
}

// Save writes the product and reconciles its variant rows
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(product).Error; err != nil {
			return translate(err, "SKU already exists")
		}

		keep := make([]uuid.UUID, 0, len(product.Variants))
		for _, v := range product.Variants {
			keep = append(keep, v.ID)
		}
		stale := tx.Where("product_id = ?", product.ID)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		if err := stale.Delete(&catalog.ProductVariant{}).Error; err != nil {
			return err
		}

		for i := range product.Variants {
			if err := tx.Save(&product.Variants[i]).Error; err != nil {
				return translate(err, "Variant SKU already exists")
			}
		}
		return nil
	})
}

// Delete soft-deletes the product; variant rows stay for order history
func (r *GormProductRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := conn(ctx, r.db).Scopes(tenantScope(tenantID)).Delete(&catalog.Product{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NotFound("Product")
	}
	return nil
}

// GormCategoryRepository implements catalog.CategoryRepository
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

func (r *GormCategoryRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Category, error) {
	var category catalog.Category
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).First(&category, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Category")
	}
	return &category, nil
}

func (r *GormCategoryRepository) FindAll(ctx context.Context, tenantID uuid.UUID) ([]catalog.Category, error) {
	var categories []catalog.Category
	err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).Order("name").Find(&categories).Error
	return categories, err
}

func (r *GormCategoryRepository) ExistsBySlug(ctx context.Context, tenantID uuid.UUID, slug string, excludeID *uuid.UUID) (bool, error) {
	query := conn(ctx, r.db).Model(&catalog.Category{}).Scopes(tenantScope(tenantID)).Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *GormCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	return translate(conn(ctx, r.db).Save(category).Error, "Category slug already exists")
}

func (r *GormCategoryRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := conn(ctx, r.db).Scopes(tenantScope(tenantID)).Delete(&catalog.Category{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NotFound("Category")
	}
	return nil
}

var (
	_ catalog.ProductRepository  = (*GormProductRepository)(nil)
	_ catalog.CategoryRepository = (*GormCategoryRepository)(nil)
)
