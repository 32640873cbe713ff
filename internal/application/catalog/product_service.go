package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/catalog"
	"github.com/smartstore/backend/internal/domain/identity"
	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/infrastructure/storage"
)

// ImageStorage hands out presigned URLs for product images
type ImageStorage interface {
	PresignUpload(ctx context.Context, key, contentType string) (string, time.Time, error)
	PresignDownload(ctx context.Context, key string) (string, time.Time, error)
}

var errStorageDisabled = shared.InvalidState("Object storage is not configured")

// ProductService handles product business operations
type ProductService struct {
	productRepo  catalog.ProductRepository
	categoryRepo catalog.CategoryRepository
	orgRepo      identity.OrganizationRepository
	images       ImageStorage
	logger       *zap.Logger
}

// NewProductService creates a new ProductService. images may be nil when no
// object storage is configured.
func NewProductService(
	productRepo catalog.ProductRepository,
	categoryRepo catalog.CategoryRepository,
	orgRepo identity.OrganizationRepository,
	images ImageStorage,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		orgRepo:      orgRepo,
		images:       images,
		logger:       logger,
	}
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, tenantID, actorID uuid.UUID, req CreateProductRequest) (*ProductResponse, error) {
	sku := catalog.NormalizeSKU(req.SKU)
	if err := s.ensureSKUFree(ctx, tenantID, sku, nil); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, tenantID, req.CategoryID); err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		org, err := s.orgRepo.FindByID(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		currency = org.Settings.Currency
	}

	product, err := catalog.NewProduct(tenantID, sku, req.Name, req.Price, currency)
	if err != nil {
		return nil, err
	}
	product.SetCreatedBy(actorID)

	if err := product.UpdateDetails(req.Name, req.Description, req.CategoryID, req.Tags); err != nil {
		return nil, err
	}
	if req.CostPrice != nil {
		if err := product.UpdatePricing(req.Price, *req.CostPrice); err != nil {
			return nil, err
		}
	}
	if req.Status != "" {
		if err := product.SetStatus(catalog.ProductStatus(req.Status)); err != nil {
			return nil, err
		}
	}
	if err := product.SetLowStockThreshold(req.LowStockThreshold); err != nil {
		return nil, err
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU))

	response := ToProductResponse(product)
	return &response, nil
}

// GetByID retrieves a product by its ID. A presigned image URL is attached
// when storage is available.
func (s *ProductService) GetByID(ctx context.Context, tenantID, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	if product.ImageKey != "" && s.images != nil {
		if url, _, err := s.images.PresignDownload(ctx, product.ImageKey); err == nil {
			response.ImageURL = url
		} else {
			s.logger.Warn("Failed to presign product image", zap.String("product_id", productID.String()), zap.Error(err))
		}
	}
	return &response, nil
}

// GetBySKU retrieves a product by SKU
func (s *ProductService) GetBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*ProductResponse, error) {
	product, err := s.productRepo.FindBySKU(ctx, tenantID, catalog.NormalizeSKU(sku))
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// List retrieves a page of products
func (s *ProductService) List(ctx context.Context, tenantID uuid.UUID, filter ProductListFilter) (*shared.Paginated[ProductResponse], error) {
	f := shared.DefaultFilter()
	f.Search = filter.Search
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		f.OrderDir = filter.OrderDir
	}
	if filter.Status != "" {
		f = f.With("status", filter.Status)
	}
	if filter.CategoryID != nil {
		f = f.With("category_id", *filter.CategoryID)
	}

	products, total, err := s.productRepo.FindAll(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	items := make([]ProductResponse, len(products))
	for i := range products {
		items[i] = ToProductResponse(&products[i])
	}
	result := shared.NewPaginated(items, total, f.Page, f.Limit())
	return &result, nil
}

// Update updates a product
func (s *ProductService) Update(ctx context.Context, tenantID, productID uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	name, description, categoryID := product.Name, product.Description, product.CategoryID
	if req.Name != nil {
		name = *req.Name
	}
	if req.Description != nil {
		description = *req.Description
	}
	if req.CategoryID != nil {
		if err := s.ensureCategory(ctx, tenantID, req.CategoryID); err != nil {
			return nil, err
		}
		categoryID = req.CategoryID
	}
	if req.ClearCategory {
		categoryID = nil
	}
	if err := product.UpdateDetails(name, description, categoryID, req.Tags); err != nil {
		return nil, err
	}

	if req.Price != nil || req.CostPrice != nil {
		price, cost := product.Price, product.CostPrice
		if req.Price != nil {
			price = *req.Price
		}
		if req.CostPrice != nil {
			cost = *req.CostPrice
		}
		if err := product.UpdatePricing(price, cost); err != nil {
			return nil, err
		}
	}
	if req.Status != nil {
		if err := product.SetStatus(catalog.ProductStatus(*req.Status)); err != nil {
			return nil, err
		}
	}
	if req.LowStockThreshold != nil {
		if err := product.SetLowStockThreshold(req.LowStockThreshold); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// Delete soft-deletes a product
func (s *ProductService) Delete(ctx context.Context, tenantID, productID uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, tenantID, productID); err != nil {
		return err
	}
	s.logger.Info("Product deleted", zap.String("product_id", productID.String()))
	return nil
}

// AddVariant adds a variant with a tenant-unique SKU
func (s *ProductService) AddVariant(ctx context.Context, tenantID, productID uuid.UUID, req VariantRequest) (*VariantResponse, error) {
	product, err := s.productRepo.FindByID(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSKUFree(ctx, tenantID, catalog.NormalizeSKU(req.SKU), nil); err != nil {
		return nil, err
	}

	variant, err := product.AddVariant(req.SKU, req.Name, req.Attributes, req.Price)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	response := ToVariantResponse(variant)
	return &response, nil
}

// UpdateVariant changes a variant's name, attributes and price override
func (s *ProductService) UpdateVariant(ctx context.Context, tenantID, productID, variantID uuid.UUID, req VariantRequest) (*VariantResponse, error) {
	product, err := s.productRepo.FindByID(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	variant, err := product.UpdateVariant(variantID, req.Name, req.Attributes, req.Price)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	response := ToVariantResponse(variant)
	return &response, nil
}

// RemoveVariant deletes a variant
func (s *ProductService) RemoveVariant(ctx context.Context, tenantID, productID, variantID uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, tenantID, productID)
	if err != nil {
		return err
	}
	if err := product.RemoveVariant(variantID); err != nil {
		return err
	}
	return s.productRepo.Save(ctx, product)
}

// PrepareImageUpload presigns a PUT URL and records the object key on the product
func (s *ProductService) PrepareImageUpload(ctx context.Context, tenantID, productID uuid.UUID, req ImageUploadRequest) (*ImageUploadResponse, error) {
	if s.images == nil {
		return nil, errStorageDisabled
	}
	product, err := s.productRepo.FindByID(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	key := storage.ProductImageKey(tenantID.String(), productID.String(), req.FileName)
	url, expiresAt, err := s.images.PresignUpload(ctx, key, req.ContentType)
	if err != nil {
		s.logger.Error("Failed to presign image upload", zap.String("product_id", productID.String()), zap.Error(err))
		return nil, err
	}

	product.SetImage(key)
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	return &ImageUploadResponse{UploadURL: url, ImageKey: key, ExpiresAt: expiresAt}, nil
}

func (s *ProductService) ensureSKUFree(ctx context.Context, tenantID uuid.UUID, sku string, exclude *uuid.UUID) error {
	if sku == "" {
		return shared.InvalidInput("SKU cannot be empty")
	}
	exists, err := s.productRepo.SKUExists(ctx, tenantID, sku, exclude)
	if err != nil {
		return err
	}
	if exists {
		return shared.AlreadyExists("SKU already exists")
	}
	return nil
}

func (s *ProductService) ensureCategory(ctx context.Context, tenantID uuid.UUID, categoryID *uuid.UUID) error {
	if categoryID == nil {
		return nil
	}
	if _, err := s.categoryRepo.FindByID(ctx, tenantID, *categoryID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.InvalidInput("Category not found")
		}
		return err
	}
	return nil
}
