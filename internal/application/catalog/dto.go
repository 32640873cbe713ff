package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartstore/backend/internal/domain/catalog"
)

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	SKU               string           `json:"sku" binding:"required,min=1,max=100"`
	Name              string           `json:"name" binding:"required,min=1,max=200"`
	Description       string           `json:"description" binding:"max=5000"`
	CategoryID        *uuid.UUID       `json:"category_id"`
	Price             decimal.Decimal  `json:"price" binding:"required"`
	CostPrice         *decimal.Decimal `json:"cost_price"`
	Currency          string           `json:"currency" binding:"omitempty,len=3"`
	Status            string           `json:"status" binding:"omitempty,oneof=ACTIVE DRAFT ARCHIVED"`
	LowStockThreshold *int             `json:"low_stock_threshold" binding:"omitempty,min=0"`
	Tags              []string         `json:"tags" binding:"omitempty,max=20,dive,max=50"`
}

// UpdateProductRequest represents a request to update a product. Nil fields are kept.
type UpdateProductRequest struct {
	Name              *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Description       *string          `json:"description" binding:"omitempty,max=5000"`
	CategoryID        *uuid.UUID       `json:"category_id"`
	ClearCategory     bool             `json:"clear_category"`
	Price             *decimal.Decimal `json:"price"`
	CostPrice         *decimal.Decimal `json:"cost_price"`
	Status            *string          `json:"status" binding:"omitempty,oneof=ACTIVE DRAFT ARCHIVED"`
	LowStockThreshold *int             `json:"low_stock_threshold" binding:"omitempty,min=0"`
	Tags              []string         `json:"tags" binding:"omitempty,max=20,dive,max=50"`
}

// ProductListFilter represents filter options for the product list
type ProductListFilter struct {
	Search     string     `form:"search" binding:"max=100"`
	Status     string     `form:"status" binding:"omitempty,oneof=ACTIVE DRAFT ARCHIVED"`
	CategoryID *uuid.UUID `form:"category_id"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by" binding:"omitempty,oneof=name sku price status created_at updated_at"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// VariantRequest adds or updates a variant
type VariantRequest struct {
	SKU        string            `json:"sku" binding:"omitempty,max=100"`
	Name       string            `json:"name" binding:"max=200"`
	Attributes map[string]string `json:"attributes"`
	Price      *decimal.Decimal  `json:"price"`
}

// ImageUploadRequest asks for a presigned upload URL
type ImageUploadRequest struct {
	FileName    string `json:"file_name" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required,oneof=image/jpeg image/png image/webp image/gif"`
}

// ImageUploadResponse carries the presigned PUT URL and the key recorded on the product
type ImageUploadResponse struct {
	UploadURL string    `json:"upload_url"`
	ImageKey  string    `json:"image_key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// VariantResponse represents a variant in API responses
type VariantResponse struct {
	ID         uuid.UUID         `json:"id"`
	SKU        string            `json:"sku"`
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes"`
	Price      *decimal.Decimal  `json:"price,omitempty"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID                uuid.UUID         `json:"id"`
	TenantID          uuid.UUID         `json:"tenant_id"`
	SKU               string            `json:"sku"`
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	CategoryID        *uuid.UUID        `json:"category_id,omitempty"`
	Price             decimal.Decimal   `json:"price"`
	CostPrice         decimal.Decimal   `json:"cost_price"`
	Currency          string            `json:"currency"`
	Status            string            `json:"status"`
	LowStockThreshold *int              `json:"low_stock_threshold,omitempty"`
	ImageKey          string            `json:"image_key,omitempty"`
	ImageURL          string            `json:"image_url,omitempty"`
	Tags              []string          `json:"tags"`
	Variants          []VariantResponse `json:"variants"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	Version           int               `json:"version"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	variants := make([]VariantResponse, len(p.Variants))
	for i, v := range p.Variants {
		variants[i] = ToVariantResponse(&v)
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return ProductResponse{
		ID:                p.ID,
		TenantID:          p.TenantID,
		SKU:               p.SKU,
		Name:              p.Name,
		Description:       p.Description,
		CategoryID:        p.CategoryID,
		Price:             p.Price,
		CostPrice:         p.CostPrice,
		Currency:          p.Currency,
		Status:            string(p.Status),
		LowStockThreshold: p.LowStockThreshold,
		ImageKey:          p.ImageKey,
		Tags:              tags,
		Variants:          variants,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
		Version:           p.Version,
	}
}

// ToVariantResponse converts a variant
func ToVariantResponse(v *catalog.ProductVariant) VariantResponse {
	return VariantResponse{
		ID:         v.ID,
		SKU:        v.SKU,
		Name:       v.Name,
		Attributes: v.Attributes,
		Price:      v.Price,
	}
}

// CategoryRequest creates or updates a category
type CategoryRequest struct {
	Name        string     `json:"name" binding:"required,min=1,max=100"`
	Description string     `json:"description" binding:"max=500"`
	ParentID    *uuid.UUID `json:"parent_id"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToCategoryResponse converts a category
func ToCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		ParentID:    c.ParentID,
		CreatedAt:   c.CreatedAt,
	}
}
