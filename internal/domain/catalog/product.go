package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smartstore/backend/internal/domain/shared"
)

// ProductStatus represents the sales status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusDraft    ProductStatus = "DRAFT"
	ProductStatusArchived ProductStatus = "ARCHIVED"
)

// IsValid reports whether the status is known
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusActive, ProductStatusDraft, ProductStatusArchived:
		return true
	}
	return false
}

// Product is the aggregate root for catalog items and their variants
type Product struct {
	shared.TenantAggregateRoot
	SKU               string           `gorm:"size:100;not null;index:idx_products_sku"`
	Name              string           `gorm:"size:200;not null"`
	Description       string           `gorm:"type:text"`
	CategoryID        *uuid.UUID       `gorm:"type:uuid;index:idx_products_category"`
	Price             decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	CostPrice         decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	Currency          string           `gorm:"size:3;not null"`
	Status            ProductStatus    `gorm:"size:20;not null;default:'ACTIVE'"`
	LowStockThreshold *int             `gorm:""`
	ImageKey          string           `gorm:"size:500"`
	Tags              []string         `gorm:"serializer:json;type:jsonb"`
	Variants          []ProductVariant `gorm:"foreignKey:ProductID;references:ID"`
	DeletedAt         gorm.DeletedAt   `gorm:"index"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// ProductVariant is a sellable option of a product (size, colour, ...)
type ProductVariant struct {
	shared.TenantEntity
	ProductID  uuid.UUID         `gorm:"type:uuid;not null;index:idx_product_variants_product"`
	SKU        string            `gorm:"size:100;not null;index:idx_product_variants_sku"`
	Name       string            `gorm:"size:200;not null"`
	Attributes map[string]string `gorm:"serializer:json;type:jsonb"`
	Price      *decimal.Decimal  `gorm:"type:decimal(18,4)"`
}

// TableName returns the table name for GORM
func (ProductVariant) TableName() string {
	return "product_variants"
}

// NormalizeSKU trims and upper-cases a SKU
func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}

// NewProduct creates a new active product
func NewProduct(tenantID uuid.UUID, sku, name string, price decimal.Decimal, currency string) (*Product, error) {
	sku = NormalizeSKU(sku)
	if sku == "" {
		return nil, shared.InvalidInput("SKU cannot be empty")
	}
	if len(sku) > 100 {
		return nil, shared.InvalidInput("SKU cannot exceed 100 characters")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.InvalidInput("Product name cannot be empty")
	}
	if price.IsNegative() {
		return nil, shared.InvalidInput("Price cannot be negative")
	}
	if len(currency) != 3 {
		return nil, shared.InvalidInput("Currency must be a 3-letter ISO code")
	}
	return &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SKU:                 sku,
		Name:                name,
		Price:               price,
		CostPrice:           decimal.Zero,
		Currency:            strings.ToUpper(currency),
		Status:              ProductStatusActive,
		Tags:                []string{},
		Variants:            []ProductVariant{},
	}, nil
}

// UpdateDetails changes the descriptive fields of the product
func (p *Product) UpdateDetails(name, description string, categoryID *uuid.UUID, tags []string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.InvalidInput("Product name cannot be empty")
	}
	p.Name = name
	p.Description = description
	p.CategoryID = categoryID
	if tags != nil {
		p.Tags = tags
	}
	p.touch()
	return nil
}

// UpdatePricing changes the selling and cost price
func (p *Product) UpdatePricing(price, cost decimal.Decimal) error {
	if price.IsNegative() || cost.IsNegative() {
		return shared.InvalidInput("Prices cannot be negative")
	}
	p.Price = price
	p.CostPrice = cost
	p.touch()
	return nil
}

// SetStatus changes the sales status
func (p *Product) SetStatus(status ProductStatus) error {
	if !status.IsValid() {
		return shared.InvalidInput("Invalid product status")
	}
	p.Status = status
	p.touch()
	return nil
}

// SetLowStockThreshold overrides the organization default threshold; nil clears it
func (p *Product) SetLowStockThreshold(threshold *int) error {
	if threshold != nil && *threshold < 0 {
		return shared.InvalidInput("Low stock threshold cannot be negative")
	}
	p.LowStockThreshold = threshold
	p.touch()
	return nil
}

// Threshold returns the effective low-stock threshold
func (p *Product) Threshold(orgDefault int) int {
	if p.LowStockThreshold != nil {
		return *p.LowStockThreshold
	}
	return orgDefault
}

// SetImage records the object storage key of the product image
func (p *Product) SetImage(key string) {
	p.ImageKey = key
	p.touch()
}

// IsSellable reports whether the product can be ordered
func (p *Product) IsSellable() bool {
	return p.Status == ProductStatusActive
}

// AddVariant appends a new variant. SKU uniqueness across the tenant is checked by the caller.
func (p *Product) AddVariant(sku, name string, attributes map[string]string, price *decimal.Decimal) (*ProductVariant, error) {
	sku = NormalizeSKU(sku)
	if sku == "" {
		return nil, shared.InvalidInput("Variant SKU cannot be empty")
	}
	if sku == p.SKU {
		return nil, shared.AlreadyExists("Variant SKU must differ from the product SKU")
	}
	for _, v := range p.Variants {
		if v.SKU == sku {
			return nil, shared.AlreadyExists("Variant SKU already exists on this product")
		}
	}
	if price != nil && price.IsNegative() {
		return nil, shared.InvalidInput("Variant price cannot be negative")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.InvalidInput("Variant name cannot be empty")
	}
	if attributes == nil {
		attributes = map[string]string{}
	}
	v := ProductVariant{
		TenantEntity: shared.NewTenantEntity(p.TenantID),
		ProductID:    p.ID,
		SKU:          sku,
		Name:         name,
		Attributes:   attributes,
		Price:        price,
	}
	p.Variants = append(p.Variants, v)
	p.touch()
	return &p.Variants[len(p.Variants)-1], nil
}

// UpdateVariant changes a variant's name, attributes and price override
func (p *Product) UpdateVariant(variantID uuid.UUID, name string, attributes map[string]string, price *decimal.Decimal) (*ProductVariant, error) {
	v := p.Variant(variantID)
	if v == nil {
		return nil, shared.NotFound("Variant")
	}
	if price != nil && price.IsNegative() {
		return nil, shared.InvalidInput("Variant price cannot be negative")
	}
	if strings.TrimSpace(name) != "" {
		v.Name = strings.TrimSpace(name)
	}
	if attributes != nil {
		v.Attributes = attributes
	}
	v.Price = price
	v.UpdatedAt = time.Now()
	p.touch()
	return v, nil
}

// RemoveVariant deletes a variant from the product
func (p *Product) RemoveVariant(variantID uuid.UUID) error {
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			p.Variants = append(p.Variants[:i], p.Variants[i+1:]...)
			p.touch()
			return nil
		}
	}
	return shared.NotFound("Variant")
}

// Variant returns the variant with the given ID or nil
func (p *Product) Variant(variantID uuid.UUID) *ProductVariant {
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			return &p.Variants[i]
		}
	}
	return nil
}

// PriceLine is the resolved price, SKU and display name of a product or variant
type PriceLine struct {
	SKU       string
	Name      string
	UnitPrice decimal.Decimal
}

// Resolve returns the sellable line for the product or one of its variants
func (p *Product) Resolve(variantID *uuid.UUID) (PriceLine, error) {
	if variantID == nil {
		return PriceLine{SKU: p.SKU, Name: p.Name, UnitPrice: p.Price}, nil
	}
	v := p.Variant(*variantID)
	if v == nil {
		return PriceLine{}, shared.NotFound("Variant")
	}
	price := p.Price
	if v.Price != nil {
		price = *v.Price
	}
	return PriceLine{SKU: v.SKU, Name: p.Name + " - " + v.Name, UnitPrice: price}, nil
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}
