package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smartstore/backend/internal/domain/identity"
	"github.com/smartstore/backend/internal/domain/shared"
)

// Category groups products. Categories can be nested one level via ParentID.
type Category struct {
	shared.TenantEntity
	Name        string     `gorm:"size:100;not null"`
	Slug        string     `gorm:"size:100;not null;index:idx_categories_slug"`
	Description string     `gorm:"size:500"`
	ParentID    *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// NewCategory creates a category with a slug derived from its name
func NewCategory(tenantID uuid.UUID, name, description string, parentID *uuid.UUID) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.InvalidInput("Category name cannot be empty")
	}
	slug := identity.Slugify(name)
	if slug == "" {
		return nil, shared.InvalidInput("Category name must contain letters or digits")
	}
	return &Category{
		TenantEntity: shared.NewTenantEntity(tenantID),
		Name:         name,
		Slug:         slug,
		Description:  description,
		ParentID:     parentID,
	}, nil
}

// Update renames the category and moves it under a new parent
func (c *Category) Update(name, description string, parentID *uuid.UUID) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.InvalidInput("Category name cannot be empty")
	}
	if parentID != nil && *parentID == c.ID {
		return shared.InvalidInput("Category cannot be its own parent")
	}
	c.Name = name
	c.Slug = identity.Slugify(name)
	c.Description = description
	c.ParentID = parentID
	c.UpdatedAt = time.Now()
	return nil
}
