package catalog

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/catalog"
	"github.com/smartstore/backend/internal/domain/identity"
	"github.com/smartstore/backend/internal/domain/shared"
)

// CategoryService handles category operations
type CategoryService struct {
	categoryRepo catalog.CategoryRepository
	productRepo  catalog.ProductRepository
	logger       *zap.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo catalog.CategoryRepository, productRepo catalog.ProductRepository, logger *zap.Logger) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo, productRepo: productRepo, logger: logger}
}

// Create creates a category with a tenant-unique slug
func (s *CategoryService) Create(ctx context.Context, tenantID uuid.UUID, req CategoryRequest) (*CategoryResponse, error) {
	if err := s.ensureParent(ctx, tenantID, req.ParentID, nil); err != nil {
		return nil, err
	}
	category, err := catalog.NewCategory(tenantID, req.Name, req.Description, req.ParentID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, tenantID, category.Slug, nil); err != nil {
		return nil, err
	}
	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}
	response := ToCategoryResponse(category)
	return &response, nil
}

// List returns every category of the tenant
func (s *CategoryService) List(ctx context.Context, tenantID uuid.UUID) ([]CategoryResponse, error) {
	categories, err := s.categoryRepo.FindAll(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryResponse, len(categories))
	for i := range categories {
		out[i] = ToCategoryResponse(&categories[i])
	}
	return out, nil
}

// Get returns one category
func (s *CategoryService) Get(ctx context.Context, tenantID, id uuid.UUID) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToCategoryResponse(category)
	return &response, nil
}

// Update renames or re-parents a category
func (s *CategoryService) Update(ctx context.Context, tenantID, id uuid.UUID, req CategoryRequest) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureParent(ctx, tenantID, req.ParentID, &id); err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, tenantID, identity.Slugify(req.Name), &id); err != nil {
		return nil, err
	}
	if err := category.Update(req.Name, req.Description, req.ParentID); err != nil {
		return nil, err
	}
	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}
	response := ToCategoryResponse(category)
	return &response, nil
}

// Delete removes a category that no product references
func (s *CategoryService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	count, err := s.productRepo.CountByCategory(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.InvalidState("Category still has products")
	}
	if err := s.categoryRepo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.logger.Info("Category deleted", zap.String("category_id", id.String()))
	return nil
}

func (s *CategoryService) ensureSlugFree(ctx context.Context, tenantID uuid.UUID, slug string, exclude *uuid.UUID) error {
	exists, err := s.categoryRepo.ExistsBySlug(ctx, tenantID, slug, exclude)
	if err != nil {
		return err
	}
	if exists {
		return shared.AlreadyExists("Category with this name already exists")
	}
	return nil
}

// ensureParent checks the parent exists and is a top-level category
func (s *CategoryService) ensureParent(ctx context.Context, tenantID uuid.UUID, parentID, self *uuid.UUID) error {
	if parentID == nil {
		return nil
	}
	if self != nil && *parentID == *self {
		return shared.InvalidInput("Category cannot be its own parent")
	}
	parent, err := s.categoryRepo.FindByID(ctx, tenantID, *parentID)
	if err != nil {
		return err
	}
	if parent.ParentID != nil {
		return shared.InvalidInput("Categories can only be nested one level")
	}
	return nil
}
