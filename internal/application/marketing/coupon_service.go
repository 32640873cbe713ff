package marketing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/identity"
	"github.com/smartstore/backend/internal/domain/marketing"
	"github.com/smartstore/backend/internal/domain/shared"
)

// CouponService handles coupon operations
type CouponService struct {
	couponRepo marketing.CouponRepository
	orgRepo    identity.OrganizationRepository
	logger     *zap.Logger
	now        func() time.Time
}

// NewCouponService creates a new CouponService
func NewCouponService(couponRepo marketing.CouponRepository, orgRepo identity.OrganizationRepository, logger *zap.Logger) *CouponService {
	return &CouponService{
		couponRepo: couponRepo,
		orgRepo:    orgRepo,
		logger:     logger,
		now:        time.Now,
	}
}

// Create creates a coupon. Codes are unique per tenant, case-insensitively.
func (s *CouponService) Create(ctx context.Context, tenantID uuid.UUID, req CreateCouponRequest) (*CouponResponse, error) {
	coupon, err := marketing.NewCoupon(tenantID, req.Code, marketing.CouponType(req.Type), req.Value)
	if err != nil {
		return nil, err
	}
	if err := coupon.SetTerms(marketing.CouponTerms{
		Description:    req.Description,
		MinOrderAmount: req.MinOrderAmount,
		MaxDiscount:    req.MaxDiscount,
		UsageLimit:     req.UsageLimit,
		StartsAt:       req.StartsAt,
		EndsAt:         req.EndsAt,
	}); err != nil {
		return nil, err
	}

	exists, err := s.couponRepo.ExistsByCode(ctx, tenantID, coupon.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.AlreadyExists("Coupon code already exists: " + coupon.Code)
	}
	if err := s.couponRepo.Save(ctx, coupon); err != nil {
		return nil, err
	}

	s.logger.Info("Coupon created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("code", coupon.Code))

	response := ToCouponResponse(coupon)
	return &response, nil
}

// GetByID retrieves a coupon
func (s *CouponService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*CouponResponse, error) {
	coupon, err := s.couponRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToCouponResponse(coupon)
	return &response, nil
}

// List retrieves a page of coupons
func (s *CouponService) List(ctx context.Context, tenantID uuid.UUID, filter CouponListFilter) (*shared.Paginated[CouponResponse], error) {
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
	if filter.Active != nil {
		f = f.With("active", *filter.Active)
	}
	if filter.Type != "" {
		f = f.With("type", filter.Type)
	}

	coupons, total, err := s.couponRepo.FindAll(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	items := make([]CouponResponse, len(coupons))
	for i := range coupons {
		items[i] = ToCouponResponse(&coupons[i])
	}
	result := shared.NewPaginated(items, total, f.Page, f.Limit())
	return &result, nil
}

// Update changes a coupon's value, terms and active flag
func (s *CouponService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateCouponRequest) (*CouponResponse, error) {
	coupon, err := s.couponRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Value != nil {
		if err := coupon.SetValue(*req.Value); err != nil {
			return nil, err
		}
	}
	terms := marketing.CouponTerms{
		Description:    coupon.Description,
		MinOrderAmount: coupon.MinOrderAmount,
		MaxDiscount:    coupon.MaxDiscount,
		UsageLimit:     coupon.UsageLimit,
		StartsAt:       coupon.StartsAt,
		EndsAt:         coupon.EndsAt,
	}
	if req.Description != nil {
		terms.Description = *req.Description
	}
	if req.MinOrderAmount != nil {
		terms.MinOrderAmount = *req.MinOrderAmount
	}
	if req.MaxDiscount != nil {
		terms.MaxDiscount = req.MaxDiscount
	}
	if req.UsageLimit != nil {
		terms.UsageLimit = req.UsageLimit
	}
	if req.StartsAt != nil {
		terms.StartsAt = req.StartsAt
	}
	if req.EndsAt != nil {
		terms.EndsAt = req.EndsAt
	}
	if err := coupon.SetTerms(terms); err != nil {
		return nil, err
	}
	if req.Active != nil {
		coupon.SetActive(*req.Active)
	}

	if err := s.couponRepo.Save(ctx, coupon); err != nil {
		return nil, err
	}
	s.logger.Info("Coupon updated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("code", coupon.Code))

	response := ToCouponResponse(coupon)
	return &response, nil
}

// Delete soft-deletes a coupon. Orders keep their coupon code.
func (s *CouponService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.couponRepo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.logger.Info("Coupon deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("coupon_id", id.String()))
	return nil
}

// Validate reports whether a code applies to a cart and the discount it
// gives. An unusable coupon is a normal outcome, not an error.
func (s *CouponService) Validate(ctx context.Context, tenantID uuid.UUID, req ValidateCouponRequest) (*CouponValidationResponse, error) {
	if req.Subtotal.IsNegative() {
		return nil, shared.InvalidInput("Subtotal cannot be negative")
	}
	code := marketing.NormalizeCode(req.Code)
	result := &CouponValidationResponse{Code: code, Discount: decimal.Zero}

	coupon, err := s.couponRepo.FindByCode(ctx, tenantID, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			result.Reason = "Unknown coupon code"
			return result, nil
		}
		return nil, err
	}
	result.Type = string(coupon.Type)
	result.FreeShipping = coupon.IsFreeShipping()

	shipping := decimal.Zero
	if req.Shipping != nil {
		shipping = *req.Shipping
	} else if coupon.IsFreeShipping() {
		org, err := s.orgRepo.FindByID(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		shipping = org.Settings.ShippingFee
	}

	discount, err := coupon.Discount(req.Subtotal, shipping, s.now())
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			result.Reason = domainErr.Message
			return result, nil
		}
		return nil, err
	}
	result.Valid = true
	result.Discount = discount
	return result, nil
}
