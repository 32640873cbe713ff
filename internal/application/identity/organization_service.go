package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/identity"
)

// OrganizationService reads and updates the caller's organization
type OrganizationService struct {
	orgRepo identity.OrganizationRepository
	logger  *zap.Logger
}

// NewOrganizationService creates a new OrganizationService
func NewOrganizationService(orgRepo identity.OrganizationRepository, logger *zap.Logger) *OrganizationService {
	return &OrganizationService{orgRepo: orgRepo, logger: logger}
}

// Get returns the organization
func (s *OrganizationService) Get(ctx context.Context, tenantID uuid.UUID) (*OrganizationResponse, error) {
	org, err := s.orgRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	resp := ToOrganizationResponse(org)
	return &resp, nil
}

// Settings returns only the organization settings. Other services use it
// for currency, tax and loyalty defaults.
func (s *OrganizationService) Settings(ctx context.Context, tenantID uuid.UUID) (identity.OrganizationSettings, error) {
	org, err := s.orgRepo.FindByID(ctx, tenantID)
	if err != nil {
		return identity.OrganizationSettings{}, err
	}
	return org.Settings, nil
}

// Update applies the non-nil fields of req
func (s *OrganizationService) Update(ctx context.Context, tenantID uuid.UUID, req UpdateOrganizationRequest) (*OrganizationResponse, error) {
	org, err := s.orgRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := org.Rename(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.Email != nil {
		org.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}

	settings := org.Settings
	if req.Currency != nil {
		settings.Currency = *req.Currency
	}
	if req.Locale != nil {
		settings.Locale = *req.Locale
	}
	if req.Timezone != nil {
		settings.Timezone = *req.Timezone
	}
	if req.TaxRate != nil {
		settings.TaxRate = *req.TaxRate
	}
	if req.ShippingFee != nil {
		settings.ShippingFee = *req.ShippingFee
	}
	if req.LoyaltyEarnRate != nil {
		settings.LoyaltyEarnRate = *req.LoyaltyEarnRate
	}
	if req.LoyaltyRedeemRate != nil {
		settings.LoyaltyRedeemRate = *req.LoyaltyRedeemRate
	}
	if req.LowStockThreshold != nil {
		settings.LowStockThreshold = *req.LowStockThreshold
	}
	if req.NotificationEmail != nil {
		settings.NotificationEmail = strings.TrimSpace(*req.NotificationEmail)
	}
	if err := org.UpdateSettings(settings); err != nil {
		return nil, err
	}

	if err := s.orgRepo.Save(ctx, org); err != nil {
		return nil, err
	}

	s.logger.Info("Organization updated", zap.String("tenant_id", tenantID.String()))
	resp := ToOrganizationResponse(org)
	return &resp, nil
}
