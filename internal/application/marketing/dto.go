package marketing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartstore/backend/internal/domain/loyalty"
	"github.com/smartstore/backend/internal/domain/marketing"
)

// CreateCouponRequest represents a request to create a coupon
type CreateCouponRequest struct {
	Code           string           `json:"code" binding:"required,min=1,max=50"`
	Description    string           `json:"description" binding:"max=500"`
	Type           string           `json:"type" binding:"required,oneof=PERCENTAGE FIXED_AMOUNT FREE_SHIPPING"`
	Value          decimal.Decimal  `json:"value"`
	MinOrderAmount decimal.Decimal  `json:"min_order_amount"`
	MaxDiscount    *decimal.Decimal `json:"max_discount"`
	UsageLimit     *int64           `json:"usage_limit" binding:"omitempty,min=1"`
	StartsAt       *time.Time       `json:"starts_at"`
	EndsAt         *time.Time       `json:"ends_at"`
}

// UpdateCouponRequest updates a coupon. Nil fields are kept; the code and
// type cannot change.
type UpdateCouponRequest struct {
	Description    *string          `json:"description" binding:"omitempty,max=500"`
	Value          *decimal.Decimal `json:"value"`
	MinOrderAmount *decimal.Decimal `json:"min_order_amount"`
	MaxDiscount    *decimal.Decimal `json:"max_discount"`
	UsageLimit     *int64           `json:"usage_limit" binding:"omitempty,min=1"`
	StartsAt       *time.Time       `json:"starts_at"`
	EndsAt         *time.Time       `json:"ends_at"`
	Active         *bool            `json:"active"`
}

// CouponListFilter filters the coupon list
type CouponListFilter struct {
	Search   string `form:"search" binding:"max=100"`
	Active   *bool  `form:"active"`
	Type     string `form:"type" binding:"omitempty,oneof=PERCENTAGE FIXED_AMOUNT FREE_SHIPPING"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=code used_count created_at ends_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CouponResponse is a coupon in API responses
type CouponResponse struct {
	ID             uuid.UUID        `json:"id"`
	Code           string           `json:"code"`
	Description    string           `json:"description,omitempty"`
	Type           string           `json:"type"`
	Value          decimal.Decimal  `json:"value"`
	MinOrderAmount decimal.Decimal  `json:"min_order_amount"`
	MaxDiscount    *decimal.Decimal `json:"max_discount,omitempty"`
	UsageLimit     *int64           `json:"usage_limit,omitempty"`
	UsedCount      int64            `json:"used_count"`
	StartsAt       *time.Time       `json:"starts_at,omitempty"`
	EndsAt         *time.Time       `json:"ends_at,omitempty"`
	Active         bool             `json:"active"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ToCouponResponse converts a coupon
func ToCouponResponse(c *marketing.Coupon) CouponResponse {
	return CouponResponse{
		ID:             c.ID,
		Code:           c.Code,
		Description:    c.Description,
		Type:           string(c.Type),
		Value:          c.Value,
		MinOrderAmount: c.MinOrderAmount,
		MaxDiscount:    c.MaxDiscount,
		UsageLimit:     c.UsageLimit,
		UsedCount:      c.UsedCount,
		StartsAt:       c.StartsAt,
		EndsAt:         c.EndsAt,
		Active:         c.Active,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// ValidateCouponRequest checks a code against a cart. Shipping defaults to
// the organization's shipping fee.
type ValidateCouponRequest struct {
	Code     string           `json:"code" binding:"required,max=50"`
	Subtotal decimal.Decimal  `json:"subtotal"`
	Shipping *decimal.Decimal `json:"shipping"`
}

// CouponValidationResponse is the outcome of a coupon check
type CouponValidationResponse struct {
	Code         string          `json:"code"`
	Valid        bool            `json:"valid"`
	Type         string          `json:"type,omitempty"`
	Discount     decimal.Decimal `json:"discount"`
	FreeShipping bool            `json:"free_shipping"`
	Reason       string          `json:"reason,omitempty"`
}

// SegmentDTO selects campaign recipients
type SegmentDTO struct {
	Tiers       []string `json:"tiers" binding:"omitempty,dive,oneof=BRONZE SILVER GOLD PLATINUM"`
	OptedInOnly bool     `json:"opted_in_only"`
}

func (s SegmentDTO) toDomain() marketing.Segment {
	tiers := make([]loyalty.Tier, len(s.Tiers))
	for i, t := range s.Tiers {
		tiers[i] = loyalty.Tier(t)
	}
	return marketing.Segment{Tiers: tiers, OptedInOnly: s.OptedInOnly}
}

func toSegmentDTO(s marketing.Segment) SegmentDTO {
	tiers := make([]string, len(s.Tiers))
	for i, t := range s.Tiers {
		tiers[i] = string(t)
	}
	return SegmentDTO{Tiers: tiers, OptedInOnly: s.OptedInOnly}
}

// CampaignRequest creates or replaces the content of a draft campaign
type CampaignRequest struct {
	Name     string     `json:"name" binding:"required,min=1,max=200"`
	Channel  string     `json:"channel" binding:"required,oneof=EMAIL SMS WHATSAPP"`
	Subject  string     `json:"subject" binding:"max=300"`
	Template string     `json:"template" binding:"required,max=20000"`
	Segment  SegmentDTO `json:"segment"`
}

// ScheduleCampaignRequest sets the send time
type ScheduleCampaignRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

// CampaignListFilter filters the campaign list
type CampaignListFilter struct {
	Search   string `form:"search" binding:"max=100"`
	Status   string `form:"status" binding:"omitempty,oneof=DRAFT SCHEDULED SENDING SENT CANCELLED"`
	Channel  string `form:"channel" binding:"omitempty,oneof=EMAIL SMS WHATSAPP"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// CampaignResponse is a campaign in API responses
type CampaignResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Channel     string     `json:"channel"`
	Status      string     `json:"status"`
	Subject     string     `json:"subject,omitempty"`
	Template    string     `json:"template"`
	Segment     SegmentDTO `json:"segment"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	SentCount   int        `json:"sent_count"`
	FailedCount int        `json:"failed_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ToCampaignResponse converts a campaign
func ToCampaignResponse(c *marketing.Campaign) CampaignResponse {
	return CampaignResponse{
		ID:          c.ID,
		Name:        c.Name,
		Channel:     string(c.Channel),
		Status:      string(c.Status),
		Subject:     c.Subject,
		Template:    c.Template,
		Segment:     toSegmentDTO(c.Segment),
		ScheduledAt: c.ScheduledAt,
		StartedAt:   c.StartedAt,
		CompletedAt: c.CompletedAt,
		SentCount:   c.SentCount,
		FailedCount: c.FailedCount,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
