package loyalty

import (
	"time"

	"github.com/google/uuid"

	"github.com/smartstore/backend/internal/domain/loyalty"
	"github.com/smartstore/backend/internal/domain/partner"
)

// BalanceResponse is a customer's loyalty standing
type BalanceResponse struct {
	CustomerID     uuid.UUID `json:"customer_id"`
	Points         int64     `json:"points"`
	LifetimePoints int64     `json:"lifetime_points"`
	Tier           string    `json:"tier"`
	NextTier       string    `json:"next_tier,omitempty"`
	PointsToNext   int64     `json:"points_to_next_tier"`
}

// ToBalanceResponse converts a customer's loyalty fields
func ToBalanceResponse(c *partner.Customer) BalanceResponse {
	resp := BalanceResponse{
		CustomerID:     c.ID,
		Points:         c.LoyaltyPoints,
		LifetimePoints: c.LifetimePoints,
		Tier:           string(c.Tier),
	}
	if next, need := loyalty.NextTier(c.LifetimePoints); need > 0 {
		resp.NextTier = string(next)
		resp.PointsToNext = need
	}
	return resp
}

// AdjustRequest is a manual points correction
type AdjustRequest struct {
	Points int64  `json:"points" binding:"required"`
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// LedgerFilter pages the ledger
type LedgerFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// TransactionResponse is a ledger entry in API responses
type TransactionResponse struct {
	ID           uuid.UUID  `json:"id"`
	OrderID      *uuid.UUID `json:"order_id,omitempty"`
	Type         string     `json:"type"`
	Points       int64      `json:"points"`
	BalanceAfter int64      `json:"balance_after"`
	Description  string     `json:"description"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ToTransactionResponse converts a ledger entry
func ToTransactionResponse(t *loyalty.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:           t.ID,
		OrderID:      t.OrderID,
		Type:         string(t.Type),
		Points:       t.Points,
		BalanceAfter: t.BalanceAfter,
		Description:  t.Description,
		CreatedAt:    t.CreatedAt,
	}
}
