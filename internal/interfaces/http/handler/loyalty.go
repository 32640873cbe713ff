package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	loyaltyapp "github.com/smartstore/backend/internal/application/loyalty"
	recommendationapp "github.com/smartstore/backend/internal/application/recommendation"
)

// LoyaltyHandler serves a customer's points balance and ledger
type LoyaltyHandler struct {
	BaseHandler
	loyaltyService *loyaltyapp.LoyaltyService
}

// NewLoyaltyHandler creates a new LoyaltyHandler
func NewLoyaltyHandler(loyaltyService *loyaltyapp.LoyaltyService) *LoyaltyHandler {
	return &LoyaltyHandler{loyaltyService: loyaltyService}
}

// Balance godoc
// @Summary      Get loyalty balance
// @Description  Points, tier and redemption value of a customer
// @Tags         loyalty
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} APIResponse[loyaltyapp.BalanceResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id}/loyalty [get]
func (h *LoyaltyHandler) Balance(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "customer")
	if !ok {
		return
	}

	balance, err := h.loyaltyService.Balance(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, balance)
}

// Ledger godoc
// @Summary      List loyalty transactions
// @Tags         loyalty
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]loyaltyapp.TransactionResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id}/loyalty/transactions [get]
func (h *LoyaltyHandler) Ledger(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "customer")
	if !ok {
		return
	}

	var filter loyaltyapp.LedgerFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.loyaltyService.Ledger(c.Request.Context(), tenantID, id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Page(&h.BaseHandler, c, page)
}

// Adjust godoc
// @Summary      Adjust loyalty points
// @Description  Manual correction. The balance can never go negative.
// @Tags         loyalty
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Param        request body loyaltyapp.AdjustRequest true "Adjustment"
// @Success      200 {object} APIResponse[loyaltyapp.BalanceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id}/loyalty/adjust [post]
func (h *LoyaltyHandler) Adjust(c *gin.Context) {
	tenantID, userID, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "customer")
	if !ok {
		return
	}

	var req loyaltyapp.AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	balance, err := h.loyaltyService.Adjust(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, balance)
}

// RecommendationHandler serves product suggestions
type RecommendationHandler struct {
	BaseHandler
	recommendationService *recommendationapp.RecommendationService
}

// NewRecommendationHandler creates a new RecommendationHandler
func NewRecommendationHandler(recommendationService *recommendationapp.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recommendationService: recommendationService}
}

// ForCustomer godoc
// @Summary      Recommend products
// @Description  Products a customer is likely to buy, from purchase history
// @Tags         recommendations
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Param        limit query int false "Maximum results" default(10)
// @Success      200 {object} APIResponse[recommendationapp.RecommendationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id}/recommendations [get]
func (h *RecommendationHandler) ForCustomer(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "customer")
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}

	recs, err := h.recommendationService.ForCustomer(c.Request.Context(), tenantID, id, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, recs)
}
