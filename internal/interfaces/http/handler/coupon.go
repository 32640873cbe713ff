package handler

import (
	"github.com/gin-gonic/gin"

	marketingapp "github.com/smartstore/backend/internal/application/marketing"
)

// CouponHandler handles coupon endpoints
type CouponHandler struct {
	BaseHandler
	couponService *marketingapp.CouponService
}

// NewCouponHandler creates a new CouponHandler
func NewCouponHandler(couponService *marketingapp.CouponService) *CouponHandler {
	return &CouponHandler{couponService: couponService}
}

// Create godoc
// @Summary      Create coupon
// @Description  Codes are stored upper-case and are unique per organization
// @Tags         coupons
// @Accept       json
// @Produce      json
// @Param        request body marketingapp.CreateCouponRequest true "Coupon"
// @Success      201 {object} APIResponse[marketingapp.CouponResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /coupons [post]
func (h *CouponHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req marketingapp.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	coupon, err := h.couponService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, coupon)
}

// List godoc
// @Summary      List coupons
// @Tags         coupons
// @Produce      json
// @Param        search query string false "Search by code"
// @Param        active query bool false "Active flag"
// @Param        type query string false "Coupon type" Enums(PERCENTAGE, FIXED_AMOUNT, FREE_SHIPPING)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]marketingapp.CouponResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /coupons [get]
func (h *CouponHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter marketingapp.CouponListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.couponService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Page(&h.BaseHandler, c, page)
}

// GetByID godoc
// @Summary      Get coupon
// @Tags         coupons
// @Produce      json
// @Param        id path string true "Coupon ID" format(uuid)
// @Success      200 {object} APIResponse[marketingapp.CouponResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /coupons/{id} [get]
func (h *CouponHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "coupon")
	if !ok {
		return
	}

	coupon, err := h.couponService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, coupon)
}

// Update godoc
// @Summary      Update coupon
// @Tags         coupons
// @Accept       json
// @Produce      json
// @Param        id path string true "Coupon ID" format(uuid)
// @Param        request body marketingapp.UpdateCouponRequest true "Coupon changes"
// @Success      200 {object} APIResponse[marketingapp.CouponResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /coupons/{id} [put]
func (h *CouponHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "coupon")
	if !ok {
		return
	}

	var req marketingapp.UpdateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	coupon, err := h.couponService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, coupon)
}

// Delete godoc
// @Summary      Delete coupon
// @Tags         coupons
// @Param        id path string true "Coupon ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /coupons/{id} [delete]
func (h *CouponHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "coupon")
	if !ok {
		return
	}

	if err := h.couponService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Validate godoc
// @Summary      Validate coupon
// @Description  Checks a code against a cart subtotal and returns the discount it would grant
// @Tags         coupons
// @Accept       json
// @Produce      json
// @Param        request body marketingapp.ValidateCouponRequest true "Code and cart"
// @Success      200 {object} APIResponse[marketingapp.CouponValidationResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /coupons/validate [post]
func (h *CouponHandler) Validate(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req marketingapp.ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.couponService.Validate(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
