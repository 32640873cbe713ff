package handler

import (
	"github.com/gin-gonic/gin"

	inventoryapp "github.com/smartstore/backend/internal/application/inventory"
)

// IdempotencyKeyHeader may carry the idempotency key instead of the body
const IdempotencyKeyHeader = "Idempotency-Key"

// InventoryHandler handles stock levels, movements and alerts
type InventoryHandler struct {
	BaseHandler
	inventoryService *inventoryapp.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventoryService *inventoryapp.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

// ListStock godoc
// @Summary      List stock levels
// @Tags         inventory
// @Produce      json
// @Param        warehouse_id query string false "Warehouse ID" format(uuid)
// @Param        product_id query string false "Product ID" format(uuid)
// @Param        out_of_stock query bool false "Only items with no stock left"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]inventoryapp.StockResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory [get]
func (h *InventoryHandler) ListStock(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter inventoryapp.StockListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.inventoryService.ListStock(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Page(&h.BaseHandler, c, page)
}

// ListMovements godoc
// @Summary      List stock movements
// @Tags         inventory
// @Produce      json
// @Param        warehouse_id query string false "Warehouse ID" format(uuid)
// @Param        product_id query string false "Product ID" format(uuid)
// @Param        type query string false "Movement type"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]inventoryapp.MovementResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter inventoryapp.MovementListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.inventoryService.ListMovements(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Page(&h.BaseHandler, c, page)
}

// RecordMovement godoc
// @Summary      Record a stock movement
// @Description  Apply a manual movement. A repeated idempotency key returns the original movements with status 200.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Idempotency key"
// @Param        request body inventoryapp.RecordMovementRequest true "Movement"
// @Success      201 {object} APIResponse[inventoryapp.MovementResult]
// @Success      200 {object} APIResponse[inventoryapp.MovementResult]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/movements [post]
func (h *InventoryHandler) RecordMovement(c *gin.Context) {
	tenantID, userID, ok := h.principal(c)
	if !ok {
		return
	}

	var req inventoryapp.RecordMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader(IdempotencyKeyHeader)
	}

	result, err := h.inventoryService.RecordMovement(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.movementResult(c, result)
}

// Transfer godoc
// @Summary      Transfer stock
// @Description  Move stock between two warehouses atomically
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Idempotency key"
// @Param        request body inventoryapp.TransferRequest true "Transfer"
// @Success      201 {object} APIResponse[inventoryapp.MovementResult]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/transfers [post]
func (h *InventoryHandler) Transfer(c *gin.Context) {
	tenantID, userID, ok := h.principal(c)
	if !ok {
		return
	}

	var req inventoryapp.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader(IdempotencyKeyHeader)
	}

	result, err := h.inventoryService.Transfer(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.movementResult(c, result)
}

func (h *InventoryHandler) movementResult(c *gin.Context, result *inventoryapp.MovementResult) {
	if result.Replayed {
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}

// ListAlerts godoc
// @Summary      List low-stock alerts
// @Tags         inventory
// @Produce      json
// @Param        status query string false "Alert status" Enums(OPEN, ACKNOWLEDGED, RESOLVED)
// @Param        product_id query string false "Product ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]inventoryapp.AlertResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/alerts [get]
func (h *InventoryHandler) ListAlerts(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter inventoryapp.AlertListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.inventoryService.ListAlerts(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Page(&h.BaseHandler, c, page)
}

// AcknowledgeAlert godoc
// @Summary      Acknowledge a low-stock alert
// @Tags         inventory
// @Produce      json
// @Param        id path string true "Alert ID" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.AlertResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/alerts/{id}/acknowledge [post]
func (h *InventoryHandler) AcknowledgeAlert(c *gin.Context) {
	tenantID, userID, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "alert")
	if !ok {
		return
	}

	alert, err := h.inventoryService.AcknowledgeAlert(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, alert)
}

// Forecast godoc
// @Summary      Forecast demand
// @Description  Projects stock-out date and reorder quantity from recent sales
// @Tags         inventory
// @Produce      json
// @Param        productId path string true "Product ID" format(uuid)
// @Param        lookback_days query int false "Sales history window in days" default(30)
// @Param        horizon_days query int false "Forecast horizon in days" default(14)
// @Success      200 {object} APIResponse[inventory.Forecast]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/forecast/{productId} [get]
func (h *InventoryHandler) Forecast(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	productID, ok := h.pathID(c, "productId", "product")
	if !ok {
		return
	}

	var req inventoryapp.ForecastRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	forecast, err := h.inventoryService.Forecast(c.Request.Context(), tenantID, productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, forecast)
}
