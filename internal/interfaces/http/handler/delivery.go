package handler

import (
	"github.com/gin-gonic/gin"

	tradeapp "github.com/smartstore/backend/internal/application/trade"
)

// DeliveryHandler handles shipment endpoints
type DeliveryHandler struct {
	BaseHandler
	deliveryService *tradeapp.DeliveryService
}

// NewDeliveryHandler creates a new DeliveryHandler
func NewDeliveryHandler(deliveryService *tradeapp.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{deliveryService: deliveryService}
}

// Create godoc
// @Summary      Create delivery
// @Description  Opens a shipment for an order, addressed to the order's shipping address
// @Tags         deliveries
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body tradeapp.CreateDeliveryRequest true "Courier and tracking"
// @Success      201 {object} APIResponse[tradeapp.DeliveryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/deliveries [post]
func (h *DeliveryHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c, "id", "order")
	if !ok {
		return
	}

	var req tradeapp.CreateDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	delivery, err := h.deliveryService.Create(c.Request.Context(), tenantID, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, delivery)
}

// ListByOrder godoc
// @Summary      List an order's deliveries
// @Tags         deliveries
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[[]tradeapp.DeliveryResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/deliveries [get]
func (h *DeliveryHandler) ListByOrder(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c, "id", "order")
	if !ok {
		return
	}

	deliveries, err := h.deliveryService.ListByOrder(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, deliveries)
}

// GetByID godoc
// @Summary      Get delivery
// @Tags         deliveries
// @Produce      json
// @Param        id path string true "Delivery ID" format(uuid)
// @Success      200 {object} APIResponse[tradeapp.DeliveryResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /deliveries/{id} [get]
func (h *DeliveryHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "delivery")
	if !ok {
		return
	}

	delivery, err := h.deliveryService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, delivery)
}

// UpdateTracking godoc
// @Summary      Update tracking
// @Tags         deliveries
// @Accept       json
// @Produce      json
// @Param        id path string true "Delivery ID" format(uuid)
// @Param        request body tradeapp.UpdateDeliveryRequest true "Courier and tracking"
// @Success      200 {object} APIResponse[tradeapp.DeliveryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /deliveries/{id} [put]
func (h *DeliveryHandler) UpdateTracking(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "delivery")
	if !ok {
		return
	}

	var req tradeapp.UpdateDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	delivery, err := h.deliveryService.UpdateTracking(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, delivery)
}

// UpdateStatus godoc
// @Summary      Advance delivery status
// @Description  Shipping and delivering a delivery also moves the order
// @Tags         deliveries
// @Accept       json
// @Produce      json
// @Param        id path string true "Delivery ID" format(uuid)
// @Param        request body tradeapp.DeliveryStatusRequest true "New status"
// @Success      200 {object} APIResponse[tradeapp.DeliveryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /deliveries/{id}/status [put]
func (h *DeliveryHandler) UpdateStatus(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "delivery")
	if !ok {
		return
	}

	var req tradeapp.DeliveryStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	delivery, err := h.deliveryService.UpdateStatus(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, delivery)
}
