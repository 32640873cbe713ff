package handler

import (
	"github.com/gin-gonic/gin"

	integrationapp "github.com/smartstore/backend/internal/application/integration"
)

// IntegrationHandler handles sales channel integrations
type IntegrationHandler struct {
	BaseHandler
	integrationService *integrationapp.IntegrationService
}

// NewIntegrationHandler creates a new IntegrationHandler
func NewIntegrationHandler(integrationService *integrationapp.IntegrationService) *IntegrationHandler {
	return &IntegrationHandler{integrationService: integrationService}
}

// Create godoc
// @Summary      Connect a platform
// @Description  Stores credentials for WooCommerce, WhatsApp, Facebook or Instagram. Secrets are masked in responses.
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Param        request body integrationapp.CreateIntegrationRequest true "Integration"
// @Success      201 {object} APIResponse[integrationapp.IntegrationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations [post]
func (h *IntegrationHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.principal(c)
	if !ok {
		return
	}

	var req integrationapp.CreateIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	integration, err := h.integrationService.Create(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, integration)
}

// List godoc
// @Summary      List integrations
// @Tags         integrations
// @Produce      json
// @Param        platform query string false "Platform" Enums(WOOCOMMERCE, WHATSAPP, FACEBOOK, INSTAGRAM)
// @Param        status query string false "Status" Enums(ACTIVE, INACTIVE, ERROR)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]integrationapp.IntegrationResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations [get]
func (h *IntegrationHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter integrationapp.IntegrationListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.integrationService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Page(&h.BaseHandler, c, page)
}

// GetByID godoc
// @Summary      Get integration
// @Tags         integrations
// @Produce      json
// @Param        id path string true "Integration ID" format(uuid)
// @Success      200 {object} APIResponse[integrationapp.IntegrationResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations/{id} [get]
func (h *IntegrationHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "integration")
	if !ok {
		return
	}

	integration, err := h.integrationService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, integration)
}

// Update godoc
// @Summary      Update integration
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Param        id path string true "Integration ID" format(uuid)
// @Param        request body integrationapp.UpdateIntegrationRequest true "Changes"
// @Success      200 {object} APIResponse[integrationapp.IntegrationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations/{id} [put]
func (h *IntegrationHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "integration")
	if !ok {
		return
	}

	var req integrationapp.UpdateIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	integration, err := h.integrationService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, integration)
}

// Delete godoc
// @Summary      Delete integration
// @Tags         integrations
// @Param        id path string true "Integration ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations/{id} [delete]
func (h *IntegrationHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "integration")
	if !ok {
		return
	}

	if err := h.integrationService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// TestConnection godoc
// @Summary      Test connection
// @Description  Calls the platform with the stored credentials. A failed check is reported in the body, not as an error status.
// @Tags         integrations
// @Produce      json
// @Param        id path string true "Integration ID" format(uuid)
// @Success      200 {object} APIResponse[integrationapp.ConnectionTestResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations/{id}/test [post]
func (h *IntegrationHandler) TestConnection(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "integration")
	if !ok {
		return
	}

	result, err := h.integrationService.TestConnection(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Sync godoc
// @Summary      Run a sync
// @Description  Pushes products or stock to the platform, or pulls new orders from it
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Param        id path string true "Integration ID" format(uuid)
// @Param        request body integrationapp.SyncRequest true "Sync kind"
// @Success      200 {object} APIResponse[integration.SyncResult]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations/{id}/sync [post]
func (h *IntegrationHandler) Sync(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "integration")
	if !ok {
		return
	}

	var req integrationapp.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.integrationService.Sync(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
