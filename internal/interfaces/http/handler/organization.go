package handler

import (
	"github.com/gin-gonic/gin"

	identityapp "github.com/smartstore/backend/internal/application/identity"
)

// OrganizationHandler serves the caller's organization
type OrganizationHandler struct {
	BaseHandler
	orgService *identityapp.OrganizationService
}

// NewOrganizationHandler creates a new organization handler
func NewOrganizationHandler(orgService *identityapp.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService}
}

// Get godoc
// @Summary      Get organization
// @Description  Get the current tenant's organization and settings
// @Tags         organization
// @Produce      json
// @Success      200 {object} APIResponse[identityapp.OrganizationResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /organization [get]
func (h *OrganizationHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	org, err := h.orgService.Get(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, org)
}

// Update godoc
// @Summary      Update organization
// @Description  Update the organization name and settings
// @Tags         organization
// @Accept       json
// @Produce      json
// @Param        request body identityapp.UpdateOrganizationRequest true "Organization changes"
// @Success      200 {object} APIResponse[identityapp.OrganizationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /organization [put]
func (h *OrganizationHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req identityapp.UpdateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	org, err := h.orgService.Update(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, org)
}
