package handler

import (
	"github.com/gin-gonic/gin"

	marketingapp "github.com/smartstore/backend/internal/application/marketing"
)

// CampaignHandler handles marketing campaign endpoints
type CampaignHandler struct {
	BaseHandler
	campaignService *marketingapp.CampaignService
}

// NewCampaignHandler creates a new CampaignHandler
func NewCampaignHandler(campaignService *marketingapp.CampaignService) *CampaignHandler {
	return &CampaignHandler{campaignService: campaignService}
}

// Create godoc
// @Summary      Create campaign
// @Description  Creates a draft campaign. Subject and template use Go template syntax.
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Param        request body marketingapp.CampaignRequest true "Campaign"
// @Success      201 {object} APIResponse[marketingapp.CampaignResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /campaigns [post]
func (h *CampaignHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.principal(c)
	if !ok {
		return
	}

	var req marketingapp.CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	campaign, err := h.campaignService.Create(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, campaign)
}

// List godoc
// @Summary      List campaigns
// @Tags         campaigns
// @Produce      json
// @Param        search query string false "Search by name"
// @Param        status query string false "Status" Enums(DRAFT, SCHEDULED, SENDING, SENT, CANCELLED)
// @Param        channel query string false "Channel" Enums(EMAIL, SMS, WHATSAPP)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]marketingapp.CampaignResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /campaigns [get]
func (h *CampaignHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter marketingapp.CampaignListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.campaignService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Page(&h.BaseHandler, c, page)
}

// GetByID godoc
// @Summary      Get campaign
// @Tags         campaigns
// @Produce      json
// @Param        id path string true "Campaign ID" format(uuid)
// @Success      200 {object} APIResponse[marketingapp.CampaignResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /campaigns/{id} [get]
func (h *CampaignHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "campaign")
	if !ok {
		return
	}

	campaign, err := h.campaignService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, campaign)
}

// Update godoc
// @Summary      Update campaign
// @Description  Only draft and scheduled campaigns can be edited
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Param        id path string true "Campaign ID" format(uuid)
// @Param        request body marketingapp.CampaignRequest true "Campaign"
// @Success      200 {object} APIResponse[marketingapp.CampaignResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /campaigns/{id} [put]
func (h *CampaignHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "campaign")
	if !ok {
		return
	}

	var req marketingapp.CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	campaign, err := h.campaignService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, campaign)
}

// Delete godoc
// @Summary      Delete campaign
// @Tags         campaigns
// @Param        id path string true "Campaign ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /campaigns/{id} [delete]
func (h *CampaignHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "campaign")
	if !ok {
		return
	}

	if err := h.campaignService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Send godoc
// @Summary      Send campaign now
// @Description  Renders the template per recipient and delivers through the campaign channel
// @Tags         campaigns
// @Produce      json
// @Param        id path string true "Campaign ID" format(uuid)
// @Success      200 {object} APIResponse[marketingapp.CampaignResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /campaigns/{id}/send [post]
func (h *CampaignHandler) Send(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "campaign")
	if !ok {
		return
	}

	campaign, err := h.campaignService.SendNow(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, campaign)
}

// Schedule godoc
// @Summary      Schedule campaign
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Param        id path string true "Campaign ID" format(uuid)
// @Param        request body marketingapp.ScheduleCampaignRequest true "Send time"
// @Success      200 {object} APIResponse[marketingapp.CampaignResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /campaigns/{id}/schedule [post]
func (h *CampaignHandler) Schedule(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "campaign")
	if !ok {
		return
	}

	var req marketingapp.ScheduleCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	campaign, err := h.campaignService.Schedule(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, campaign)
}

// Cancel godoc
// @Summary      Cancel campaign
// @Tags         campaigns
// @Produce      json
// @Param        id path string true "Campaign ID" format(uuid)
// @Success      200 {object} APIResponse[marketingapp.CampaignResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /campaigns/{id}/cancel [post]
func (h *CampaignHandler) Cancel(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "campaign")
	if !ok {
		return
	}

	campaign, err := h.campaignService.Cancel(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, campaign)
}
