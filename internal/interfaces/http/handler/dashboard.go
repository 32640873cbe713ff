package handler

import (
	"github.com/gin-gonic/gin"

	tradeapp "github.com/smartstore/backend/internal/application/trade"
)

// DashboardHandler serves the store overview
type DashboardHandler struct {
	BaseHandler
	dashboardService *tradeapp.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *tradeapp.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Summary godoc
// @Summary      Dashboard summary
// @Description  Revenue, order and customer figures. Defaults to the last 30 days.
// @Tags         dashboard
// @Produce      json
// @Param        from query string false "Period start (YYYY-MM-DD)"
// @Param        to query string false "Period end (YYYY-MM-DD)"
// @Success      200 {object} APIResponse[tradeapp.DashboardSummary]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /dashboard/summary [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req tradeapp.SummaryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	summary, err := h.dashboardService.Summary(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}
