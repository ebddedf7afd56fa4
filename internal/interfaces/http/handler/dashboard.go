package handler

import (
	dashboardapp "github.com/freelancedesk/backend/internal/application/dashboard"
	"github.com/gin-gonic/gin"
)

// DashboardHandler handles the dashboard summary endpoint
type DashboardHandler struct {
	BaseHandler
	dashboardService *dashboardapp.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *dashboardapp.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// RegisterRoutes registers dashboard routes
func (h *DashboardHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/dashboard", h.Summary)
}

// Summary godoc
// @ID getDashboardSummary
// @Summary Aggregate invoice, project and todo counts for the account
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} APIResponse[dashboard.Summary]
// @Failure 401 {object} ErrorResponse
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	summary, err := h.dashboardService.GetSummary(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}
