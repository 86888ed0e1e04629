package analytics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/puretrustgold/puretrust-api/services"
	"github.com/puretrustgold/puretrust-api/utils/response"
)

// AnalyticsHandler serves the operator dashboard
type AnalyticsHandler struct {
	analytics *services.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analytics *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Dashboard handles GET /api/v1/admin/dashboard (operator)
func (h *AnalyticsHandler) Dashboard(c *fiber.Ctx) error {
	stats, err := h.analytics.GetDashboardStats(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to load dashboard stats")
	}
	return response.Success(c, stats)
}
