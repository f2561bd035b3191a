package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/servicehub-platform/internal/service"
)

// ReportsHandler exposes dashboard aggregation.
type ReportsHandler struct {
	service *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{service: reportService}
}

// Dashboard GET /reports/dashboard.
func (h *ReportsHandler) Dashboard(c *fiber.Ctx) error {
	dashboard, err := h.service.GetDashboard(c.UserContext())
	if err != nil {
		return err
	}
	return dataResponse(c, dashboard)
}
