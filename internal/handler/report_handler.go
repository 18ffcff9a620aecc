package handler

import (
	"go-farm-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	service service.ReportService
}

func NewReportHandler(s service.ReportService) *ReportHandler {
	return &ReportHandler{service: s}
}

// GetReport returns the period report
// GET /api/v1/reports?period=daily|weekly|monthly
func (h *ReportHandler) GetReport(c *fiber.Ctx) error {
	report, err := h.service.Generate(c.Query("period", service.PeriodDaily))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}
