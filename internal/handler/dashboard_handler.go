package handler

import (
	"strconv"

	"go-farm-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetStockMovement returns daily inbound and outbound stock for charts
// Query params: period (daily, weekly, monthly, all), days (default 7, used
// without period), item_id
func (h *DashboardHandler) GetStockMovement(c *fiber.Ctx) error {
	q := service.MovementQuery{
		Period: c.Query("period"),
		ItemID: c.Query("item_id"),
	}
	if days := c.Query("days"); days != "" && q.Period == "" {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return badRequest(c, "days must be a positive integer")
		}
		q.Days = n
	}

	movement, err := h.service.GetStockMovement(q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(movement)
}

// GetDashboardStats returns overview statistics
func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	return c.JSON(h.service.GetDashboardStats())
}
