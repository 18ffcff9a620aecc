package handler

import (
	"go-farm-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type FinanceHandler struct {
	service service.FinanceService
}

func NewFinanceHandler(s service.FinanceService) *FinanceHandler {
	return &FinanceHandler{service: s}
}

// GetSummary returns income, expenses, tax and profit
// Query params: period (default monthly), tax_rate (percent, default 20)
func (h *FinanceHandler) GetSummary(c *fiber.Ctx) error {
	var rate *decimal.Decimal
	if raw := c.Query("tax_rate"); raw != "" {
		r, err := decimal.NewFromString(raw)
		if err != nil {
			return badRequest(c, "tax_rate must be a number")
		}
		rate = &r
	}

	summary, err := h.service.Summary(c.Query("period", service.PeriodMonthly), rate)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

type calculationRequest struct {
	Income   decimal.Decimal `json:"income"`
	Revenue  decimal.Decimal `json:"revenue"`
	Expenses decimal.Decimal `json:"expenses"`
	TaxRate  decimal.Decimal `json:"tax_rate"`
	Tax      decimal.Decimal `json:"tax"`
}

// NetIncome computes income - expenses
// POST /api/v1/finance/net-income
func (h *FinanceHandler) NetIncome(c *fiber.Ctx) error {
	var req calculationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	v, err := h.service.NetIncome(req.Income, req.Expenses)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"net_income": v})
}

// Tax computes income * tax_rate / 100
// POST /api/v1/finance/tax
func (h *FinanceHandler) Tax(c *fiber.Ctx) error {
	var req calculationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	v, err := h.service.Tax(req.Income, req.TaxRate)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"tax": v})
}

// NetProfit computes revenue - expenses - tax
// POST /api/v1/finance/net-profit
func (h *FinanceHandler) NetProfit(c *fiber.Ctx) error {
	var req calculationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	v, err := h.service.NetProfit(req.Revenue, req.Expenses, req.Tax)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"net_profit": v})
}
