package handler

import (
	"go-farm-ledger/internal/model"
	"go-farm-ledger/internal/repository"
	"go-farm-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type PurchaseHandler struct {
	service service.PurchaseService
}

func NewPurchaseHandler(s service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{service: s}
}

// CreatePurchase records a purchase and adds its quantity to stock
// POST /api/v1/purchases
func (h *PurchaseHandler) CreatePurchase(c *fiber.Ctx) error {
	var purchase model.Purchase
	if err := c.BodyParser(&purchase); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	if err := h.service.RecordPurchase(c.UserContext(), &purchase, actorFrom(c)); err != nil {
		return respondCommitted(c, err, purchase)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Purchase recorded", "data": purchase})
}

// GetPurchases lists purchases
// Query params: farmer_id, item_id, sort (date, quantity, price)
func (h *PurchaseHandler) GetPurchases(c *fiber.Ctx) error {
	filter := repository.PurchaseFilter{
		ItemID: c.Query("item_id"),
		SortBy: c.Query("sort", repository.SortByDate),
	}
	switch filter.SortBy {
	case repository.SortByDate, repository.SortByQuantity, repository.SortByPrice:
	default:
		return badRequest(c, "sort must be one of date, quantity, price")
	}
	if raw := c.Query("farmer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "Invalid farmer ID")
		}
		filter.FarmerID = &id
	}

	purchases, err := h.service.GetPurchases(filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(purchases)
}

// GetExpenses returns total purchase cost for ?period=
func (h *PurchaseHandler) GetExpenses(c *fiber.Ctx) error {
	period := c.Query("period", service.PeriodAll)
	total, err := h.service.GetTotalExpenses(period)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"period": period, "total_expenses": total})
}
