package handler

import (
	"strings"

	"go-farm-ledger/internal/model"
	"go-farm-ledger/internal/repository"
	"go-farm-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(s service.OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

// CreateOrder records a sale and commits stock
// POST /api/v1/orders
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var order model.Order
	if err := c.BodyParser(&order); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	if err := h.service.RecordOrder(c.UserContext(), &order, actorFrom(c)); err != nil {
		return respondCommitted(c, err, order)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Order recorded", "data": order})
}

// GetOrders lists orders
// Query params: status, category, search (customer, category or status)
func (h *OrderHandler) GetOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetOrders(repository.OrderFilter{
		Status:   model.OrderStatus(c.Query("status")),
		Category: c.Query("category"),
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(orders)
}

func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid order ID")
	}
	order, err := h.service.GetOrder(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

type updateStatusRequest struct {
	Status model.OrderStatus `json:"status"`
}

// UpdateStatus moves an order along; cancelling returns its stock
// PUT /api/v1/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid order ID")
	}
	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	order, err := h.service.UpdateStatus(c.UserContext(), id, req.Status, actorFrom(c))
	if err != nil {
		return respondCommitted(c, err, order)
	}
	return c.JSON(fiber.Map{"message": "Order updated", "data": order})
}

func (h *OrderHandler) GetRevenue(c *fiber.Ctx) error {
	period := c.Query("period", service.PeriodAll)
	total, err := h.service.GetRevenue(period)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"period": period, "revenue": total})
}

// GetCategorySales returns quantity and revenue per category for ?period=
func (h *OrderHandler) GetCategorySales(c *fiber.Ctx) error {
	period := c.Query("period", service.PeriodAll)
	rows, err := h.service.GetCategorySales(period)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"period": period, "data": rows})
}
