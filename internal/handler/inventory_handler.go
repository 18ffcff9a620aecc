package handler

import (
	"strconv"

	"go-farm-ledger/internal/ledger"
	"go-farm-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type InventoryHandler struct {
	service service.LedgerService
}

func NewInventoryHandler(s service.LedgerService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

// GetItems lists every item, or the single item of ?category=
// GET /api/v1/items
func (h *InventoryHandler) GetItems(c *fiber.Ctx) error {
	if category := c.Query("category"); category != "" {
		item, err := h.service.FindByCategory(category)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON([]ledger.StockItem{item})
	}
	return c.JSON(h.service.GetItems())
}

func (h *InventoryHandler) GetItem(c *fiber.Ctx) error {
	item, err := h.service.GetItem(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

func (h *InventoryHandler) CreateItem(c *fiber.Ctx) error {
	var req service.CreateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	item, err := h.service.CreateItem(c.UserContext(), &req, actorFrom(c))
	if err != nil {
		return respondCommitted(c, err, item)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Item created", "data": item})
}

// UpdateItem replaces descriptive attributes; quantity in the body is ignored
// PUT /api/v1/items/:id
func (h *InventoryHandler) UpdateItem(c *fiber.Ctx) error {
	var attrs ledger.Attributes
	if err := c.BodyParser(&attrs); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	item, err := h.service.UpdateItem(c.UserContext(), c.Params("id"), attrs, actorFrom(c))
	if err != nil {
		return respondCommitted(c, err, item)
	}
	return c.JSON(fiber.Map{"message": "Item updated", "data": item})
}

// AdjustStock applies a manual adjustment
// POST /api/v1/items/:id/adjustments
func (h *InventoryHandler) AdjustStock(c *fiber.Ctx) error {
	var req service.AdjustStockRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	d, err := h.service.AdjustStock(c.UserContext(), c.Params("id"), &req, actorFrom(c))
	if err != nil {
		return respondCommitted(c, err, d)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Stock adjusted", "data": d})
}

type restockRequest struct {
	RunID string `json:"run_id"`
}

// Restock tops up low stock items. Reusing a run_id is safe.
// POST /api/v1/restock
func (h *InventoryHandler) Restock(c *fiber.Ctx) error {
	var req restockRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid JSON")
		}
	}

	res, err := h.service.Restock(c.UserContext(), req.RunID, actorFrom(c))
	if err != nil {
		return respondCommitted(c, err, res)
	}
	return c.JSON(res)
}

// GetDeltas lists the delta log
// Query params: item_id, source, period, limit
func (h *InventoryHandler) GetDeltas(c *fiber.Ctx) error {
	filter := ledger.DeltaFilter{
		ItemID: c.Query("item_id"),
		Source: ledger.Source(c.Query("source")),
	}
	if filter.Source != "" && !filter.Source.Valid() {
		return badRequest(c, "Unknown source")
	}
	if period := c.Query("period"); period != "" {
		p, err := service.ResolvePeriod(period, nowUTC())
		if err != nil {
			return respondError(c, err)
		}
		filter.Window = p.Window
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return badRequest(c, "limit must be a non-negative integer")
		}
		filter.Limit = n
	}
	return c.JSON(h.service.Deltas(filter))
}

func (h *InventoryHandler) GetLowStock(c *fiber.Ctx) error {
	return c.JSON(h.service.LowStock())
}

func (h *InventoryHandler) GetSupplierNotifications(c *fiber.Ctx) error {
	return c.JSON(h.service.SupplierNotifications())
}

func (h *InventoryHandler) GetRestockDue(c *fiber.Ctx) error {
	return c.JSON(h.service.RestockDue())
}

// GetForecast returns the demand forecast of one item
// Query params: period (daily, weekly, monthly, all; default weekly)
func (h *InventoryHandler) GetForecast(c *fiber.Ctx) error {
	f, err := h.service.Forecast(c.Params("id"), c.Query("period", service.PeriodWeekly))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(f)
}

func (h *InventoryHandler) GetForecasts(c *fiber.Ctx) error {
	out, err := h.service.ForecastAll(c.Query("period", service.PeriodWeekly))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// AssignCategory picks the item whose weight band fits ?weight= (grams)
// GET /api/v1/items/assign-category
func (h *InventoryHandler) AssignCategory(c *fiber.Ctx) error {
	weight, err := strconv.Atoi(c.Query("weight"))
	if err != nil {
		return badRequest(c, "weight must be an integer")
	}
	item, err := h.service.AssignCategory(weight)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"weight": weight, "category": item.Category, "item": item})
}

// GetCost prices ?quantity= units of an item
// GET /api/v1/items/:id/cost
func (h *InventoryHandler) GetCost(c *fiber.Ctx) error {
	qty, err := decimal.NewFromString(c.Query("quantity"))
	if err != nil {
		return badRequest(c, "quantity must be a number")
	}
	quote, err := h.service.Cost(c.Params("id"), qty)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(quote)
}

// GetPackagingReadiness reports whether every item is above its reorder level
// GET /api/v1/packaging/readiness
func (h *InventoryHandler) GetPackagingReadiness(c *fiber.Ctx) error {
	return c.JSON(h.service.PackagingReadiness())
}

func (h *InventoryHandler) GetValuation(c *fiber.Ctx) error {
	return c.JSON(h.service.Valuation())
}

// Verify replays the delta log and reports mismatched items
// GET /api/v1/ledger/verify
func (h *InventoryHandler) Verify(c *fiber.Ctx) error {
	discrepancies := h.service.Verify()
	return c.JSON(fiber.Map{
		"consistent":    len(discrepancies) == 0,
		"discrepancies": discrepancies,
	})
}
