package handler

import (
	"go-farm-ledger/internal/model"
	"go-farm-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type FarmerHandler struct {
	service service.FarmerService
}

func NewFarmerHandler(s service.FarmerService) *FarmerHandler {
	return &FarmerHandler{service: s}
}

// GetFarmers lists farmers, optionally filtered by ?search=
func (h *FarmerHandler) GetFarmers(c *fiber.Ctx) error {
	farmers, err := h.service.GetFarmers(c.Query("search"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(farmers)
}

func (h *FarmerHandler) GetFarmer(c *fiber.Ctx) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid farmer ID")
	}
	farmer, err := h.service.GetFarmer(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(farmer)
}

// GetFarmerSummary returns the farmer with purchase totals
// GET /api/v1/farmers/:id/summary
func (h *FarmerHandler) GetFarmerSummary(c *fiber.Ctx) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid farmer ID")
	}
	summary, err := h.service.GetFarmerSummary(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

func (h *FarmerHandler) CreateFarmer(c *fiber.Ctx) error {
	var farmer model.Farmer
	if err := c.BodyParser(&farmer); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	if err := h.service.CreateFarmer(&farmer, actorFrom(c)); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Farmer created", "data": farmer})
}

func (h *FarmerHandler) UpdateFarmer(c *fiber.Ctx) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid farmer ID")
	}
	var farmer model.Farmer
	if err := c.BodyParser(&farmer); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	updated, err := h.service.UpdateFarmer(id, &farmer, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Farmer updated", "data": updated})
}

func (h *FarmerHandler) DeleteFarmer(c *fiber.Ctx) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid farmer ID")
	}
	if err := h.service.DeleteFarmer(id, actorFrom(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Farmer deleted"})
}
