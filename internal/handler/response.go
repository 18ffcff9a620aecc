package handler

import (
	"errors"
	"time"

	"go-farm-ledger/internal/ledger"
	"go-farm-ledger/internal/service"
	"go-farm-ledger/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Codes for failures that do not come from the ledger
const (
	CodeNotFound     = "NOT_FOUND"
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
)

var ledgerStatus = map[string]int{
	ledger.CodeItemNotFound:      fiber.StatusNotFound,
	ledger.CodeDuplicateItem:     fiber.StatusConflict,
	ledger.CodeDuplicateDelta:    fiber.StatusConflict,
	ledger.CodeInsufficientStock: fiber.StatusUnprocessableEntity,
	ledger.CodeInvalidInput:      fiber.StatusBadRequest,
	ledger.CodePersistenceFailed: fiber.StatusInternalServerError,
}

var nowUTC = func() time.Time { return time.Now().UTC() }

// ErrorJSON writes the standard error envelope
func ErrorJSON(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// respondError maps err onto a status and code
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return ErrorJSON(c, fiber.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrUserInactive),
		errors.Is(err, service.ErrSessionTimeout),
		errors.Is(err, service.ErrSessionReplaced),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, jwt.ErrInvalidToken),
		errors.Is(err, jwt.ErrMissingToken):
		return ErrorJSON(c, fiber.StatusUnauthorized, CodeUnauthorized, err.Error())
	case errors.Is(err, service.ErrWrongPassword):
		return ErrorJSON(c, fiber.StatusBadRequest, CodeBadRequest, err.Error())
	}

	code := ledger.Code(err)
	status, ok := ledgerStatus[code]
	if !ok {
		return ErrorJSON(c, fiber.StatusInternalServerError, ledger.CodeInternal, "Internal Server Error")
	}
	return ErrorJSON(c, status, code, err.Error())
}

// respondCommitted is respondError for writes. A persistence failure means
// the change is already applied in memory, so data goes out with the error.
func respondCommitted(c *fiber.Ctx, err error, data interface{}) error {
	if !errors.Is(err, ledger.ErrPersistence) {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    ledger.CodePersistenceFailed,
			"message": err.Error(),
		},
		"data": data,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return ErrorJSON(c, fiber.StatusBadRequest, CodeBadRequest, message)
}

// actorFrom reads the user set by middleware.RequireAuth
func actorFrom(c *fiber.Ctx) service.Actor {
	a := service.SystemActor
	if id, ok := c.Locals("user_id").(string); ok && id != "" {
		a.ID = id
	}
	if name, ok := c.Locals("user_name").(string); ok {
		a.Name = name
	}
	if email, ok := c.Locals("user_email").(string); ok {
		a.Email = email
	}
	return a
}

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}
