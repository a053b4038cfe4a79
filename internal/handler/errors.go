package handler

import (
	"errors"

	"github.com/aliyusifov99/inventory-management/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

type fieldDetail struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// respondError maps service errors onto HTTP statuses
func respondError(c *fiber.Ctx, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		details := make([]fieldDetail, len(verr.Fields))
		for i, f := range verr.Fields {
			details[i] = fieldDetail{Field: f.Field, Error: f.Err.Error()}
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed", "details": details})
	case errors.Is(err, service.ErrInvalidQuantity), errors.Is(err, service.ErrInvalidTransactionType):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
	case errors.Is(err, service.ErrTransactionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Transaction not found"})
	case errors.Is(err, service.ErrInsufficientStock):
		var stockErr *service.InsufficientStockError
		if errors.As(err, &stockErr) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":     err.Error(),
				"available": stockErr.Available,
				"requested": stockErr.Requested,
			})
		}
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrStoreUnavailable):
		logrus.WithError(err).WithField("path", utils.CopyString(c.Path())).Error("Ledger store unavailable")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Ledger store unavailable, please retry"})
	default:
		logrus.WithError(err).WithField("path", utils.CopyString(c.Path())).Error("Unhandled error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}
}
