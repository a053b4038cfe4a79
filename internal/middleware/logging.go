package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs every request once it has been handled. Request strings
// are copied since fiber reuses their buffers for the next request.
func RequestLogger(logger logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		entry := logger.WithFields(logrus.Fields{
			"method":   utils.CopyString(c.Method()),
			"path":     utils.CopyString(c.Path()),
			"status":   status,
			"duration": time.Since(start).Milliseconds(),
			"ip":       utils.CopyString(c.IP()),
			"operator": c.Locals(LocalOperatorID),
		})
		if status >= fiber.StatusInternalServerError {
			entry.Warn("Request failed")
		} else {
			entry.Info("Request processed")
		}
		return err
	}
}
