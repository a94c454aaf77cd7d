package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/merchkit/countdown/internal/app/repository"
	"github.com/merchkit/countdown/internal/app/service"
	"go.uber.org/zap"
)

// respondServiceError maps the service error taxonomy onto HTTP statuses.
// Anything unrecognized (including store unavailability) becomes a generic
// 500 so no internal detail leaks.
func respondServiceError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   verr.Kind.Error(),
			"details": verr.Details,
		})
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidRange):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, repository.ErrTimerNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "timer not found",
		})
	case errors.Is(err, service.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "forbidden",
		})
	default:
		logger.Error("timer request failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}
}
