package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/mariano55555/bodega-sub009/internal/application/dto"
	"github.com/mariano55555/bodega-sub009/internal/domain"
	"github.com/mariano55555/bodega-sub009/pkg/logger"
)

// respondError traduce errores de dominio a respuestas HTTP.
// Los conflictos de concurrencia se marcan retryable para que el cliente repita la operación.
func respondError(c *fiber.Ctx, log *logger.Logger, err error) error {
	status, body := classify(err)
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
		body.Message = "error interno"
	}
	return c.Status(status).JSON(body)
}

func classify(err error) (int, dto.ErrorResponse) {
	body := dto.ErrorResponse{Message: err.Error()}
	var lineErr *domain.LinePostingError
	if errors.As(err, &lineErr) {
		body.Line = lineErr.Line
	}
	switch {
	case domain.IsRetryable(err):
		body.Code, body.Retryable = "CONCURRENCY_CONFLICT", true
		return fiber.StatusServiceUnavailable, body
	case errors.Is(err, domain.ErrInvalidQuantity):
		body.Code = "INVALID_QUANTITY"
		return fiber.StatusBadRequest, body
	case errors.Is(err, domain.ErrRejectionReasonRequired):
		body.Code = "REJECTION_REASON_REQUIRED"
		return fiber.StatusBadRequest, body
	case errors.Is(err, domain.ErrInvalidInput):
		body.Code = "VALIDATION"
		return fiber.StatusBadRequest, body
	case errors.Is(err, domain.ErrNotFound):
		body.Code = "NOT_FOUND"
		return fiber.StatusNotFound, body
	case errors.Is(err, domain.ErrForbidden):
		body.Code = "FORBIDDEN"
		return fiber.StatusForbidden, body
	case errors.Is(err, domain.ErrInsufficientStock):
		body.Code = "INSUFFICIENT_STOCK"
		return fiber.StatusConflict, body
	case errors.Is(err, domain.ErrIllegalTransition):
		body.Code = "ILLEGAL_TRANSITION"
		return fiber.StatusConflict, body
	case errors.Is(err, domain.ErrBackdatedMovement):
		body.Code = "BACKDATED_MOVEMENT"
		return fiber.StatusConflict, body
	case errors.Is(err, domain.ErrDuplicate):
		body.Code = "DUPLICATE"
		return fiber.StatusConflict, body
	case errors.Is(err, domain.ErrConflict):
		body.Code = "CONFLICT"
		return fiber.StatusConflict, body
	}
	body.Code = "INTERNAL"
	return fiber.StatusInternalServerError, body
}
