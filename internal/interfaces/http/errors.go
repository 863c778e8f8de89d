package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

// ErrorHandler traduce los errores devueltos por handlers y middlewares a dto.ErrorResponse.
// Los 5xx se registran; su detalle no sale en la respuesta.
func ErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, code := classify(err)
		resp := dto.ErrorResponse{
			StatusCode: status,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			Path:       c.Path(),
			Message:    err.Error(),
			Error:      code,
		}
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			resp.Cause = verr.Issues
		}
		if status >= fiber.StatusInternalServerError {
			log.Error().Err(err).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
				Msg("error interno")
			if status == fiber.StatusInternalServerError {
				resp.Message = "Internal server error"
			}
		}
		return c.Status(status).JSON(resp)
	}
}

func classify(err error) (int, string) {
	var ferr *fiber.Error
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrServiceUnavailable):
		return fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"
	case errors.As(err, &ferr):
		return ferr.Code, utils.StatusMessage(ferr.Code)
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

// badRequest error de validación de un único campo.
func badRequest(field, rule, msg string) error {
	return domain.NewValidationError(field, rule, msg)
}
