package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/shelf-inventory/internal/application/dto"
	"github.com/jhoicas/shelf-inventory/internal/domain"
)

var statusByKind = map[domain.Kind]int{
	domain.KindNotFound:           fiber.StatusNotFound,
	domain.KindInvalidArgument:    fiber.StatusBadRequest,
	domain.KindInsufficientStock:  fiber.StatusUnprocessableEntity,
	domain.KindDuplicateProduct:   fiber.StatusConflict,
	domain.KindConflict:           fiber.StatusConflict,
	domain.KindQueryFailure:       fiber.StatusServiceUnavailable,
	domain.KindStorageUnavailable: fiber.StatusServiceUnavailable,
	domain.KindProductInUse:       fiber.StatusConflict,
	domain.KindUnauthorized:       fiber.StatusUnauthorized,
}

// writeError responde err como ErrorResponse. Los errores fuera de la taxonomía de dominio
// se registran y se responden con un 500 genérico.
func writeError(c *fiber.Ctx, err error) error {
	kind := domain.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = fiber.StatusInternalServerError
	}
	ev := requestLog(c).Warn()
	if status >= fiber.StatusInternalServerError {
		ev = requestLog(c).Error()
	}
	ev.Err(err).Str("code", string(kind)).Int("status", status).Msg("request failed")
	return c.Status(status).JSON(dto.ErrorResponse{Code: string(kind), Message: domain.PublicReason(err)})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: string(domain.KindInvalidArgument), Message: message})
}
