package serverutils

import (
	"errors"
	"strings"

	"commerce-assistant/pkg/rag"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into the JSON
// error envelope. Domain sentinels pick the status; everything else is 500
// with a generic message.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code, message := StatusFor(err)
		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}

// StatusFor maps an error to an HTTP status and a client-safe message.
func StatusFor(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.Is(err, rag.ErrValidation):
		return fiber.StatusBadRequest, strings.TrimPrefix(err.Error(), rag.ErrValidation.Error()+": ")
	case errors.Is(err, rag.ErrTurnInProgress):
		return fiber.StatusConflict, "A previous message in this session is still being answered"
	case errors.Is(err, rag.ErrUnauthorized):
		return fiber.StatusForbidden, "Access denied"
	case errors.Is(err, rag.ErrExport):
		return fiber.StatusInternalServerError, "Report export failed"
	}
	return fiber.StatusInternalServerError, "Internal server error"
}
