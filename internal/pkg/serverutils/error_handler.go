package serverutils

import (
	"errors"

	"ai-ghostwriter-be/internal/entity"
	"ai-ghostwriter-be/pkg/vectorindex"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders every error returned by a handler in the response envelope.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	status, body := mapError(err)
	return ctx.Status(status).JSON(body)
}

// ErrorHandlerMiddleware does the same for routes mounted on a plain router.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return ErrorHandler(ctx, err)
	}
}

func mapError(err error) (int, Response) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return fiber.StatusBadRequest, ValidationErrorResponse(verr.Fields)
	}

	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		return ferr.Code, ErrorResponse(ferr.Code, ferr.Message)
	}

	switch {
	case errors.Is(err, entity.ErrSourceNotFound), errors.Is(err, entity.ErrEditorSessionNotFound):
		return fiber.StatusNotFound, ErrorResponse(fiber.StatusNotFound, err.Error())
	case errors.Is(err, vectorindex.ErrIndexUnavailable):
		return fiber.StatusServiceUnavailable, ErrorResponse(fiber.StatusServiceUnavailable, "Storage temporarily unavailable")
	}

	return fiber.StatusInternalServerError, ErrorResponse(fiber.StatusInternalServerError, "Internal server error")
}
