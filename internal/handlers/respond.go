package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/campusworks/accounts-api/internal/apperr"
	"github.com/campusworks/accounts-api/internal/dto"
)

// respond writes the success envelope {code, detail, data}.
func respond(c *fiber.Ctx, status int, code, detail string, data any) error {
	return c.Status(status).JSON(dto.Envelope{Code: code, Detail: detail, Data: data})
}

// fail translates a service error into the error envelope
// {code, detail}. Domain errors carry their own status and code;
// anything else is masked as a 500 and logged.
func fail(c *fiber.Ctx, err error) error {
	if appErr := apperr.As(err); appErr != nil {
		return c.Status(appErr.Status).JSON(dto.Envelope{
			Code:   appErr.Code,
			Detail: appErr.Detail(),
		})
	}

	slog.Error("unhandled service error", "method", c.Method(), "path", c.Path(), "error", err.Error())
	return c.Status(fiber.StatusInternalServerError).JSON(dto.Envelope{
		Code:   apperr.ErrServerFailure.Code,
		Detail: "internal server error",
	})
}

// badRequest is the envelope for malformed bodies and failed DTO
// validation.
func badRequest(c *fiber.Ctx, detail string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.Envelope{
		Code:   apperr.ErrBadRequest.Code,
		Detail: detail,
	})
}
