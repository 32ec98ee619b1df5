package handlers

import (
	"github.com/ecoboard/backend/internal/http/dto"
	"github.com/ecoboard/backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

func errorJSON(c *fiber.Ctx, status int, message string) error {
	reqID := middleware.GetRequestID(c)
	return c.Status(status).JSON(dto.ErrorResponse{Message: message, RequestID: reqID})
}

func validationError(c *fiber.Ctx, message string, errs []dto.FieldError) error {
	reqID := middleware.GetRequestID(c)
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Message:   message,
		Errors:    errs,
		RequestID: reqID,
	})
}

func internalError(c *fiber.Ctx) error {
	return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
}
