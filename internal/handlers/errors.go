package handlers

import (
	"context"
	"errors"

	"crackerstore/internal/orderapi"
	"crackerstore/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// validationFailed answers 400 with per-field messages.
func validationFailed(c *fiber.Ctx, fields map[string]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  fields,
	})
}

// structErrors converts validator errors for request bodies.
func structErrors(err error) map[string]string {
	errorMessages := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errorMessages["body"] = err.Error()
		return errorMessages
	}
	for _, e := range validationErrors {
		errorMessages[e.Field()] = "Field '" + e.Field() + "' failed on the '" + e.Tag() + "' tag"
	}
	return errorMessages
}

func invalidBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}

func sessionNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"message": "Session not found",
	})
}

// backendFailure maps errors from the order backend onto HTTP responses.
func backendFailure(c *fiber.Ctx, message string, err error) error {
	var apiErr *orderapi.APIError
	switch {
	case errors.Is(err, orderapi.ErrSessionExpired), errors.Is(err, orderapi.ErrMissingCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Your admin session has expired. Please log in again.",
			"error":   err.Error(),
			"reauth":  true,
		})
	case errors.Is(err, services.ErrSessionNotFound):
		return sessionNotFound(c)
	case errors.Is(err, context.DeadlineExceeded):
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
			"message": message,
			"error":   "order backend timed out",
		})
	case errors.As(err, &apiErr):
		body := fiber.Map{
			"message": message,
			"error":   apiErr.Message,
		}
		if len(apiErr.Details) > 0 {
			body["details"] = apiErr.Details
		}
		return c.Status(fiber.StatusBadGateway).JSON(body)
	case errors.Is(err, orderapi.ErrRequestFailed):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg(message)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	}
}
