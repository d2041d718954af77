package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"onlineshop/internal/domain"
	applog "onlineshop/internal/log"
	"onlineshop/internal/services"
)

const genericError = "Something went wrong. Please try again."

// statusFor maps the domain error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInvalidOperation):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrBadCreds):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes err as a JSON error body. Messages of domain errors are shown
// to the caller; anything else is logged and replaced by a generic message.
func fail(c *fiber.Ctx, action string, err error) error {
	status := statusFor(err)
	c.Status(status)
	switch status {
	case fiber.StatusInternalServerError:
		applog.Error(c, action, err, nil)
		return c.JSON(fiber.Map{"error": genericError})
	case fiber.StatusForbidden, fiber.StatusUnauthorized:
		applog.Security(c, action+".denied", map[string]any{"reason": err.Error()})
	default:
		applog.Info(c, action+".rejected", map[string]any{"reason": err.Error()})
	}
	return c.JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c *fiber.Ctx, field, msg string) error {
	applog.Security(c, "validation.fail", map[string]any{"field": field})
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// ErrorHandler is the fiber fallback for errors not handled by a route:
// JSON for the API, the notfound page otherwise.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := genericError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, nil)
		msg = genericError
	}
	c.Status(code)
	if strings.HasPrefix(c.Path(), "/api/") {
		return c.JSON(fiber.Map{"error": msg})
	}
	if rerr := render(c, "notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.SendString(msg)
	}
	return nil
}
