package handlers

import (
	"github.com/gofiber/fiber/v2"

	"onlineshop/internal/validate"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := currentUser(c); u != nil {
		data["User"] = u
	}
	return c.Render(tmpl, data)
}

func paramID(c *fiber.Ctx, name string) (int64, bool) {
	return validate.ID(c.Params(name))
}

// parseBody decodes a JSON body into v; it reports false after writing a 400.
func parseBody(c *fiber.Ctx, v any) (bool, error) {
	if err := c.BodyParser(v); err != nil {
		return false, badRequest(c, "body", "invalid request body")
	}
	return true, nil
}
