package handlers

import (
	"github.com/gofiber/fiber/v2"

	"onlineshop/internal/domain"
	applog "onlineshop/internal/log"
	"onlineshop/internal/services"
)

const sessionCookie = "sid"

// LoadUser attaches the session's user (if any) to the request.
func LoadUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sid := c.Cookies(sessionCookie); sid != "" {
			if u, err := auth.CurrentUser(c.UserContext(), sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

// RequireUser rejects anonymous callers with 401.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) == nil {
			applog.Security(c, "access.denied.anonymous", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
		}
		return c.Next()
	}
}

// RequirePermission rejects callers whose role lacks p: 401 when anonymous, 403 otherwise.
func RequirePermission(p domain.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil {
			applog.Security(c, "access.denied.anonymous", map[string]any{"permission": p.String()})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
		}
		if err := domain.Authorize(u, p); err != nil {
			return fail(c, "access", err)
		}
		return c.Next()
	}
}

// selfOrPermission allows u to act on the account userID if it is their own
// or their role holds p.
func selfOrPermission(u *domain.User, userID int64, p domain.Permission) error {
	if u != nil && u.ID == userID {
		return nil
	}
	return domain.Authorize(u, p)
}
