package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	applog "onlineshop/internal/log"
	"onlineshop/internal/services"
	"onlineshop/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func setSessionCookie(c *fiber.Ctx, sid string) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false,
	})
}

// Login binds a freshly generated session id to the user. A session id the
// client already carried is ended, never promoted.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in credentials
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	username, err := validate.Username(in.Username)
	if err != nil || validate.Password(in.Password) != nil {
		applog.Security(c, "auth.login.fail", map[string]any{"username": in.Username, "reason": "bad_format"})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": services.ErrBadCreds.Error()})
	}

	sid := uuid.NewString()
	u, err := h.Auth.Login(c.UserContext(), sid, username, in.Password)
	if err != nil {
		if errors.Is(err, services.ErrBadCreds) {
			applog.Security(c, "auth.login.fail", map[string]any{"username": username})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}
		return fail(c, "auth.login", err)
	}
	if old := c.Cookies(sessionCookie); old != "" && old != sid {
		if err := h.Auth.Logout(c.UserContext(), old); err != nil {
			return fail(c, "auth.login", err)
		}
	}
	setSessionCookie(c, sid)
	c.Locals("user", u)
	applog.Audit(c, "auth.login.success", map[string]any{"username": username})
	return c.JSON(u)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := c.Cookies(sessionCookie)
	if sid != "" {
		if err := h.Auth.Logout(c.UserContext(), sid); err != nil {
			return fail(c, "auth.logout", err)
		}
	}
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	applog.Audit(c, "auth.logout", nil)
	return c.SendStatus(fiber.StatusNoContent)
}

// Me returns the logged in user.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.JSON(currentUser(c))
}
