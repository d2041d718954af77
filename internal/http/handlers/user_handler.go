package handlers

import (
	"github.com/gofiber/fiber/v2"

	"onlineshop/internal/domain"
	applog "onlineshop/internal/log"
	"onlineshop/internal/services"
)

type UserHandler struct {
	Users *services.UserService
}

type roleRequest struct {
	Role string `json:"role"`
}

// Register creates an account. Only an Admin may choose the role; everyone
// else gets a Registered account.
func (h *UserHandler) Register(c *fiber.Ctx) error {
	var in services.UserInput
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	if u := currentUser(c); u == nil || u.Role != domain.RoleAdmin {
		in.Role = string(domain.RoleRegistered)
	}
	u, err := h.Users.CreateUser(c.UserContext(), in)
	if err != nil {
		return fail(c, "user.create", err)
	}
	applog.Audit(c, "user.create", map[string]any{"new_user_id": u.ID, "role": u.Role})
	return c.Status(fiber.StatusCreated).JSON(u)
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	us, err := h.Users.ListUsers(c.UserContext())
	if err != nil {
		return fail(c, "user.list", err)
	}
	return c.JSON(us)
}

func (h *UserHandler) ByUsername(c *fiber.Ctx) error {
	u, err := h.Users.GetUserByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return fail(c, "user.get", err)
	}
	return c.JSON(u)
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "id", "invalid user id")
	}
	if err := selfOrPermission(currentUser(c), id, domain.PermManageUsers); err != nil {
		return fail(c, "user.get", err)
	}
	u, err := h.Users.GetUser(c.UserContext(), id)
	if err != nil {
		return fail(c, "user.get", err)
	}
	return c.JSON(u)
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "id", "invalid user id")
	}
	if err := selfOrPermission(currentUser(c), id, domain.PermManageUsers); err != nil {
		return fail(c, "user.update", err)
	}
	var in services.UserUpdate
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	u, err := h.Users.UpdateUser(c.UserContext(), id, in)
	if err != nil {
		return fail(c, "user.update", err)
	}
	applog.Audit(c, "user.update", map[string]any{"target_user_id": id, "password_changed": in.Password != ""})
	return c.JSON(u)
}

func (h *UserHandler) ChangeRole(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "id", "invalid user id")
	}
	var in roleRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	u, err := h.Users.ChangeUserRole(c.UserContext(), id, in.Role)
	if err != nil {
		return fail(c, "user.role", err)
	}
	applog.Audit(c, "user.role", map[string]any{"target_user_id": id, "role": u.Role})
	return c.JSON(u)
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "id", "invalid user id")
	}
	if u := currentUser(c); u != nil && u.ID == id {
		return fail(c, "user.delete", domain.InvalidOperationf("you cannot delete your own account"))
	}
	if err := h.Users.DeleteUser(c.UserContext(), id); err != nil {
		return fail(c, "user.delete", err)
	}
	applog.Audit(c, "user.delete", map[string]any{"target_user_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
