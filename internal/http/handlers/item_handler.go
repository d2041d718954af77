package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "onlineshop/internal/log"
	"onlineshop/internal/services"
)

// ItemHandler exposes the raw order item workflow to staff.
type ItemHandler struct {
	Items *services.ItemService
}

type createItemRequest struct {
	OrderID   int64 `json:"orderId"`
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

func (h *ItemHandler) List(c *fiber.Ctx) error {
	its, err := h.Items.ListItems(c.UserContext())
	if err != nil {
		return fail(c, "item.list", err)
	}
	return c.JSON(its)
}

func (h *ItemHandler) ListByOrder(c *fiber.Ctx) error {
	orderID, ok := paramID(c, "orderId")
	if !ok {
		return badRequest(c, "orderId", "invalid order id")
	}
	its, err := h.Items.ListItemsByOrder(c.UserContext(), orderID)
	if err != nil {
		return fail(c, "item.list", err)
	}
	return c.JSON(its)
}

func (h *ItemHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "id", "invalid item id")
	}
	it, err := h.Items.GetItem(c.UserContext(), id)
	if err != nil {
		return fail(c, "item.get", err)
	}
	return c.JSON(it)
}

func (h *ItemHandler) Exists(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "id", "invalid item id")
	}
	return c.JSON(fiber.Map{"id": id, "exists": h.Items.ItemExists(c.UserContext(), id)})
}

func (h *ItemHandler) Create(c *fiber.Ctx) error {
	var in createItemRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	it, err := h.Items.CreateItem(c.UserContext(), in.OrderID, in.ProductID, in.Quantity)
	if err != nil {
		return fail(c, "item.create", err)
	}
	applog.Audit(c, "item.create", map[string]any{"item_id": it.ID, "order_id": it.OrderID, "quantity": it.Quantity})
	return c.Status(fiber.StatusCreated).JSON(it)
}

func (h *ItemHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "id", "invalid item id")
	}
	var in quantityRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	it, err := h.Items.UpdateItem(c.UserContext(), id, in.Quantity)
	if err != nil {
		return fail(c, "item.update", err)
	}
	applog.Audit(c, "item.update", map[string]any{"item_id": id, "quantity": it.Quantity})
	return c.JSON(it)
}

func (h *ItemHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "id", "invalid item id")
	}
	if err := h.Items.DeleteItem(c.UserContext(), id); err != nil {
		return fail(c, "item.delete", err)
	}
	applog.Audit(c, "item.delete", map[string]any{"item_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
