package handlers

import (
	"github.com/gofiber/fiber/v2"

	"onlineshop/internal/domain"
	applog "onlineshop/internal/log"
	"onlineshop/internal/services"
)

type OrderHandler struct {
	Orders *services.OrderService
}

type orderRequest struct {
	UserID int64         `json:"userId"`
	Items  []itemRequest `json:"items"`
}

type itemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// loadOrder fetches the order named by the :id param and checks the caller
// may see it. Orders of other users are reported as missing.
func (h *OrderHandler) loadOrder(c *fiber.Ctx) (*domain.Order, error) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, domain.Validationf("invalid order id")
	}
	o, err := h.Orders.GetOrder(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if !domain.CanAccessOrder(currentUser(c), o) {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": id, "owner_id": o.UserID})
		return nil, domain.NotFound("Order", id)
	}
	return o, nil
}

func (h *OrderHandler) List(c *fiber.Ctx) error {
	orders, err := h.Orders.ListOrders(c.UserContext())
	if err != nil {
		return fail(c, "order.list", err)
	}
	return c.JSON(orders)
}

func (h *OrderHandler) ListForUser(c *fiber.Ctx) error {
	userID, ok := paramID(c, "userId")
	if !ok {
		return badRequest(c, "userId", "invalid user id")
	}
	if err := selfOrPermission(currentUser(c), userID, domain.PermViewAllOrders); err != nil {
		return fail(c, "order.list", err)
	}
	orders, err := h.Orders.ListOrdersForUser(c.UserContext(), userID)
	if err != nil {
		return fail(c, "order.list", err)
	}
	return c.JSON(orders)
}

func (h *OrderHandler) Get(c *fiber.Ctx) error {
	o, err := h.loadOrder(c)
	if err != nil {
		return fail(c, "order.get", err)
	}
	return c.JSON(o)
}

// Create places an order for the caller, or for userId when the caller is staff.
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in orderRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	u := currentUser(c)
	if in.UserID == 0 {
		in.UserID = u.ID
	}
	if err := selfOrPermission(u, in.UserID, domain.PermManageAllOrders); err != nil {
		return fail(c, "order.create", err)
	}

	reqs := make([]services.ItemRequest, 0, len(in.Items))
	for _, it := range in.Items {
		reqs = append(reqs, services.ItemRequest{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	o, err := h.Orders.CreateOrder(c.UserContext(), in.UserID, reqs)
	if err != nil {
		return fail(c, "order.create", err)
	}
	applog.Audit(c, "order.create", map[string]any{
		"order_id": o.ID,
		"owner_id": o.UserID,
		"items":    len(o.Items),
		"total":    o.Total.StringFixed(2),
	})
	return c.Status(fiber.StatusCreated).JSON(o)
}

func (h *OrderHandler) AddItem(c *fiber.Ctx) error {
	o, err := h.loadOrder(c)
	if err != nil {
		return fail(c, "order.item.add", err)
	}
	var in itemRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	o, err = h.Orders.AddItemToOrder(c.UserContext(), o.ID, in.ProductID, in.Quantity)
	if err != nil {
		return fail(c, "order.item.add", err)
	}
	applog.Audit(c, "order.item.add", map[string]any{"order_id": o.ID, "product_id": in.ProductID, "quantity": in.Quantity})
	return c.JSON(o)
}

func (h *OrderHandler) UpdateItem(c *fiber.Ctx) error {
	o, err := h.loadOrder(c)
	if err != nil {
		return fail(c, "order.item.update", err)
	}
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return badRequest(c, "itemId", "invalid item id")
	}
	var in quantityRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	o, err = h.Orders.UpdateOrderItemQuantity(c.UserContext(), o.ID, itemID, in.Quantity)
	if err != nil {
		return fail(c, "order.item.update", err)
	}
	applog.Audit(c, "order.item.update", map[string]any{"order_id": o.ID, "item_id": itemID, "quantity": in.Quantity})
	return c.JSON(o)
}

func (h *OrderHandler) RemoveItem(c *fiber.Ctx) error {
	o, err := h.loadOrder(c)
	if err != nil {
		return fail(c, "order.item.remove", err)
	}
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return badRequest(c, "itemId", "invalid item id")
	}
	o, err = h.Orders.RemoveItemFromOrder(c.UserContext(), o.ID, itemID)
	if err != nil {
		return fail(c, "order.item.remove", err)
	}
	applog.Audit(c, "order.item.remove", map[string]any{"order_id": o.ID, "item_id": itemID})
	return c.JSON(o)
}

func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	o, err := h.loadOrder(c)
	if err != nil {
		return fail(c, "order.delete", err)
	}
	if err := h.Orders.DeleteOrder(c.UserContext(), o.ID); err != nil {
		return fail(c, "order.delete", err)
	}
	applog.Audit(c, "order.delete", map[string]any{"order_id": o.ID, "owner_id": o.UserID})
	return c.SendStatus(fiber.StatusNoContent)
}

// View renders the order page.
func (h *OrderHandler) View(c *fiber.Ctx) error {
	o, err := h.loadOrder(c)
	if err != nil {
		status := statusFor(err)
		msg := "Order not found"
		if status == fiber.StatusInternalServerError {
			applog.Error(c, "order.view", err, nil)
			msg = genericError
		}
		return c.Status(status).Render("notfound", fiber.Map{"Message": msg})
	}
	return render(c, "order", fiber.Map{"Order": newOrderView(o)})
}
