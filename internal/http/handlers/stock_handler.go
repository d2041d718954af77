package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "onlineshop/internal/log"
	"onlineshop/internal/services"
	"onlineshop/internal/validate"
)

type StockHandler struct {
	Stock *services.StockService
}

// InStock answers whether ?quantity= units (default 1) are available.
func (h *StockHandler) InStock(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "id", "invalid product id")
	}
	qty := 1
	if raw := c.Query("quantity"); raw != "" {
		if qty, ok = validate.Int(raw); !ok {
			return badRequest(c, "quantity", "quantity must be a whole number")
		}
	}
	in, err := h.Stock.IsInStock(c.UserContext(), id, qty)
	if err != nil {
		return fail(c, "stock.check", err)
	}
	av, err := h.Stock.Availability(c.UserContext(), id)
	if err != nil {
		return fail(c, "stock.check", err)
	}
	return c.JSON(fiber.Map{
		"productId": id,
		"quantity":  qty,
		"inStock":   in,
		"status":    av.Status,
	})
}

type stockRequest struct {
	Delta int `json:"delta"`
}

// Adjust applies a signed delta to a product's stock.
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "id", "invalid product id")
	}
	var in stockRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	p, err := h.Stock.Adjust(c.UserContext(), id, in.Delta)
	if err != nil {
		return fail(c, "stock.adjust", err)
	}
	applog.Audit(c, "stock.adjust", map[string]any{"product_id": id, "delta": in.Delta, "quantity": p.Quantity})
	return c.JSON(p)
}
