package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	applog "onlineshop/internal/log"
	"onlineshop/internal/services"
)

type ProductHandler struct {
	Products *services.ProductService
}

type productRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

func (r productRequest) input() services.ProductInput {
	return services.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Quantity:    r.Quantity,
	}
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	ps, err := h.Products.ListProducts(c.UserContext())
	if err != nil {
		return fail(c, "product.list", err)
	}
	return c.JSON(ps)
}

func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "id", "invalid product id")
	}
	p, err := h.Products.GetProduct(c.UserContext(), id)
	if err != nil {
		return fail(c, "product.get", err)
	}
	return c.JSON(p)
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in productRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	p, err := h.Products.CreateProduct(c.UserContext(), in.input())
	if err != nil {
		return fail(c, "product.create", err)
	}
	applog.Audit(c, "product.create", map[string]any{"product_id": p.ID, "quantity": p.Quantity})
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "id", "invalid product id")
	}
	var in productRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	p, err := h.Products.UpdateProduct(c.UserContext(), id, in.input())
	if err != nil {
		return fail(c, "product.update", err)
	}
	applog.Audit(c, "product.update", map[string]any{"product_id": p.ID, "quantity": p.Quantity})
	return c.JSON(p)
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "id", "invalid product id")
	}
	if err := h.Products.DeleteProduct(c.UserContext(), id); err != nil {
		return fail(c, "product.delete", err)
	}
	applog.Audit(c, "product.delete", map[string]any{"product_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
