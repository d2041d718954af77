package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "onlineshop/internal/log"
	"onlineshop/internal/services"
	"onlineshop/internal/validate"
)

type SearchHandler struct {
	Products *services.ProductService
}

// Search matches ?term= against product names and descriptions.
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	term, ok := validate.Q(c.Query("term"))
	if !ok {
		return badRequest(c, "term", "search term contains unsupported characters")
	}
	ps, err := h.Products.SearchProducts(c.UserContext(), term)
	if err != nil {
		return fail(c, "product.search", err)
	}
	applog.Info(c, "product.search", map[string]any{"term": term, "results": len(ps)})
	return c.JSON(ps)
}
