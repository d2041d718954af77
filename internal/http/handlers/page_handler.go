package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "onlineshop/internal/log"
	"onlineshop/internal/services"
	"onlineshop/internal/validate"
)

type PageHandler struct {
	Products *services.ProductService
}

// Catalog renders the product list, filtered by ?q= when present.
func (h *PageHandler) Catalog(c *fiber.Ctx) error {
	q, ok := validate.Q(c.Query("q"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "q"})
		return c.Status(fiber.StatusBadRequest).Render("notfound", fiber.Map{"Message": "Search contains unsupported characters"})
	}
	ps, err := h.Products.SearchProducts(c.UserContext(), q)
	if err != nil {
		applog.Error(c, "catalog.load", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load the catalog"})
	}
	return render(c, "catalog", fiber.Map{"Query": q, "Products": newProductViews(ps)})
}
