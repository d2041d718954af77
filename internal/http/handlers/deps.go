package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"onlineshop/internal/domain"
	applog "onlineshop/internal/log"
	"onlineshop/internal/services"
)

// MaxRequestBodySize caps every request body.
const MaxRequestBodySize = 1 << 20 // 1 MiB

type Deps struct {
	Auth *services.AuthService

	AuthHandler    *AuthHandler
	UserHandler    *UserHandler
	ProductHandler *ProductHandler
	SearchHandler  *SearchHandler
	StockHandler   *StockHandler
	OrderHandler   *OrderHandler
	ItemHandler    *ItemHandler
	PageHandler    *PageHandler

	// Optional per-route limiters; nil leaves the route unthrottled.
	LoginLimiter  fiber.Handler
	SearchLimiter fiber.Handler
}

func NewDeps(svc *services.Services) *Deps {
	return &Deps{
		Auth:           svc.Auth,
		AuthHandler:    &AuthHandler{Auth: svc.Auth},
		UserHandler:    &UserHandler{Users: svc.Users},
		ProductHandler: &ProductHandler{Products: svc.Products},
		SearchHandler:  &SearchHandler{Products: svc.Products},
		StockHandler:   &StockHandler{Stock: svc.Stock},
		OrderHandler:   &OrderHandler{Orders: svc.Orders},
		ItemHandler:    &ItemHandler{Items: svc.Items},
		PageHandler:    &PageHandler{Products: svc.Products},
	}
}

// NewApp returns a fiber app with the shop's error handler and body limit.
func NewApp(views fiber.Views) *fiber.App {
	return fiber.New(fiber.Config{
		Views:        views,
		ErrorHandler: ErrorHandler,
		BodyLimit:    MaxRequestBodySize,
	})
}

// Limiter allows max requests per window and client IP, logging rate.<name>.hit
// when the limit is reached.
func Limiter(name string, max int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|" + name
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate."+name+".hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
}

func chain(hs ...fiber.Handler) []fiber.Handler {
	out := hs[:0:0]
	for _, h := range hs {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

// Mount registers the session loader, the API and the HTML pages on app.
func Mount(app *fiber.App, d *Deps) {
	app.Use(LoadUser(d.Auth))

	app.Get("/", d.PageHandler.Catalog)
	app.Get("/orders/:id", d.OrderHandler.View)

	api := app.Group("/api")

	api.Post("/auth/login", chain(d.LoginLimiter, d.AuthHandler.Login)...)
	api.Post("/auth/logout", d.AuthHandler.Logout)
	api.Get("/auth/me", RequireUser(), d.AuthHandler.Me)

	users := api.Group("/users")
	users.Post("/", d.UserHandler.Register)
	users.Get("/", RequirePermission(domain.PermManageUsers), d.UserHandler.List)
	users.Get("/by-username/:username", RequirePermission(domain.PermManageUsers), d.UserHandler.ByUsername)
	users.Get("/:id", RequireUser(), d.UserHandler.Get)
	users.Put("/:id", RequireUser(), d.UserHandler.Update)
	users.Put("/:id/role", RequirePermission(domain.PermManageUsers), d.UserHandler.ChangeRole)
	users.Delete("/:id", RequirePermission(domain.PermManageUsers), d.UserHandler.Delete)

	products := api.Group("/products")
	products.Get("/", d.ProductHandler.List)
	products.Get("/search", chain(d.SearchLimiter, d.SearchHandler.Search)...)
	products.Get("/:id", d.ProductHandler.Get)
	products.Get("/:id/in-stock", d.StockHandler.InStock)
	products.Post("/", RequirePermission(domain.PermManageCatalog), d.ProductHandler.Create)
	products.Put("/:id", RequirePermission(domain.PermManageCatalog), d.ProductHandler.Update)
	products.Delete("/:id", RequirePermission(domain.PermManageCatalog), d.ProductHandler.Delete)
	products.Post("/:id/stock", RequirePermission(domain.PermManageStock), d.StockHandler.Adjust)

	orders := api.Group("/orders", RequireUser())
	orders.Get("/", RequirePermission(domain.PermViewAllOrders), d.OrderHandler.List)
	orders.Get("/user/:userId", d.OrderHandler.ListForUser)
	orders.Post("/", RequirePermission(domain.PermPlaceOrders), d.OrderHandler.Create)
	orders.Get("/:id", d.OrderHandler.Get)
	orders.Delete("/:id", d.OrderHandler.Delete)
	orders.Post("/:id/items", d.OrderHandler.AddItem)
	orders.Put("/:id/items/:itemId", d.OrderHandler.UpdateItem)
	orders.Delete("/:id/items/:itemId", d.OrderHandler.RemoveItem)

	items := api.Group("/order-items", RequirePermission(domain.PermManageAllOrders))
	items.Get("/", d.ItemHandler.List)
	items.Post("/", d.ItemHandler.Create)
	items.Get("/order/:orderId", d.ItemHandler.ListByOrder)
	items.Get("/:id", d.ItemHandler.Get)
	items.Get("/:id/exists", d.ItemHandler.Exists)
	items.Put("/:id", d.ItemHandler.Update)
	items.Delete("/:id", d.ItemHandler.Delete)
}

// NotFound is the catch-all registered after every other route.
func NotFound(c *fiber.Ctx) error {
	return fiber.NewError(fiber.StatusNotFound, "Page not found")
}
