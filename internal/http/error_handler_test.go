package handlers_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onlineshop/internal/http/handlers"
	"onlineshop/web"
)

func newErrorApp() *fiber.App {
	app := handlers.NewApp(web.Engine())
	app.Use(requestid.New())
	leak := func(c *fiber.Ctx) error {
		return errors.New("db timeout: secret trace")
	}
	app.Get("/err", leak)
	app.Get("/api/err", leak)
	app.Use(handlers.NotFound)
	return app
}

func TestErrorHandlerFriendlyMessage(t *testing.T) {
	app := newErrorApp()

	for _, path := range []string{"/err", "/api/err"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode, path)
		body, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(body), "Something went wrong", path)
		assert.NotContains(t, string(body), "secret", path)
		assert.NotContains(t, string(body), "db timeout", path)
	}
}

func TestUnknownRoutes(t *testing.T) {
	app := newErrorApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Page not found")
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/nowhere", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body, _ = io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"error":"Page not found"}`, string(body))
}
