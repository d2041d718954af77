package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/require"

	"onlineshop/internal/domain"
	"onlineshop/internal/http/handlers"
	"onlineshop/internal/repos"
	"onlineshop/internal/services"
	"onlineshop/web"
)

// Seeded catalog: Widget 5.00 x10, Gadget 19.99 x4, Gizmo 129.99 x2, Doohickey 2.50 x0.
const (
	widgetID    = 1
	gadgetID    = 2
	doohickeyID = 4
)

type shop struct {
	app   *fiber.App
	svc   *services.Services
	store *repos.Store
	ctx   context.Context
}

// newShop serves the seeded demo shop. opts may tweak the deps (limiters).
func newShop(t *testing.T, opts ...func(*handlers.Deps)) *shop {
	t.Helper()
	ctx := context.Background()
	db, err := repos.OpenDB("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repos.Seed(ctx, db))

	store := repos.NewStore(db)
	svc := services.New(store, nil, nil)
	deps := handlers.NewDeps(svc)
	for _, o := range opts {
		o(deps)
	}

	app := handlers.NewApp(web.Engine())
	app.Use(requestid.New())
	handlers.Mount(app, deps)
	app.Use(handlers.NotFound)
	return &shop{app: app, svc: svc, store: store, ctx: ctx}
}

func extractCookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// do sends a JSON request, authenticated by sid when non-empty.
func (s *shop) do(t *testing.T, method, path string, body any, sid string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func (s *shop) login(t *testing.T, username, password string) string {
	t.Helper()
	resp, body := s.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"username": username, "password": password}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	sid := extractCookie(resp, "sid")
	require.NotEmpty(t, sid)
	return sid
}

func (s *shop) loginAs(t *testing.T, username string) string {
	return s.login(t, username, repos.DemoPassword)
}

// addUser creates an account directly through the service.
func (s *shop) addUser(t *testing.T, username string, role domain.Role) *domain.User {
	t.Helper()
	u, err := s.svc.Users.CreateUser(s.ctx, services.UserInput{
		Username: username, Password: repos.DemoPassword, Role: string(role),
	})
	require.NoError(t, err)
	return u
}

func (s *shop) user(t *testing.T, username string) *domain.User {
	t.Helper()
	u, err := s.svc.Users.GetUserByUsername(s.ctx, username)
	require.NoError(t, err)
	return u
}

func (s *shop) quantity(t *testing.T, productID int64) int {
	t.Helper()
	p, err := s.svc.Products.GetProduct(s.ctx, productID)
	require.NoError(t, err)
	return p.Quantity
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func errorMessage(t *testing.T, body []byte) string {
	t.Helper()
	return decode[map[string]string](t, body)["error"]
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
