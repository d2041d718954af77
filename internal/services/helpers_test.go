package services_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"onlineshop/internal/domain"
	"onlineshop/internal/events"
	"onlineshop/internal/metrics"
	"onlineshop/internal/repos"
	"onlineshop/internal/services"
)

type fixture struct {
	ctx     context.Context
	store   *repos.Store
	svc     *services.Services
	events  *events.Memory
	metrics *metrics.ShopMetrics
	reg     *prometheus.Registry
	user    *domain.User
	widget  *domain.Product
}

// newFixture opens an in-memory shop with one registered user and the
// product Widget (stock 10, price 5.00).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	reg := prometheus.NewRegistry()
	f := &fixture{
		ctx:     context.Background(),
		store:   repos.NewStore(db),
		events:  &events.Memory{},
		metrics: metrics.NewShopMetricsWithRegisterer(reg),
		reg:     reg,
	}
	f.svc = services.New(f.store, f.metrics, f.events)

	f.user, err = f.svc.Users.CreateUser(f.ctx, services.UserInput{Username: "u1", Password: "secret", Role: "Registered"})
	require.NoError(t, err)
	f.widget = f.product(t, "Widget", "5.00", 10)
	return f
}

func (f *fixture) product(t *testing.T, name, price string, qty int) *domain.Product {
	t.Helper()
	p, err := f.svc.Products.CreateProduct(f.ctx, services.ProductInput{
		Name: name, Price: decimal.RequireFromString(price), Quantity: qty,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) stock(t *testing.T, productID int64) int {
	t.Helper()
	p, err := f.svc.Products.GetProduct(f.ctx, productID)
	require.NoError(t, err)
	return p.Quantity
}

// committedQuantity sums the product's units held by order lines.
func (f *fixture) committedQuantity(t *testing.T, productID int64) int {
	t.Helper()
	items, err := f.svc.Items.ListItems(f.ctx)
	require.NoError(t, err)
	total := 0
	for _, it := range items {
		if it.ProductID == productID {
			total += it.Quantity
		}
	}
	return total
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
