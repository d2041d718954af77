package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onlineshop/internal/domain"
	"onlineshop/internal/services"
)

func TestItemWorkflow(t *testing.T) {
	f := newFixture(t)
	o, err := f.svc.Orders.CreateOrder(f.ctx, f.user.ID, nil)
	require.NoError(t, err)

	it, err := f.svc.Items.CreateItem(f.ctx, o.ID, f.widget.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, "Widget", it.ProductName)
	assert.True(t, it.Price.Equal(dec("5.00")))
	assert.True(t, it.Subtotal().Equal(dec("20.00")))
	assert.Equal(t, 6, f.stock(t, f.widget.ID))
	assert.True(t, f.svc.Items.ItemExists(f.ctx, it.ID))

	it, err = f.svc.Items.UpdateItem(f.ctx, it.ID, 9)
	require.NoError(t, err)
	assert.Equal(t, 9, it.Quantity)
	assert.Equal(t, 1, f.stock(t, f.widget.ID))

	// growing past what is on hand fails and leaves the line as it was
	_, err = f.svc.Items.UpdateItem(f.ctx, it.ID, 11)
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)
	got, err := f.svc.Items.GetItem(f.ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Quantity)
	assert.Equal(t, 1, f.stock(t, f.widget.ID))

	lines, err := f.svc.Items.ListItemsByOrder(f.ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	require.NoError(t, f.svc.Items.DeleteItem(f.ctx, it.ID))
	assert.Equal(t, 10, f.stock(t, f.widget.ID))
	assert.False(t, f.svc.Items.ItemExists(f.ctx, it.ID))
	assert.False(t, f.svc.Items.ItemExists(f.ctx, it.ID), "repeat lookups stay false")
}

func TestItemWorkflowErrors(t *testing.T) {
	f := newFixture(t)
	o, err := f.svc.Orders.CreateOrder(f.ctx, f.user.ID, nil)
	require.NoError(t, err)

	_, err = f.svc.Items.CreateItem(f.ctx, o.ID, f.widget.ID, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.svc.Items.CreateItem(f.ctx, o.ID, f.widget.ID, 11)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	_, err = f.svc.Items.CreateItem(f.ctx, 404, f.widget.ID, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.Items.UpdateItem(f.ctx, 404, 1)
	assert.EqualError(t, err, "OrderItem with ID 404 was not found.")
	assert.ErrorIs(t, f.svc.Items.DeleteItem(f.ctx, 404), domain.ErrNotFound)
	_, err = f.svc.Items.ListItemsByOrder(f.ctx, 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, f.svc.Items.ItemExists(f.ctx, 404))

	assert.Equal(t, 10, f.stock(t, f.widget.ID))
}

func TestCreateItemAllowsSecondLineForSameProduct(t *testing.T) {
	f := newFixture(t)
	o, err := f.svc.Orders.CreateOrder(f.ctx, f.user.ID, []services.ItemRequest{{ProductID: f.widget.ID, Quantity: 1}})
	require.NoError(t, err)

	_, err = f.svc.Items.CreateItem(f.ctx, o.ID, f.widget.ID, 2)
	require.NoError(t, err)

	o, err = f.svc.Orders.GetOrder(f.ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, o.Items, 2)
	assert.True(t, o.Total.Equal(dec("15.00")))
}
