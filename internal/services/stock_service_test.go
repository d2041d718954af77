package services_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onlineshop/internal/domain"
	"onlineshop/internal/events"
	"onlineshop/internal/repos"
)

func TestAdjustStockAppliesWithinUnitOfWork(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.InTx(f.ctx, func(uow *repos.UnitOfWork) error {
		q, err := f.svc.Stock.AdjustStock(f.ctx, uow, f.widget.ID, -4)
		require.NoError(t, err)
		assert.Equal(t, 6, q)
		q, err = f.svc.Stock.AdjustStock(f.ctx, uow, f.widget.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, 7, q)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, f.stock(t, f.widget.ID))
	assert.Equal(t, []events.Type{events.StockAdjusted, events.StockAdjusted}, f.events.Types())
}

func TestAdjustStockRejectsNegativeResult(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.InTx(f.ctx, func(uow *repos.UnitOfWork) error {
		_, err := f.svc.Stock.AdjustStock(f.ctx, uow, f.widget.ID, -11)
		return err
	})
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 11, stockErr.Requested)
	assert.Equal(t, 10, stockErr.Available)
	assert.Equal(t, 10, f.stock(t, f.widget.ID))
	assert.Empty(t, f.events.Types())

	_, err = f.store.InTx(f.ctx, func(uow *repos.UnitOfWork) error {
		_, err := f.svc.Stock.AdjustStock(f.ctx, uow, 777, 1)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdjustStockRolledBackWithItsUnitOfWork(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.InTx(context.Background(), func(uow *repos.UnitOfWork) error {
		if _, err := f.svc.Stock.AdjustStock(f.ctx, uow, f.widget.ID, -5); err != nil {
			return err
		}
		return domain.InvalidOperationf("abort")
	})
	require.ErrorIs(t, err, domain.ErrInvalidOperation)
	assert.Equal(t, 10, f.stock(t, f.widget.ID))
	assert.Empty(t, f.events.Types())
}

func TestStockMetricsCountOnlyCommittedAdjustments(t *testing.T) {
	f := newFixture(t)
	adjustments := func() int {
		n, err := testutil.GatherAndCount(f.reg, "onlineshop_stock_adjustments_total")
		require.NoError(t, err)
		return n
	}

	_, err := f.store.InTx(f.ctx, func(uow *repos.UnitOfWork) error {
		if _, err := f.svc.Stock.AdjustStock(f.ctx, uow, f.widget.ID, -5); err != nil {
			return err
		}
		return domain.InvalidOperationf("abort")
	})
	require.ErrorIs(t, err, domain.ErrInvalidOperation)
	assert.Zero(t, adjustments())

	_, err = f.svc.Stock.Adjust(f.ctx, f.widget.ID, -5)
	require.NoError(t, err)
	assert.Equal(t, 1, adjustments())
}

func TestIsInStockAndAvailability(t *testing.T) {
	f := newFixture(t)

	ok, err := f.svc.Stock.IsInStock(f.ctx, f.widget.ID, 10)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.svc.Stock.IsInStock(f.ctx, f.widget.ID, 11)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = f.svc.Stock.IsInStock(f.ctx, 999, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	a, err := f.svc.Stock.Availability(f.ctx, f.widget.ID)
	require.NoError(t, err)
	assert.Equal(t, "IN_STOCK", a.Status)
	assert.Equal(t, 10, a.Qty)
}

func TestManualAdjust(t *testing.T) {
	f := newFixture(t)

	p, err := f.svc.Stock.Adjust(f.ctx, f.widget.ID, -8)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Quantity)

	_, err = f.svc.Stock.Adjust(f.ctx, f.widget.ID, -3)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	_, err = f.svc.Stock.Adjust(f.ctx, f.widget.ID, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	p, err = f.svc.Stock.Adjust(f.ctx, f.widget.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 7, p.Quantity)
}
