package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"onlineshop/internal/domain"
)

func TestShopMetricsRecordsOperations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewShopMetricsWithRegisterer(reg)

	m.ObserveOperation("order.add_item", time.Now(), nil)
	m.ObserveOperation("order.add_item", time.Now(), fmt.Errorf("wrap: %w", domain.InsufficientStock("Widget", 5, 1)))
	m.RecordStockAdjusted(-3)
	m.RecordStockAdjusted(2)
	m.RecordStockAdjusted(0)
	m.RecordStockRejected()
	m.RecordEvent("onlineshop.orders", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("order.add_item", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("order.add_item", "insufficient_stock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stockAdjustments.WithLabelValues("consume")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.stockUnits.WithLabelValues("consume")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.stockUnits.WithLabelValues("return")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stockRejections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("onlineshop.orders", "ok")))
}

func TestShopMetricsReuseRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewShopMetricsWithRegisterer(reg)
	second := NewShopMetricsWithRegisterer(reg)

	first.RecordStockRejected()
	assert.Equal(t, 1.0, testutil.ToFloat64(second.stockRejections))
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *ShopMetrics
	assert.NotPanics(t, func() {
		m.ObserveOperation("x", time.Now(), nil)
		m.RecordStockAdjusted(1)
		m.RecordStockRejected()
		m.RecordEvent("t", errors.New("x"))
	})
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "not_found", Outcome(domain.NotFound("Order", 1)))
	assert.Equal(t, "validation", Outcome(domain.Validationf("bad")))
	assert.Equal(t, "invalid_operation", Outcome(domain.InvalidOperationf("no")))
	assert.Equal(t, "unauthorized", Outcome(domain.Unauthorized("x", domain.RoleRegistered)))
	assert.Equal(t, "error", Outcome(errors.New("db down")))
}
