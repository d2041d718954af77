package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"onlineshop/internal/domain"
)

// ShopMetrics holds the collectors for workflow operations, the stock ledger
// and event publishing. A nil *ShopMetrics records nothing.
type ShopMetrics struct {
	operations       *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	stockAdjustments *prometheus.CounterVec
	stockUnits       *prometheus.CounterVec
	stockRejections  prometheus.Counter
	events           *prometheus.CounterVec
}

func NewShopMetrics() *ShopMetrics {
	return NewShopMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func NewShopMetricsWithRegisterer(registerer prometheus.Registerer) *ShopMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &ShopMetrics{
		operations: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "onlineshop_operations_total",
			Help: "Workflow operations by operation and outcome",
		}, []string{"operation", "outcome"})),
		duration: register(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "onlineshop_operation_duration_seconds",
			Help:    "Duration of workflow operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, []string{"operation"})),
		stockAdjustments: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "onlineshop_stock_adjustments_total",
			Help: "Applied stock adjustments by direction (consume|return)",
		}, []string{"direction"})),
		stockUnits: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "onlineshop_stock_units_total",
			Help: "Stock units moved by direction (consume|return)",
		}, []string{"direction"})),
		stockRejections: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "onlineshop_stock_rejections_total",
			Help: "Stock adjustments rejected because stock would go negative",
		})),
		events: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "onlineshop_events_published_total",
			Help: "Domain events handed to the publisher by topic and outcome",
		}, []string{"topic", "outcome"})),
	}
}

// register returns the already registered collector when one with the same
// descriptor exists, so constructing metrics twice is harmless.
func register[T prometheus.Collector](registerer prometheus.Registerer, collector T) T {
	if err := registerer.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			existing, ok := already.ExistingCollector.(T)
			if !ok {
				panic(fmt.Sprintf("collector already registered with unexpected type %T", already.ExistingCollector))
			}
			return existing
		}
		panic(fmt.Sprintf("register collector: %v", err))
	}
	return collector
}

// Outcome maps an operation error onto a bounded label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrInvalidOperation):
		return "invalid_operation"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	default:
		return "error"
	}
}

// ObserveOperation records one finished operation that started at start.
func (m *ShopMetrics) ObserveOperation(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, Outcome(err)).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *ShopMetrics) RecordStockAdjusted(delta int) {
	if m == nil || delta == 0 {
		return
	}
	dir, units := "return", delta
	if delta < 0 {
		dir, units = "consume", -delta
	}
	m.stockAdjustments.WithLabelValues(dir).Inc()
	m.stockUnits.WithLabelValues(dir).Add(float64(units))
}

func (m *ShopMetrics) RecordStockRejected() {
	if m == nil {
		return
	}
	m.stockRejections.Inc()
}

func (m *ShopMetrics) RecordEvent(topic string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.events.WithLabelValues(topic, outcome).Inc()
}
