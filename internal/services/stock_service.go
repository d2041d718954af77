package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"onlineshop/internal/domain"
	"onlineshop/internal/events"
	applog "onlineshop/internal/log"
	"onlineshop/internal/metrics"
	"onlineshop/internal/repos"
)

// StockService is the stock ledger: every change to a product's quantity
// after creation goes through AdjustStock.
type StockService struct {
	store   *repos.Store
	metrics *metrics.ShopMetrics
	events  notifier
	logger  *logrus.Entry
}

func NewStockService(store *repos.Store, m *metrics.ShopMetrics, pub events.Publisher) *StockService {
	return &StockService{
		store:   store,
		metrics: m,
		events:  newNotifier(pub, "stock"),
		logger:  applog.Component("stock"),
	}
}

// AdjustStock adds delta to the product's quantity inside uow. A change that
// would leave the quantity negative fails with InsufficientStock and leaves
// the product untouched. The change is persisted when uow commits.
func (s *StockService) AdjustStock(ctx context.Context, uow *repos.UnitOfWork, productID int64, delta int) (int, error) {
	p, err := uow.Products.Get(ctx, productID)
	if err != nil {
		return 0, err
	}
	if p.Quantity+delta < 0 {
		s.metrics.RecordStockRejected()
		return 0, domain.InsufficientStock(p.Name, abs(delta), p.Quantity)
	}

	applied, err := uow.Stock.Apply(ctx, productID, delta)
	if err != nil {
		return 0, err
	}
	if !applied {
		// Another writer consumed the stock between the read and the update.
		current, err := uow.Stock.Quantity(ctx, productID)
		if err != nil {
			return 0, err
		}
		s.metrics.RecordStockRejected()
		return 0, domain.InsufficientStock(p.Name, abs(delta), current)
	}

	newQty := p.Quantity + delta
	uow.AfterCommit(func() { s.metrics.RecordStockAdjusted(delta) })
	s.logger.WithFields(logrus.Fields{"product_id": productID, "delta": delta, "quantity": newQty}).Debug("stock.adjust")
	s.events.after(ctx, uow, events.NewStockEvent(productID, delta, newQty))
	return newQty, nil
}

// IsInStock reports whether quantity units of the product are on hand.
// The answer is advisory: it may be stale by the time it is acted on.
func (s *StockService) IsInStock(ctx context.Context, productID int64, quantity int) (bool, error) {
	p, err := s.store.Read().Products.Get(ctx, productID)
	if err != nil {
		return false, err
	}
	return p.InStock(quantity), nil
}

// Availability converts the on-hand quantity into IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func (s *StockService) Availability(ctx context.Context, productID int64) (domain.Availability, error) {
	p, err := s.store.Read().Products.Get(ctx, productID)
	if err != nil {
		return domain.Availability{}, err
	}
	return domain.AvailabilityOf(*p), nil
}

// Adjust applies a manual stock correction as its own unit of work.
func (s *StockService) Adjust(ctx context.Context, productID int64, delta int) (p *domain.Product, err error) {
	defer func(start time.Time) { s.metrics.ObserveOperation("stock.adjust", start, err) }(time.Now())

	if delta == 0 {
		return nil, domain.Validationf("Stock adjustment must not be zero")
	}
	_, err = s.store.InTx(ctx, func(uow *repos.UnitOfWork) error {
		_, err := s.AdjustStock(ctx, uow, productID, delta)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.store.Read().Products.Get(ctx, productID)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
