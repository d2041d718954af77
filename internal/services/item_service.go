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
	"onlineshop/internal/validate"
)

// ItemService manages order lines directly. Every stock effect of a line goes
// through the stock ledger in the same unit of work as the line change.
type ItemService struct {
	store   *repos.Store
	stock   *StockService
	metrics *metrics.ShopMetrics
	events  notifier
	logger  *logrus.Entry
}

func NewItemService(store *repos.Store, stock *StockService, m *metrics.ShopMetrics, pub events.Publisher) *ItemService {
	return &ItemService{
		store:   store,
		stock:   stock,
		metrics: m,
		events:  newNotifier(pub, "items"),
		logger:  applog.Component("items"),
	}
}

// CreateItem adds a line for quantity units of the product to the order,
// capturing the product's current price, and consumes the stock.
func (s *ItemService) CreateItem(ctx context.Context, orderID, productID int64, quantity int) (it *domain.OrderItem, err error) {
	defer func(start time.Time) { s.metrics.ObserveOperation("item.create", start, err) }(time.Now())

	if err := validate.OrderQuantity(quantity); err != nil {
		return nil, err
	}
	var id int64
	_, err = s.store.InTx(ctx, func(uow *repos.UnitOfWork) error {
		if _, err := uow.Orders.Get(ctx, orderID); err != nil {
			return err
		}
		p, err := uow.Products.Get(ctx, productID)
		if err != nil {
			return err
		}
		created, err := s.createInTx(ctx, uow, orderID, p, quantity)
		if err != nil {
			return err
		}
		id = created.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.store.Read().Items.Get(ctx, id)
}

// UpdateItem sets the line's quantity and moves the difference to or from
// stock. The captured price is kept.
func (s *ItemService) UpdateItem(ctx context.Context, itemID int64, newQuantity int) (it *domain.OrderItem, err error) {
	defer func(start time.Time) { s.metrics.ObserveOperation("item.update", start, err) }(time.Now())

	if err := validate.OrderQuantity(newQuantity); err != nil {
		return nil, err
	}
	_, err = s.store.InTx(ctx, func(uow *repos.UnitOfWork) error {
		cur, err := uow.Items.Get(ctx, itemID)
		if err != nil {
			return err
		}
		return s.setQuantityInTx(ctx, uow, cur, newQuantity)
	})
	if err != nil {
		return nil, err
	}
	return s.store.Read().Items.Get(ctx, itemID)
}

// DeleteItem removes the line and returns its quantity to stock.
func (s *ItemService) DeleteItem(ctx context.Context, itemID int64) (err error) {
	defer func(start time.Time) { s.metrics.ObserveOperation("item.delete", start, err) }(time.Now())

	_, err = s.store.InTx(ctx, func(uow *repos.UnitOfWork) error {
		cur, err := uow.Items.Get(ctx, itemID)
		if err != nil {
			return err
		}
		return s.releaseInTx(ctx, uow, cur)
	})
	return err
}

// ItemExists reports whether the line exists. Lookup failures read as false.
func (s *ItemService) ItemExists(ctx context.Context, id int64) bool {
	ok, err := s.store.Read().Items.Exists(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("item_id", id).Warn("item exists check failed")
		return false
	}
	return ok
}

func (s *ItemService) GetItem(ctx context.Context, id int64) (*domain.OrderItem, error) {
	return s.store.Read().Items.Get(ctx, id)
}

func (s *ItemService) ListItems(ctx context.Context) ([]domain.OrderItem, error) {
	return s.store.Read().Items.List(ctx)
}

func (s *ItemService) ListItemsByOrder(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	read := s.store.Read()
	if _, err := read.Orders.Get(ctx, orderID); err != nil {
		return nil, err
	}
	return read.Items.ListByOrder(ctx, orderID)
}

// createInTx inserts a new line for p at p's current price and consumes stock.
func (s *ItemService) createInTx(ctx context.Context, uow *repos.UnitOfWork, orderID int64, p *domain.Product, quantity int) (*domain.OrderItem, error) {
	if !p.InStock(quantity) {
		return nil, domain.InsufficientStock(p.Name, quantity, p.Quantity)
	}
	it := &domain.OrderItem{
		OrderID:     orderID,
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    quantity,
		Price:       p.Price,
	}
	id, err := uow.Items.Insert(ctx, it)
	if err != nil {
		return nil, err
	}
	it.ID = id
	if _, err := s.stock.AdjustStock(ctx, uow, p.ID, -quantity); err != nil {
		return nil, err
	}
	s.events.after(ctx, uow, events.NewItemEvent(events.OrderItemAdded, orderID, id, p.ID, quantity))
	return it, nil
}

// setQuantityInTx moves the line towards newQuantity, consuming or returning
// the difference. The line changes by the same amount as the stock, so a line
// changed concurrently since it was read still balances.
func (s *ItemService) setQuantityInTx(ctx context.Context, uow *repos.UnitOfWork, it *domain.OrderItem, newQuantity int) error {
	diff := newQuantity - it.Quantity
	if diff > 0 {
		p, err := uow.Products.Get(ctx, it.ProductID)
		if err != nil {
			return err
		}
		if !p.InStock(diff) {
			return domain.InsufficientStock(p.Name, diff, p.Quantity)
		}
	}
	if diff != 0 {
		q, err := uow.Items.AddQuantity(ctx, it.ID, diff)
		if err != nil {
			return err
		}
		if _, err := s.stock.AdjustStock(ctx, uow, it.ProductID, -diff); err != nil {
			return err
		}
		it.Quantity = q
	}
	s.events.after(ctx, uow, events.NewItemEvent(events.OrderItemUpdated, it.OrderID, it.ID, it.ProductID, it.Quantity))
	return nil
}

// releaseInTx deletes the line and returns the quantity it held to stock.
// A line removed by someone else since it was read is NotFound.
func (s *ItemService) releaseInTx(ctx context.Context, uow *repos.UnitOfWork, it *domain.OrderItem) error {
	q, err := uow.Items.Delete(ctx, it.ID)
	if err != nil {
		return err
	}
	if _, err := s.stock.AdjustStock(ctx, uow, it.ProductID, q); err != nil {
		return err
	}
	it.Quantity = q
	s.events.after(ctx, uow, events.NewItemEvent(events.OrderItemRemoved, it.OrderID, it.ID, it.ProductID, q))
	return nil
}
