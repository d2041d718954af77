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

// ItemRequest asks for quantity units of a product.
type ItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type OrderService struct {
	store   *repos.Store
	items   *ItemService
	metrics *metrics.ShopMetrics
	events  notifier
	logger  *logrus.Entry
}

func NewOrderService(store *repos.Store, items *ItemService, m *metrics.ShopMetrics, pub events.Publisher) *OrderService {
	return &OrderService{
		store:   store,
		items:   items,
		metrics: m,
		events:  newNotifier(pub, "orders"),
		logger:  applog.Component("orders"),
	}
}

// CreateOrder commits an empty order for the user and then adds each
// requested item in its own unit of work. A failing item stops the loop and
// is returned; the order and the items added before it stay committed.
func (s *OrderService) CreateOrder(ctx context.Context, userID int64, items []ItemRequest) (o *domain.Order, err error) {
	defer func(start time.Time) { s.metrics.ObserveOperation("order.create", start, err) }(time.Now())

	for _, it := range items {
		if err := validate.OrderQuantity(it.Quantity); err != nil {
			return nil, err
		}
	}

	var orderID int64
	_, err = s.store.InTx(ctx, func(uow *repos.UnitOfWork) error {
		if _, err := uow.Users.Get(ctx, userID); err != nil {
			return err
		}
		id, err := uow.Orders.Insert(ctx, userID, time.Now().UTC())
		if err != nil {
			return err
		}
		orderID = id
		s.events.after(ctx, uow, events.NewOrderEvent(events.OrderCreated, id, userID))
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, it := range items {
		if _, err := s.addItem(ctx, orderID, it.ProductID, it.Quantity); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"order_id": orderID, "product_id": it.ProductID, "added": i,
			}).Warn("order.create stopped at failing item")
			return nil, err
		}
	}
	s.logger.WithFields(logrus.Fields{"order_id": orderID, "user_id": userID, "items": len(items)}).Info("order.created")
	return s.GetOrder(ctx, orderID)
}

// AddItemToOrder adds quantity units of the product to the order. If the order
// already has a line for the product, that line grows; otherwise a new line is
// created at the product's current price.
func (s *OrderService) AddItemToOrder(ctx context.Context, orderID, productID int64, quantity int) (o *domain.Order, err error) {
	defer func(start time.Time) { s.metrics.ObserveOperation("order.add_item", start, err) }(time.Now())

	if err := validate.OrderQuantity(quantity); err != nil {
		return nil, err
	}
	if _, err := s.addItem(ctx, orderID, productID, quantity); err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, orderID)
}

func (s *OrderService) addItem(ctx context.Context, orderID, productID int64, quantity int) (int64, error) {
	return s.store.InTx(ctx, func(uow *repos.UnitOfWork) error {
		if _, err := uow.Orders.Get(ctx, orderID); err != nil {
			return err
		}
		p, err := uow.Products.Get(ctx, productID)
		if err != nil {
			return err
		}
		existing, err := uow.Items.ByOrderAndProduct(ctx, orderID, productID)
		if err != nil {
			return err
		}
		if existing != nil {
			return s.items.setQuantityInTx(ctx, uow, existing, existing.Quantity+quantity)
		}
		_, err = s.items.createInTx(ctx, uow, orderID, p, quantity)
		return err
	})
}

// UpdateOrderItemQuantity sets the quantity of a line that belongs to the order.
func (s *OrderService) UpdateOrderItemQuantity(ctx context.Context, orderID, itemID int64, newQuantity int) (o *domain.Order, err error) {
	defer func(start time.Time) { s.metrics.ObserveOperation("order.update_item", start, err) }(time.Now())

	if err := validate.OrderQuantity(newQuantity); err != nil {
		return nil, err
	}
	_, err = s.store.InTx(ctx, func(uow *repos.UnitOfWork) error {
		it, err := s.itemOfOrder(ctx, uow, orderID, itemID)
		if err != nil {
			return err
		}
		return s.items.setQuantityInTx(ctx, uow, it, newQuantity)
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, orderID)
}

// RemoveItemFromOrder deletes a line of the order and returns its stock.
func (s *OrderService) RemoveItemFromOrder(ctx context.Context, orderID, itemID int64) (o *domain.Order, err error) {
	defer func(start time.Time) { s.metrics.ObserveOperation("order.remove_item", start, err) }(time.Now())

	_, err = s.store.InTx(ctx, func(uow *repos.UnitOfWork) error {
		it, err := s.itemOfOrder(ctx, uow, orderID, itemID)
		if err != nil {
			return err
		}
		return s.items.releaseInTx(ctx, uow, it)
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, orderID)
}

func (s *OrderService) itemOfOrder(ctx context.Context, uow *repos.UnitOfWork, orderID, itemID int64) (*domain.OrderItem, error) {
	if _, err := uow.Orders.Get(ctx, orderID); err != nil {
		return nil, err
	}
	it, err := uow.Items.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if it.OrderID != orderID {
		return nil, domain.NotFoundf("order item %d not found in order %d", itemID, orderID)
	}
	return it, nil
}

// DeleteOrder returns the stock of every line, then removes the lines and
// the order, all in one commit.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID int64) (err error) {
	defer func(start time.Time) { s.metrics.ObserveOperation("order.delete", start, err) }(time.Now())

	changes, err := s.store.InTx(ctx, func(uow *repos.UnitOfWork) error {
		o, err := uow.Orders.Get(ctx, orderID)
		if err != nil {
			return err
		}
		return s.deleteInTx(ctx, uow, o)
	})
	if err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"order_id": orderID, "changes": changes}).Info("order.delete")
	return nil
}

func (s *OrderService) deleteInTx(ctx context.Context, uow *repos.UnitOfWork, o *domain.Order) error {
	lines, err := uow.Items.ListByOrder(ctx, o.ID)
	if err != nil {
		return err
	}
	for i := range lines {
		if err := s.items.releaseInTx(ctx, uow, &lines[i]); err != nil {
			return err
		}
	}
	if err := uow.Orders.Delete(ctx, o.ID); err != nil {
		return err
	}
	s.events.after(ctx, uow, events.NewOrderEvent(events.OrderDeleted, o.ID, o.UserID))
	return nil
}

// GetOrder materializes the order with its owner's username, its lines
// (current product names, captured prices) and the total.
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	read := s.store.Read()
	o, err := read.Orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Items, err = read.Items.ListByOrder(ctx, id); err != nil {
		return nil, err
	}
	if o.Items == nil {
		o.Items = []domain.OrderItem{}
	}
	o.ComputeTotal()
	return o, nil
}

func (s *OrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.store.Read().Orders.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, orders)
}

func (s *OrderService) ListOrdersForUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	read := s.store.Read()
	if _, err := read.Users.Get(ctx, userID); err != nil {
		return nil, err
	}
	orders, err := read.Orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, orders)
}

func (s *OrderService) withItems(ctx context.Context, orders []domain.Order) ([]domain.Order, error) {
	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	grouped, err := s.store.Read().Items.ListByOrders(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = grouped[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []domain.OrderItem{}
		}
		orders[i].ComputeTotal()
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}
