package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"onlineshop/internal/events"
	applog "onlineshop/internal/log"
	"onlineshop/internal/metrics"
	"onlineshop/internal/repos"
)

// Services wires every workflow over one store.
type Services struct {
	Stock    *StockService
	Items    *ItemService
	Orders   *OrderService
	Products *ProductService
	Users    *UserService
	Auth     *AuthService
}

// New builds the services. m and pub may be nil.
func New(store *repos.Store, m *metrics.ShopMetrics, pub events.Publisher) *Services {
	if pub == nil {
		pub = events.Noop{}
	}
	stock := NewStockService(store, m, pub)
	items := NewItemService(store, stock, m, pub)
	orders := NewOrderService(store, items, m, pub)
	return &Services{
		Stock:    stock,
		Items:    items,
		Orders:   orders,
		Products: NewProductService(store, stock, m),
		Users:    NewUserService(store, orders, m),
		Auth:     NewAuthService(store),
	}
}

// notifier publishes events once the work that produced them is committed.
// Publishing is best effort: failures are logged and never undo the commit.
type notifier struct {
	pub    events.Publisher
	logger *logrus.Entry
}

func newNotifier(pub events.Publisher, component string) notifier {
	if pub == nil {
		pub = events.Noop{}
	}
	return notifier{pub: pub, logger: applog.Component(component)}
}

func (n notifier) after(ctx context.Context, uow *repos.UnitOfWork, e events.Event) {
	uow.AfterCommit(func() { n.publish(ctx, e) })
}

func (n notifier) publish(ctx context.Context, e events.Event) {
	if err := n.pub.Publish(context.WithoutCancel(ctx), e); err != nil {
		n.logger.WithError(err).WithField("type", e.Type).Warn("event publish failed")
	}
}
