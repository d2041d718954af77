package events

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	OrderCreated     Type = "order.created"
	OrderDeleted     Type = "order.deleted"
	OrderItemAdded   Type = "order.item_added"
	OrderItemUpdated Type = "order.item_updated"
	OrderItemRemoved Type = "order.item_removed"
	StockAdjusted    Type = "stock.adjusted"
)

const (
	TopicOrderEvents = "onlineshop.order.events"
	TopicStockEvents = "onlineshop.stock.events"
)

// Event is a post-commit notification. It is informational only; the
// database stays the source of truth.
type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	OrderID   int64     `json:"order_id,omitempty"`
	ItemID    int64     `json:"item_id,omitempty"`
	ProductID int64     `json:"product_id,omitempty"`
	UserID    int64     `json:"user_id,omitempty"`
	Quantity  int       `json:"quantity,omitempty"`
	Delta     int       `json:"delta,omitempty"`
	Stock     *int      `json:"stock,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Topic routes stock events and order events to separate topics.
func (e Event) Topic() string {
	if strings.HasPrefix(string(e.Type), "stock.") {
		return TopicStockEvents
	}
	return TopicOrderEvents
}

// Key keeps events of one aggregate on one partition.
func (e Event) Key() string {
	if e.Type == StockAdjusted {
		return "product-" + itoa(e.ProductID)
	}
	return "order-" + itoa(e.OrderID)
}

func newEvent(t Type) Event {
	return Event{ID: uuid.NewString(), Type: t, Timestamp: time.Now().UTC()}
}

func NewOrderEvent(t Type, orderID, userID int64) Event {
	e := newEvent(t)
	e.OrderID, e.UserID = orderID, userID
	return e
}

func NewItemEvent(t Type, orderID, itemID, productID int64, quantity int) Event {
	e := newEvent(t)
	e.OrderID, e.ItemID, e.ProductID, e.Quantity = orderID, itemID, productID, quantity
	return e
}

func NewStockEvent(productID int64, delta, stock int) Event {
	e := newEvent(StockAdjusted)
	e.ProductID, e.Delta, e.Stock = productID, delta, &stock
	return e
}
