package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Quantity    int             `db:"quantity" json:"quantity"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
}

// InStock reports whether at least qty units are on hand.
func (p Product) InStock(qty int) bool { return p.Quantity >= qty }

// LowStockThreshold is the quantity below which a product reports LOW_STOCK.
const LowStockThreshold = 5

type Availability struct {
	ProductID int64  `json:"productId"`
	Status    string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty       int    `json:"qty"`
}

func AvailabilityOf(p Product) Availability {
	status := "OUT_OF_STOCK"
	switch {
	case p.Quantity >= LowStockThreshold:
		status = "IN_STOCK"
	case p.Quantity > 0:
		status = "LOW_STOCK"
	}
	return Availability{ProductID: p.ID, Status: status, Qty: p.Quantity}
}

// OrderItem is one order line. Price is the unit price captured when the line
// was created; ProductName is the product's current display name.
type OrderItem struct {
	ID          int64           `db:"id" json:"id"`
	OrderID     int64           `db:"order_id" json:"orderId"`
	ProductID   int64           `db:"product_id" json:"productId"`
	ProductName string          `db:"product_name" json:"productName"`
	Quantity    int             `db:"quantity" json:"quantity"`
	Price       decimal.Decimal `db:"price" json:"price"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID        int64           `db:"id" json:"id"`
	UserID    int64           `db:"user_id" json:"userId"`
	Username  string          `db:"username" json:"username"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	Items     []OrderItem     `db:"-" json:"items"`
	Total     decimal.Decimal `db:"-" json:"total"`
}

// ComputeTotal sets Total to the sum of the item subtotals and returns it.
func (o *Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	o.Total = total
	return total
}
