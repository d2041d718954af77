package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"onlineshop/internal/domain"
)

type OrderItemRepo struct{ c conn }

const itemSelect = `
	SELECT oi.id, oi.order_id, oi.product_id, COALESCE(p.name, '') AS product_name, oi.quantity, oi.price
	FROM order_items oi
	LEFT JOIN products p ON p.id = oi.product_id`

func (r *OrderItemRepo) Insert(ctx context.Context, it *domain.OrderItem) (int64, error) {
	return r.c.insert(ctx, `
		INSERT INTO order_items(order_id, product_id, quantity, price)
		VALUES(?, ?, ?, ?) RETURNING id`, it.OrderID, it.ProductID, it.Quantity, it.Price)
}

func (r *OrderItemRepo) Get(ctx context.Context, id int64) (*domain.OrderItem, error) {
	var it domain.OrderItem
	if err := r.c.get(ctx, &it, itemSelect+` WHERE oi.id = ?`, id); err != nil {
		if isNoRows(err) {
			return nil, domain.NotFound("OrderItem", id)
		}
		return nil, err
	}
	return &it, nil
}

func (r *OrderItemRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var n int
	err := r.c.get(ctx, &n, `SELECT COUNT(*) FROM order_items WHERE id = ?`, id)
	return n > 0, err
}

func (r *OrderItemRepo) List(ctx context.Context) ([]domain.OrderItem, error) {
	var out []domain.OrderItem
	err := r.c.list(ctx, &out, itemSelect+` ORDER BY oi.id`)
	return out, err
}

// ListByOrder returns the order's lines in insertion order.
func (r *OrderItemRepo) ListByOrder(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	var out []domain.OrderItem
	err := r.c.list(ctx, &out, itemSelect+` WHERE oi.order_id = ? ORDER BY oi.id`, orderID)
	return out, err
}

// ListByOrders returns the lines of all given orders, grouped by order id.
func (r *OrderItemRepo) ListByOrders(ctx context.Context, orderIDs []int64) (map[int64][]domain.OrderItem, error) {
	grouped := make(map[int64][]domain.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return grouped, nil
	}
	query, args, err := sqlx.In(itemSelect+` WHERE oi.order_id IN (?) ORDER BY oi.id`, orderIDs)
	if err != nil {
		return nil, err
	}
	var rows []domain.OrderItem
	if err := r.c.list(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	for _, it := range rows {
		grouped[it.OrderID] = append(grouped[it.OrderID], it)
	}
	return grouped, nil
}

// ByOrderAndProduct returns the first line of orderID for productID, or nil.
func (r *OrderItemRepo) ByOrderAndProduct(ctx context.Context, orderID, productID int64) (*domain.OrderItem, error) {
	var it domain.OrderItem
	err := r.c.get(ctx, &it, itemSelect+` WHERE oi.order_id = ? AND oi.product_id = ? ORDER BY oi.id LIMIT 1`, orderID, productID)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// AddQuantity adds delta to the line's quantity and returns the new value.
// The change is relative so concurrent writers never overwrite each other,
// and it is refused when the line would drop below one unit.
func (r *OrderItemRepo) AddQuantity(ctx context.Context, id int64, delta int) (int, error) {
	var q int
	err := r.c.returning(ctx, &q, `
		UPDATE order_items SET quantity = quantity + ?
		WHERE id = ? AND quantity + ? > 0
		RETURNING quantity`, delta, id, delta)
	if isNoRows(err) {
		exists, xerr := r.Exists(ctx, id)
		if xerr != nil {
			return 0, xerr
		}
		if exists {
			return 0, domain.Validationf("Quantity must be at least 1")
		}
		return 0, domain.NotFound("OrderItem", id)
	}
	return q, err
}

// Delete removes the line and returns the quantity it held at that moment.
// A line that is already gone is NotFound.
func (r *OrderItemRepo) Delete(ctx context.Context, id int64) (int, error) {
	var q int
	err := r.c.returning(ctx, &q, `DELETE FROM order_items WHERE id = ? RETURNING quantity`, id)
	if isNoRows(err) {
		return 0, domain.NotFound("OrderItem", id)
	}
	return q, err
}
