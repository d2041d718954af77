package repos

import (
	"context"
	"time"

	"onlineshop/internal/domain"
)

type OrderRepo struct{ c conn }

const orderHeader = `
	SELECT o.id, o.user_id, COALESCE(u.username, '') AS username, o.created_at
	FROM orders o
	LEFT JOIN users u ON u.id = o.user_id`

func (r *OrderRepo) Insert(ctx context.Context, userID int64, createdAt time.Time) (int64, error) {
	return r.c.insert(ctx, `INSERT INTO orders(user_id, created_at) VALUES(?, ?) RETURNING id`, userID, createdAt)
}

// Get loads the order header with the owner's username. Items are not loaded.
func (r *OrderRepo) Get(ctx context.Context, id int64) (*domain.Order, error) {
	var o domain.Order
	if err := r.c.get(ctx, &o, orderHeader+` WHERE o.id = ?`, id); err != nil {
		if isNoRows(err) {
			return nil, domain.NotFound("Order", id)
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepo) List(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	err := r.c.list(ctx, &out, orderHeader+` ORDER BY o.id`)
	return out, err
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	var out []domain.Order
	err := r.c.list(ctx, &out, orderHeader+` WHERE o.user_id = ? ORDER BY o.id`, userID)
	return out, err
}

func (r *OrderRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.c.exec(ctx, `DELETE FROM orders WHERE id = ?`, id)
	return err
}
