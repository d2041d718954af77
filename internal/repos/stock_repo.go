package repos

import "context"

type StockRepo struct{ c conn }

// Apply adds delta to the product's quantity unless the result would be
// negative. It is the only statement that changes quantity after a product
// is created. applied is false when the guard rejected the change or the
// product does not exist.
func (r *StockRepo) Apply(ctx context.Context, productID int64, delta int) (applied bool, err error) {
	n, err := r.c.exec(ctx, `
		UPDATE products SET quantity = quantity + ?
		WHERE id = ? AND quantity + ? >= 0`, delta, productID, delta)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *StockRepo) Quantity(ctx context.Context, productID int64) (int, error) {
	var q int
	err := r.c.get(ctx, &q, `SELECT quantity FROM products WHERE id = ?`, productID)
	return q, err
}
