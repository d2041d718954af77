package repos

import (
	"context"
	"strings"

	"onlineshop/internal/domain"
)

type ProductRepo struct{ c conn }

const productCols = `id, name, description, price, quantity, created_at`

// Insert stores a new product together with its opening stock. After this,
// quantity is only written through StockRepo.Apply.
func (r *ProductRepo) Insert(ctx context.Context, p *domain.Product) (int64, error) {
	return r.c.insert(ctx, `
		INSERT INTO products(name, description, price, quantity, created_at)
		VALUES(?, ?, ?, ?, ?) RETURNING id`, p.Name, p.Description, p.Price, p.Quantity, p.CreatedAt)
}

func (r *ProductRepo) Get(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	if err := r.c.get(ctx, &p, `SELECT `+productCols+` FROM products WHERE id = ?`, id); err != nil {
		if isNoRows(err) {
			return nil, domain.NotFound("Product", id)
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := r.c.list(ctx, &out, `SELECT `+productCols+` FROM products ORDER BY id`)
	return out, err
}

// Search matches term case-insensitively against name and description.
func (r *ProductRepo) Search(ctx context.Context, term string) ([]domain.Product, error) {
	like := "%" + strings.ToLower(term) + "%"
	var out []domain.Product
	err := r.c.list(ctx, &out, `
		SELECT `+productCols+` FROM products
		WHERE LOWER(name) LIKE ? OR LOWER(description) LIKE ?
		ORDER BY name, id`, like, like)
	return out, err
}

// UpdateDetails writes name, description and price. Quantity is not touched.
func (r *ProductRepo) UpdateDetails(ctx context.Context, p *domain.Product) error {
	_, err := r.c.exec(ctx, `UPDATE products SET name = ?, description = ?, price = ? WHERE id = ?`,
		p.Name, p.Description, p.Price, p.ID)
	return err
}

func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.c.exec(ctx, `DELETE FROM products WHERE id = ?`, id)
	return err
}

// IsReferenced reports whether any order item points at the product.
func (r *ProductRepo) IsReferenced(ctx context.Context, id int64) (bool, error) {
	var n int
	err := r.c.get(ctx, &n, `SELECT COUNT(*) FROM order_items WHERE product_id = ?`, id)
	return n > 0, err
}
