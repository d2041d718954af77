package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	applog "onlineshop/internal/log"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "Passw0rd!"

// Seed inserts demo users and products. Safe to run on every startup.
func Seed(ctx context.Context, db *sqlx.DB) error {
	logger := applog.Component("seed")
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), 12)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	users := []struct{ name, role string }{
		{"admin", "Admin"},
		{"manager", "Manager"},
		{"alice", "Registered"},
	}
	for _, u := range users {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO users(username, password_hash, role, created_at)
			VALUES(?, ?, ?, ?)
			ON CONFLICT(username) DO NOTHING`), u.name, string(hash), u.role, now); err != nil {
			return err
		}
	}

	var n int
	if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n == 0 {
		logger.Info("[seed] inserting demo products")
		products := []struct {
			name, desc, price string
			qty               int
		}{
			{"Widget", "General purpose widget", "5.00", 10},
			{"Gadget", "Pocket sized gadget", "19.99", 4},
			{"Gizmo", "Battery powered gizmo", "129.99", 2},
			{"Doohickey", "Spare part, currently sold out", "2.50", 0},
		}
		for _, p := range products {
			if _, err := tx.ExecContext(ctx, tx.Rebind(`
				INSERT INTO products(name, description, price, quantity, created_at)
				VALUES(?, ?, ?, ?, ?)`), p.name, p.desc, decimal.RequireFromString(p.price), p.qty, now); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}
