package repos_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"onlineshop/internal/domain"
	"onlineshop/internal/repos"
)

func newStore(t *testing.T) *repos.Store {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repos.NewStore(db)
}

func addProduct(t *testing.T, s *repos.Store, name string, qty int) int64 {
	t.Helper()
	var id int64
	_, err := s.InTx(context.Background(), func(u *repos.UnitOfWork) error {
		var err error
		id, err = u.Products.Insert(context.Background(), &domain.Product{
			Name: name, Price: decimal.RequireFromString("5.00"), Quantity: qty, CreatedAt: time.Now().UTC(),
		})
		return err
	})
	require.NoError(t, err)
	return id
}

func TestSeedHashesPasswordsAndIsIdempotent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, repos.Seed(ctx, s.DB()))
	require.NoError(t, repos.Seed(ctx, s.DB()))

	users, err := s.Read().Users.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	for _, u := range users {
		assert.False(t, strings.Contains(u.Hash, repos.DemoPassword), "hash contains plaintext password")
		assert.True(t, strings.HasPrefix(u.Hash, "$2"), "unexpected hash format: %s", u.Hash)
		require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(repos.DemoPassword)))
	}

	products, err := s.Read().Products.List(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 4)
	assert.Equal(t, "Widget", products[0].Name)
	assert.True(t, products[0].Price.Equal(decimal.RequireFromString("5.00")))
}

func TestInTxCommitsOnceAndRollsBack(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	id := addProduct(t, s, "Widget", 10)

	changes, err := s.InTx(ctx, func(u *repos.UnitOfWork) error {
		ok, err := u.Stock.Apply(ctx, id, -3)
		require.True(t, ok)
		return err
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, changes)

	boom := errors.New("boom")
	hooks := 0
	_, err = s.InTx(ctx, func(u *repos.UnitOfWork) error {
		u.AfterCommit(func() { hooks++ })
		if _, err := u.Stock.Apply(ctx, id, -5); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Zero(t, hooks, "after-commit hook ran for a rolled back transaction")

	_, err = s.InTx(ctx, func(u *repos.UnitOfWork) error {
		u.AfterCommit(func() { hooks++ })
		assert.Zero(t, hooks, "after-commit hook ran before commit")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, hooks)

	q, err := s.Read().Stock.Quantity(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 7, q)
}

func TestStockApplyGuardsAgainstNegative(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	id := addProduct(t, s, "Gadget", 2)

	ok, err := s.Read().Stock.Apply(ctx, id, -3)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Read().Stock.Apply(ctx, id, -2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Read().Stock.Apply(ctx, 9999, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckConstraintRejectsNegativeQuantity(t *testing.T) {
	s := newStore(t)
	id := addProduct(t, s, "Widget", 1)
	_, err := s.DB().Exec(`UPDATE products SET quantity = -1 WHERE id = ?`, id)
	assert.Error(t, err)
}

func TestOrderAndItemQueries(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	pid := addProduct(t, s, "Widget", 10)

	var userID, o1, o2 int64
	_, err := s.InTx(ctx, func(u *repos.UnitOfWork) error {
		var err error
		if userID, err = u.Users.Insert(ctx, &domain.User{Username: "bob", Hash: "x", Role: domain.RoleRegistered, CreatedAt: time.Now().UTC()}); err != nil {
			return err
		}
		if o1, err = u.Orders.Insert(ctx, userID, time.Now().UTC()); err != nil {
			return err
		}
		if o2, err = u.Orders.Insert(ctx, userID, time.Now().UTC()); err != nil {
			return err
		}
		for _, oid := range []int64{o1, o1, o2} {
			if _, err := u.Items.Insert(ctx, &domain.OrderItem{OrderID: oid, ProductID: pid, Quantity: 1, Price: decimal.RequireFromString("5.00")}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	read := s.Read()
	o, err := read.Orders.Get(ctx, o1)
	require.NoError(t, err)
	assert.Equal(t, "bob", o.Username)

	_, err = read.Orders.Get(ctx, 4242)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.EqualError(t, err, "Order with ID 4242 was not found.")

	grouped, err := read.Items.ListByOrders(ctx, []int64{o1, o2})
	require.NoError(t, err)
	assert.Len(t, grouped[o1], 2)
	assert.Len(t, grouped[o2], 1)
	assert.Equal(t, "Widget", grouped[o2][0].ProductName)

	first, err := read.Items.ByOrderAndProduct(ctx, o1, pid)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, grouped[o1][0].ID, first.ID)

	none, err := read.Items.ByOrderAndProduct(ctx, o1, pid+1)
	require.NoError(t, err)
	assert.Nil(t, none)

	referenced, err := read.Products.IsReferenced(ctx, pid)
	require.NoError(t, err)
	assert.True(t, referenced)

	// restrict: an order with lines cannot be dropped directly
	_, err = s.DB().Exec(`DELETE FROM orders WHERE id = ?`, o1)
	assert.Error(t, err)
}

func TestItemQuantityWrites(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	pid := addProduct(t, s, "Widget", 10)

	var itemID int64
	_, err := s.InTx(ctx, func(u *repos.UnitOfWork) error {
		uid, err := u.Users.Insert(ctx, &domain.User{Username: "dave", Hash: "x", Role: domain.RoleRegistered, CreatedAt: time.Now().UTC()})
		if err != nil {
			return err
		}
		oid, err := u.Orders.Insert(ctx, uid, time.Now().UTC())
		if err != nil {
			return err
		}
		itemID, err = u.Items.Insert(ctx, &domain.OrderItem{OrderID: oid, ProductID: pid, Quantity: 2, Price: decimal.RequireFromString("5.00")})
		return err
	})
	require.NoError(t, err)

	items := s.Read().Items
	q, err := items.AddQuantity(ctx, itemID, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, q)
	q, err = items.AddQuantity(ctx, itemID, -4)
	require.NoError(t, err)
	assert.Equal(t, 1, q)

	_, err = items.AddQuantity(ctx, itemID, -1)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = items.AddQuantity(ctx, 4242, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	q, err = items.Delete(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, 1, q)
	_, err = items.Delete(ctx, itemID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessions(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	var uid int64
	_, err := s.InTx(ctx, func(u *repos.UnitOfWork) error {
		var err error
		uid, err = u.Users.Insert(ctx, &domain.User{Username: "carol", Hash: "x", Role: domain.RoleManager, CreatedAt: time.Now().UTC()})
		if err != nil {
			return err
		}
		return u.Sessions.Bind(ctx, "sid-1", uid)
	})
	require.NoError(t, err)

	u, err := s.Read().Sessions.User(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, uid, u.ID)
	assert.Equal(t, domain.RoleManager, u.Role)

	require.NoError(t, s.Read().Sessions.Unbind(ctx, "sid-1"))
	_, err = s.Read().Sessions.User(ctx, "sid-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOpenDBRejectsUnknownDriver(t *testing.T) {
	_, err := repos.OpenDB("oracle", "x")
	assert.Error(t, err)
}
