package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// conn routes every statement through one place so queries can be written
// with ? placeholders for both drivers and so writes are counted.
type conn struct {
	ext     sqlx.ExtContext
	changes *int64
}

func (c conn) get(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, c.ext, dest, c.ext.Rebind(query), args...)
}

func (c conn) list(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, c.ext, dest, c.ext.Rebind(query), args...)
}

func (c conn) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := c.ext.ExecContext(ctx, c.ext.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if c.changes != nil {
		*c.changes += n
	}
	return n, nil
}

// insert runs an INSERT ... RETURNING id statement.
func (c conn) insert(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := c.returning(ctx, &id, query, args...); err != nil {
		return 0, err
	}
	return id, nil
}

// returning runs a single row write with a RETURNING clause and scans the
// returned columns into dest. A write that matched nothing is sql.ErrNoRows.
func (c conn) returning(ctx context.Context, dest any, query string, args ...any) error {
	if err := c.get(ctx, dest, query, args...); err != nil {
		return err
	}
	if c.changes != nil {
		*c.changes++
	}
	return nil
}

func isNoRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }

// UnitOfWork groups the repositories that share one connection or transaction.
type UnitOfWork struct {
	Users    *UserRepo
	Sessions *SessionRepo
	Products *ProductRepo
	Stock    *StockRepo
	Orders   *OrderRepo
	Items    *OrderItemRepo

	changes     int64
	inTx        bool
	afterCommit []func()
}

func newUnitOfWork(ext sqlx.ExtContext) *UnitOfWork {
	u := &UnitOfWork{}
	c := conn{ext: ext, changes: &u.changes}
	u.Users = &UserRepo{c: c}
	u.Sessions = &SessionRepo{c: c}
	u.Products = &ProductRepo{c: c}
	u.Stock = &StockRepo{c: c}
	u.Orders = &OrderRepo{c: c}
	u.Items = &OrderItemRepo{c: c}
	return u
}

// Changes is the number of rows written so far.
func (u *UnitOfWork) Changes() int64 { return u.changes }

// AfterCommit defers fn until the surrounding transaction has committed.
// Outside a transaction fn runs immediately. Rolled back work never runs fn.
func (u *UnitOfWork) AfterCommit(fn func()) {
	if !u.inTx {
		fn()
		return
	}
	u.afterCommit = append(u.afterCommit, fn)
}

type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

func (s *Store) DB() *sqlx.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Read returns repositories bound to the pool, outside any transaction.
// It must not be used from inside an InTx callback.
func (s *Store) Read() *UnitOfWork { return newUnitOfWork(s.db) }

// InTx runs fn in one transaction. Everything fn writes is committed together
// when it returns nil and rolled back otherwise. It reports the number of
// rows written.
func (s *Store) InTx(ctx context.Context, fn func(uow *UnitOfWork) error) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	uow := newUnitOfWork(tx)
	uow.inTx = true
	if err := fn(uow); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	committed = true
	for _, after := range uow.afterCommit {
		after()
	}
	return uow.changes, nil
}
