package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("entity not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidOperation  = errors.New("invalid operation")
	ErrUnauthorized      = errors.New("unauthorized operation")
)

// NotFoundError is returned when a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     int64
	msg    string
}

func NotFound(entity string, id int64) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func NotFoundf(format string, args ...any) *NotFoundError {
	return &NotFoundError{msg: fmt.Sprintf(format, args...)}
}

func (e *NotFoundError) Error() string {
	if e.msg != "" {
		return e.msg
	}
	return fmt.Sprintf("%s with ID %d was not found.", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InsufficientStockError carries the product name, the requested amount and
// what was on hand when the request was rejected.
type InsufficientStockError struct {
	Product   string
	Requested int
	Available int
}

func InsufficientStock(product string, requested, available int) *InsufficientStockError {
	return &InsufficientStockError{Product: product, Requested: requested, Available: available}
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product '%s': requested %d, available %d", e.Product, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

type ValidationError struct{ Msg string }

func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string { return e.Msg }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type InvalidOperationError struct{ Msg string }

func InvalidOperationf(format string, args ...any) *InvalidOperationError {
	return &InvalidOperationError{Msg: fmt.Sprintf(format, args...)}
}

func (e *InvalidOperationError) Error() string { return e.Msg }
func (e *InvalidOperationError) Is(target error) bool { return target == ErrInvalidOperation }

type UnauthorizedError struct {
	Operation string
	Role      Role
}

func Unauthorized(op string, role Role) *UnauthorizedError {
	return &UnauthorizedError{Operation: op, Role: role}
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("user with role '%s' is not authorized to perform operation: %s", e.Role, e.Operation)
}

func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }

// IsDomain reports whether err belongs to the domain taxonomy, i.e. its message
// is safe to show to a caller.
func IsDomain(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrValidation) || errors.Is(err, ErrInvalidOperation) ||
		errors.Is(err, ErrUnauthorized)
}
