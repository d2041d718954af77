package validate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"onlineshop/internal/domain"
)

var (
	reQ        = regexp.MustCompile(`^[\p{L}0-9 _'.\-]{1,50}$`)
	reUsername = regexp.MustCompile(`^[A-Za-z0-9._@\-]{1,50}$`)
)

// ProductName trims and checks a product display name.
func ProductName(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", domain.Validationf("Product name cannot be empty")
	}
	if len(s) > 100 {
		return "", domain.Validationf("Product name must be at most 100 characters")
	}
	return s, nil
}

func Price(p decimal.Decimal) error {
	if !p.IsPositive() {
		return domain.Validationf("Product price must be greater than zero")
	}
	if p.Exponent() < -2 && !p.Equal(p.Round(2)) {
		return domain.Validationf("Product price must have at most two decimal places")
	}
	return nil
}

// StockQuantity checks a product's on-hand quantity.
func StockQuantity(q int) error {
	if q < 0 {
		return domain.Validationf("Product quantity cannot be negative")
	}
	return nil
}

// OrderQuantity checks the quantity of an order line.
func OrderQuantity(q int) error {
	if q <= 0 {
		return domain.Validationf("Quantity must be greater than zero")
	}
	return nil
}

func Username(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", domain.Validationf("Username cannot be empty")
	}
	if !reUsername.MatchString(s) {
		return "", domain.Validationf("Username may only contain letters, digits and . _ @ - (max 50)")
	}
	return s, nil
}

// Password enforces the bounds bcrypt can hash.
func Password(s string) error {
	if strings.TrimSpace(s) == "" {
		return domain.Validationf("Password cannot be empty")
	}
	if len(s) > 72 {
		return domain.Validationf("Password must be at most 72 bytes")
	}
	return nil
}

// Q validates a search term: trims, enforces allowed characters and max length.
// An empty term is valid and means "everything".
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	if len(s) > 50 {
		s = s[:50]
	}
	return s, reQ.MatchString(s)
}

// ID parses a positive resource identifier.
func ID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Int parses a signed integer such as a stock delta.
func Int(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return n, err == nil
}

// Money parses a decimal amount like "19.99".
func Money(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	return d, err == nil
}
