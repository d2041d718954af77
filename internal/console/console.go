// Package console is a line oriented, menu driven front-end over the shop
// services. The logged in user lives in the Console value for the length of
// one session; every menu action checks it explicitly.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"onlineshop/internal/domain"
	applog "onlineshop/internal/log"
	"onlineshop/internal/services"
	"onlineshop/internal/validate"
)

var errQuit = errors.New("quit")

type action struct {
	key   string
	label string
	// allowed decides visibility; nil means always shown.
	allowed func(u *domain.User) bool
	run     func(ctx context.Context) error
}

type Console struct {
	svc    *services.Services
	in     *bufio.Scanner
	out    io.Writer
	user   *domain.User
	logger *logrus.Entry
	menu   []action
}

func New(svc *services.Services, in io.Reader, out io.Writer) *Console {
	c := &Console{
		svc:    svc,
		in:     bufio.NewScanner(in),
		out:    out,
		logger: applog.Component("console"),
	}
	c.menu = c.actions()
	return c
}

func anonymous(u *domain.User) bool { return u == nil }
func loggedIn(u *domain.User) bool  { return u != nil }

func can(p domain.Permission) func(*domain.User) bool {
	return func(u *domain.User) bool { return u != nil && u.Role.Can(p) }
}

func (c *Console) actions() []action {
	return []action{
		{"1", "Log in", anonymous, c.login},
		{"2", "Register", anonymous, c.register},
		{"3", "Log out", loggedIn, c.logout},
		{"4", "List products", nil, c.listProducts},
		{"5", "Search products", nil, c.searchProducts},
		{"6", "View product", nil, c.viewProduct},
		{"7", "Create product", can(domain.PermManageCatalog), c.createProduct},
		{"8", "Update product", can(domain.PermManageCatalog), c.updateProduct},
		{"9", "Delete product", can(domain.PermManageCatalog), c.deleteProduct},
		{"10", "Adjust stock", can(domain.PermManageStock), c.adjustStock},
		{"11", "Create order", can(domain.PermPlaceOrders), c.createOrder},
		{"12", "Add item to order", can(domain.PermPlaceOrders), c.addItem},
		{"13", "Change item quantity", can(domain.PermPlaceOrders), c.changeQuantity},
		{"14", "Remove item from order", can(domain.PermPlaceOrders), c.removeItem},
		{"15", "Delete order", can(domain.PermPlaceOrders), c.deleteOrder},
		{"16", "View order", loggedIn, c.viewOrder},
		{"17", "My orders", can(domain.PermPlaceOrders), c.myOrders},
		{"18", "All orders", can(domain.PermViewAllOrders), c.allOrders},
		{"19", "List users", can(domain.PermManageUsers), c.listUsers},
		{"20", "Change user role", can(domain.PermManageUsers), c.changeRole},
		{"21", "Delete user", can(domain.PermManageUsers), c.deleteUser},
		{"0", "Exit", nil, func(context.Context) error { return errQuit }},
	}
}

// Run serves the menu until the user exits, the input ends or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	c.printf("Online Shop\n")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.printMenu()
		choice, ok := c.prompt("Choose")
		if !ok {
			return nil
		}
		a := c.lookup(choice)
		if a == nil {
			c.printf("Unknown option %q\n", choice)
			continue
		}
		err := a.run(ctx)
		if errors.Is(err, errQuit) {
			c.printf("Bye.\n")
			return nil
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			c.report(err)
		}
	}
}

func (c *Console) lookup(key string) *action {
	for i := range c.menu {
		a := &c.menu[i]
		if a.key == key && (a.allowed == nil || a.allowed(c.user)) {
			return a
		}
	}
	return nil
}

func (c *Console) printMenu() {
	c.printf("\n")
	if c.user != nil {
		c.printf("[%s, %s]\n", c.user.Username, c.user.Role)
	}
	for _, a := range c.menu {
		if a.allowed == nil || a.allowed(c.user) {
			c.printf("%3s) %s\n", a.key, a.label)
		}
	}
}

// report prints domain errors as their message and hides everything else.
func (c *Console) report(err error) {
	if domain.IsDomain(err) {
		c.printf("Error: %s\n", err.Error())
		return
	}
	c.logger.WithError(err).Error("console.action")
	c.printf("Error: something went wrong, please try again\n")
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

// prompt reads one trimmed line. ok is false once the input is exhausted.
func (c *Console) prompt(label string) (string, bool) {
	c.printf("%s: ", label)
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

// ask is prompt for use inside actions: exhausted input becomes io.EOF.
func (c *Console) ask(label string) (string, error) {
	s, ok := c.prompt(label)
	if !ok {
		return "", io.EOF
	}
	return s, nil
}

func (c *Console) askID(label string) (int64, error) {
	s, err := c.ask(label)
	if err != nil {
		return 0, err
	}
	id, ok := validate.ID(s)
	if !ok {
		return 0, domain.Validationf("%s must be a positive number", label)
	}
	return id, nil
}

func (c *Console) askInt(label string) (int, error) {
	s, err := c.ask(label)
	if err != nil {
		return 0, err
	}
	n, ok := validate.Int(s)
	if !ok {
		return 0, domain.Validationf("%s must be a whole number", label)
	}
	return n, nil
}
