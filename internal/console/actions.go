package console

import (
	"context"

	"github.com/sirupsen/logrus"

	"onlineshop/internal/domain"
	"onlineshop/internal/services"
	"onlineshop/internal/validate"
)

func (c *Console) login(ctx context.Context) error {
	name, err := c.ask("Username")
	if err != nil {
		return err
	}
	pass, err := c.ask("Password")
	if err != nil {
		return err
	}
	if !c.svc.Users.ValidateCredentials(ctx, name, pass) {
		c.logger.WithField("username", name).Warn("console.login.fail")
		c.printf("Invalid username or password\n")
		return nil
	}
	u, err := c.svc.Users.GetUserByUsername(ctx, name)
	if err != nil {
		return err
	}
	c.user = u
	c.logger.WithFields(logrus.Fields{"user_id": u.ID, "role": u.Role}).Info("console.login")
	c.printf("Welcome, %s (%s)\n", u.Username, u.Role)
	return nil
}

func (c *Console) register(ctx context.Context) error {
	name, err := c.ask("Username")
	if err != nil {
		return err
	}
	pass, err := c.ask("Password")
	if err != nil {
		return err
	}
	u, err := c.svc.Users.CreateUser(ctx, services.UserInput{
		Username: name,
		Password: pass,
		Role:     string(domain.RoleRegistered),
	})
	if err != nil {
		return err
	}
	c.printf("Account %s created, you can log in now\n", u.Username)
	return nil
}

func (c *Console) logout(context.Context) error {
	c.logger.WithField("user_id", c.user.ID).Info("console.logout")
	c.user = nil
	c.printf("Logged out\n")
	return nil
}

// products

func (c *Console) printProducts(ps []domain.Product) {
	if len(ps) == 0 {
		c.printf("No products found\n")
		return
	}
	c.printf("%-5s %-24s %10s %6s  %s\n", "ID", "Name", "Price", "Qty", "Status")
	for _, p := range ps {
		c.printf("%-5d %-24s %10s %6d  %s\n", p.ID, p.Name, p.Price.StringFixed(2), p.Quantity, domain.AvailabilityOf(p).Status)
	}
}

func (c *Console) listProducts(ctx context.Context) error {
	ps, err := c.svc.Products.ListProducts(ctx)
	if err != nil {
		return err
	}
	c.printProducts(ps)
	return nil
}

func (c *Console) searchProducts(ctx context.Context) error {
	raw, err := c.ask("Search term")
	if err != nil {
		return err
	}
	term, ok := validate.Q(raw)
	if !ok {
		return domain.Validationf("Search term contains unsupported characters")
	}
	ps, err := c.svc.Products.SearchProducts(ctx, term)
	if err != nil {
		return err
	}
	c.printProducts(ps)
	return nil
}

func (c *Console) viewProduct(ctx context.Context) error {
	id, err := c.askID("Product ID")
	if err != nil {
		return err
	}
	p, err := c.svc.Products.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	c.printf("#%d %s\n%s\nPrice: %s\nIn stock: %d (%s)\n",
		p.ID, p.Name, p.Description, p.Price.StringFixed(2), p.Quantity, domain.AvailabilityOf(*p).Status)
	return nil
}

func (c *Console) askProduct() (services.ProductInput, error) {
	var in services.ProductInput
	var err error
	if in.Name, err = c.ask("Name"); err != nil {
		return in, err
	}
	if in.Description, err = c.ask("Description"); err != nil {
		return in, err
	}
	raw, err := c.ask("Price")
	if err != nil {
		return in, err
	}
	price, ok := validate.Money(raw)
	if !ok {
		return in, domain.Validationf("Price must be a number such as 9.99")
	}
	in.Price = price
	in.Quantity, err = c.askInt("Quantity")
	return in, err
}

func (c *Console) createProduct(ctx context.Context) error {
	in, err := c.askProduct()
	if err != nil {
		return err
	}
	p, err := c.svc.Products.CreateProduct(ctx, in)
	if err != nil {
		return err
	}
	c.printf("Created product #%d\n", p.ID)
	return nil
}

func (c *Console) updateProduct(ctx context.Context) error {
	id, err := c.askID("Product ID")
	if err != nil {
		return err
	}
	in, err := c.askProduct()
	if err != nil {
		return err
	}
	p, err := c.svc.Products.UpdateProduct(ctx, id, in)
	if err != nil {
		return err
	}
	c.printf("Updated product #%d, stock %d\n", p.ID, p.Quantity)
	return nil
}

func (c *Console) deleteProduct(ctx context.Context) error {
	id, err := c.askID("Product ID")
	if err != nil {
		return err
	}
	if err := c.svc.Products.DeleteProduct(ctx, id); err != nil {
		return err
	}
	c.printf("Deleted product #%d\n", id)
	return nil
}

func (c *Console) adjustStock(ctx context.Context) error {
	id, err := c.askID("Product ID")
	if err != nil {
		return err
	}
	delta, err := c.askInt("Change (+/-)")
	if err != nil {
		return err
	}
	p, err := c.svc.Stock.Adjust(ctx, id, delta)
	if err != nil {
		return err
	}
	c.printf("%s now has %d in stock\n", p.Name, p.Quantity)
	return nil
}

// orders

func (c *Console) printOrder(o *domain.Order) {
	c.printf("Order #%d for %s, placed %s\n", o.ID, o.Username, o.CreatedAt.Format("2006-01-02 15:04"))
	if len(o.Items) == 0 {
		c.printf("  (no items)\n")
	}
	for _, it := range o.Items {
		c.printf("  item %-4d %-24s %3d x %8s = %9s\n",
			it.ID, it.ProductName, it.Quantity, it.Price.StringFixed(2), it.Subtotal().StringFixed(2))
	}
	c.printf("  Total: %s\n", o.ComputeTotal().StringFixed(2))
}

// ownOrder loads an order the current user may work on. Orders of other
// users are reported as missing.
func (c *Console) ownOrder(ctx context.Context) (*domain.Order, error) {
	id, err := c.askID("Order ID")
	if err != nil {
		return nil, err
	}
	o, err := c.svc.Orders.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanAccessOrder(c.user, o) {
		c.logger.WithFields(logrus.Fields{"user_id": c.user.ID, "order_id": id}).Warn("access.denied.order")
		return nil, domain.NotFound("Order", id)
	}
	return o, nil
}

func (c *Console) createOrder(ctx context.Context) error {
	var lines []services.ItemRequest
	c.printf("Enter items, leave the product ID empty to finish\n")
	for {
		raw, err := c.ask("Product ID")
		if err != nil {
			return err
		}
		if raw == "" {
			break
		}
		pid, ok := validate.ID(raw)
		if !ok {
			return domain.Validationf("Product ID must be a positive number")
		}
		qty, err := c.askInt("Quantity")
		if err != nil {
			return err
		}
		lines = append(lines, services.ItemRequest{ProductID: pid, Quantity: qty})
	}
	o, err := c.svc.Orders.CreateOrder(ctx, c.user.ID, lines)
	if err != nil {
		return err
	}
	c.printOrder(o)
	return nil
}

func (c *Console) addItem(ctx context.Context) error {
	o, err := c.ownOrder(ctx)
	if err != nil {
		return err
	}
	pid, err := c.askID("Product ID")
	if err != nil {
		return err
	}
	qty, err := c.askInt("Quantity")
	if err != nil {
		return err
	}
	if o, err = c.svc.Orders.AddItemToOrder(ctx, o.ID, pid, qty); err != nil {
		return err
	}
	c.printOrder(o)
	return nil
}

func (c *Console) changeQuantity(ctx context.Context) error {
	o, err := c.ownOrder(ctx)
	if err != nil {
		return err
	}
	itemID, err := c.askID("Item ID")
	if err != nil {
		return err
	}
	qty, err := c.askInt("New quantity")
	if err != nil {
		return err
	}
	if o, err = c.svc.Orders.UpdateOrderItemQuantity(ctx, o.ID, itemID, qty); err != nil {
		return err
	}
	c.printOrder(o)
	return nil
}

func (c *Console) removeItem(ctx context.Context) error {
	o, err := c.ownOrder(ctx)
	if err != nil {
		return err
	}
	itemID, err := c.askID("Item ID")
	if err != nil {
		return err
	}
	if o, err = c.svc.Orders.RemoveItemFromOrder(ctx, o.ID, itemID); err != nil {
		return err
	}
	c.printOrder(o)
	return nil
}

func (c *Console) deleteOrder(ctx context.Context) error {
	o, err := c.ownOrder(ctx)
	if err != nil {
		return err
	}
	if err := c.svc.Orders.DeleteOrder(ctx, o.ID); err != nil {
		return err
	}
	c.printf("Deleted order #%d\n", o.ID)
	return nil
}

func (c *Console) viewOrder(ctx context.Context) error {
	o, err := c.ownOrder(ctx)
	if err != nil {
		return err
	}
	c.printOrder(o)
	return nil
}

func (c *Console) printOrders(os []domain.Order) {
	if len(os) == 0 {
		c.printf("No orders\n")
		return
	}
	for i := range os {
		c.printOrder(&os[i])
	}
}

func (c *Console) myOrders(ctx context.Context) error {
	os, err := c.svc.Orders.ListOrdersForUser(ctx, c.user.ID)
	if err != nil {
		return err
	}
	c.printOrders(os)
	return nil
}

func (c *Console) allOrders(ctx context.Context) error {
	os, err := c.svc.Orders.ListOrders(ctx)
	if err != nil {
		return err
	}
	c.printOrders(os)
	return nil
}

// users

func (c *Console) listUsers(ctx context.Context) error {
	us, err := c.svc.Users.ListUsers(ctx)
	if err != nil {
		return err
	}
	c.printf("%-5s %-20s %s\n", "ID", "Username", "Role")
	for _, u := range us {
		c.printf("%-5d %-20s %s\n", u.ID, u.Username, u.Role)
	}
	return nil
}

func (c *Console) changeRole(ctx context.Context) error {
	id, err := c.askID("User ID")
	if err != nil {
		return err
	}
	role, err := c.ask("Role (Admin, Manager, Registered, Unregistered)")
	if err != nil {
		return err
	}
	u, err := c.svc.Users.ChangeUserRole(ctx, id, role)
	if err != nil {
		return err
	}
	if c.user.ID == u.ID {
		c.user = u
	}
	c.printf("%s is now %s\n", u.Username, u.Role)
	return nil
}

func (c *Console) deleteUser(ctx context.Context) error {
	id, err := c.askID("User ID")
	if err != nil {
		return err
	}
	if id == c.user.ID {
		return domain.InvalidOperationf("you cannot delete your own account")
	}
	if err := c.svc.Users.DeleteUser(ctx, id); err != nil {
		return err
	}
	c.printf("Deleted user #%d\n", id)
	return nil
}
