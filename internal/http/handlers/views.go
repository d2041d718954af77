package handlers

import "onlineshop/internal/domain"

// Template view models keep money formatting out of the templates.

type productView struct {
	ID          int64
	Name        string
	Description string
	Price       string
	Quantity    int
	Status      string
}

func newProductViews(ps []domain.Product) []productView {
	out := make([]productView, 0, len(ps))
	for _, p := range ps {
		out = append(out, productView{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price.StringFixed(2),
			Quantity:    p.Quantity,
			Status:      domain.AvailabilityOf(p).Status,
		})
	}
	return out
}

type itemView struct {
	ID          int64
	ProductName string
	Quantity    int
	Price       string
	Subtotal    string
}

type orderView struct {
	ID        int64
	Username  string
	CreatedAt string
	Items     []itemView
	Total     string
}

func newOrderView(o *domain.Order) orderView {
	v := orderView{
		ID:        o.ID,
		Username:  o.Username,
		CreatedAt: o.CreatedAt.Format("2006-01-02 15:04"),
		Total:     o.ComputeTotal().StringFixed(2),
	}
	for _, it := range o.Items {
		v.Items = append(v.Items, itemView{
			ID:          it.ID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price.StringFixed(2),
			Subtotal:    it.Subtotal().StringFixed(2),
		})
	}
	return v
}
