package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"onlineshop/internal/domain"
	applog "onlineshop/internal/log"
	"onlineshop/internal/metrics"
	"onlineshop/internal/repos"
	"onlineshop/internal/validate"
)

type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

func (in *ProductInput) normalize() error {
	name, err := validate.ProductName(in.Name)
	if err != nil {
		return err
	}
	if err := validate.Price(in.Price); err != nil {
		return err
	}
	if err := validate.StockQuantity(in.Quantity); err != nil {
		return err
	}
	in.Name = name
	in.Description = strings.TrimSpace(in.Description)
	return nil
}

type ProductService struct {
	store   *repos.Store
	stock   *StockService
	metrics *metrics.ShopMetrics
	logger  *logrus.Entry
}

func NewProductService(store *repos.Store, stock *StockService, m *metrics.ShopMetrics) *ProductService {
	return &ProductService{store: store, stock: stock, metrics: m, logger: applog.Component("products")}
}

func (s *ProductService) CreateProduct(ctx context.Context, in ProductInput) (p *domain.Product, err error) {
	defer func(start time.Time) { s.metrics.ObserveOperation("product.create", start, err) }(time.Now())

	if err := in.normalize(); err != nil {
		return nil, err
	}
	p = &domain.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Quantity:    in.Quantity,
		CreatedAt:   time.Now().UTC(),
	}
	_, err = s.store.InTx(ctx, func(uow *repos.UnitOfWork) error {
		id, err := uow.Products.Insert(ctx, p)
		p.ID = id
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"product_id": p.ID, "quantity": p.Quantity}).Info("product.create")
	return p, nil
}

// UpdateProduct rewrites name, description and price. A different quantity is
// applied as a stock adjustment of the difference.
func (s *ProductService) UpdateProduct(ctx context.Context, id int64, in ProductInput) (p *domain.Product, err error) {
	defer func(start time.Time) { s.metrics.ObserveOperation("product.update", start, err) }(time.Now())

	if err := in.normalize(); err != nil {
		return nil, err
	}
	_, err = s.store.InTx(ctx, func(uow *repos.UnitOfWork) error {
		cur, err := uow.Products.Get(ctx, id)
		if err != nil {
			return err
		}
		cur.Name, cur.Description, cur.Price = in.Name, in.Description, in.Price
		if err := uow.Products.UpdateDetails(ctx, cur); err != nil {
			return err
		}
		if delta := in.Quantity - cur.Quantity; delta != 0 {
			if _, err := s.stock.AdjustStock(ctx, uow, id, delta); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.store.Read().Products.Get(ctx, id)
}

// DeleteProduct refuses to delete a product that any order line refers to.
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { s.metrics.ObserveOperation("product.delete", start, err) }(time.Now())

	_, err = s.store.InTx(ctx, func(uow *repos.UnitOfWork) error {
		p, err := uow.Products.Get(ctx, id)
		if err != nil {
			return err
		}
		used, err := uow.Products.IsReferenced(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return domain.InvalidOperationf("cannot delete product '%s' because it is referenced by existing orders", p.Name)
		}
		return uow.Products.Delete(ctx, id)
	})
	return err
}

func (s *ProductService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.store.Read().Products.Get(ctx, id)
}

func (s *ProductService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	out, err := s.store.Read().Products.List(ctx)
	if out == nil && err == nil {
		out = []domain.Product{}
	}
	return out, err
}

// SearchProducts matches term against name and description. A blank term lists everything.
func (s *ProductService) SearchProducts(ctx context.Context, term string) ([]domain.Product, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.ListProducts(ctx)
	}
	out, err := s.store.Read().Products.Search(ctx, term)
	if out == nil && err == nil {
		out = []domain.Product{}
	}
	return out, err
}
