package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"onlineshop/internal/domain"
	applog "onlineshop/internal/log"
	"onlineshop/internal/metrics"
	"onlineshop/internal/repos"
	"onlineshop/internal/validate"
)

type UserInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UserUpdate changes the username and, when Password is non-empty, the password.
type UserUpdate struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserService struct {
	store   *repos.Store
	orders  *OrderService
	metrics *metrics.ShopMetrics
	logger  *logrus.Entry
	cost    int
}

func NewUserService(store *repos.Store, orders *OrderService, m *metrics.ShopMetrics) *UserService {
	return &UserService{store: store, orders: orders, metrics: m, logger: applog.Component("users"), cost: bcrypt.DefaultCost}
}

// CreateUser registers a user. An empty role means Unregistered.
func (s *UserService) CreateUser(ctx context.Context, in UserInput) (u *domain.User, err error) {
	defer func(start time.Time) { s.metrics.ObserveOperation("user.create", start, err) }(time.Now())

	name, err := validate.Username(in.Username)
	if err != nil {
		return nil, err
	}
	if err := validate.Password(in.Password); err != nil {
		return nil, err
	}
	role := domain.RoleUnregistered
	if in.Role != "" {
		if role, err = domain.ParseRole(in.Role); err != nil {
			return nil, err
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, err
	}
	u = &domain.User{Username: name, Hash: string(hash), Role: role, CreatedAt: time.Now().UTC()}

	_, err = s.store.InTx(ctx, func(uow *repos.UnitOfWork) error {
		taken, err := uow.Users.UsernameTaken(ctx, name, 0)
		if err != nil {
			return err
		}
		if taken {
			return domain.Validationf("Username '%s' is already taken", name)
		}
		u.ID, err = uow.Users.Insert(ctx, u)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"user_id": u.ID, "role": u.Role}).Info("user.create")
	return u, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id int64, in UserUpdate) (u *domain.User, err error) {
	defer func(start time.Time) { s.metrics.ObserveOperation("user.update", start, err) }(time.Now())

	name, err := validate.Username(in.Username)
	if err != nil {
		return nil, err
	}
	var hash []byte
	if in.Password != "" {
		if err := validate.Password(in.Password); err != nil {
			return nil, err
		}
		if hash, err = bcrypt.GenerateFromPassword([]byte(in.Password), s.cost); err != nil {
			return nil, err
		}
	}
	_, err = s.store.InTx(ctx, func(uow *repos.UnitOfWork) error {
		cur, err := uow.Users.Get(ctx, id)
		if err != nil {
			return err
		}
		taken, err := uow.Users.UsernameTaken(ctx, name, id)
		if err != nil {
			return err
		}
		if taken {
			return domain.Validationf("Username '%s' is already taken", name)
		}
		cur.Username = name
		if hash != nil {
			cur.Hash = string(hash)
		}
		u = cur
		return uow.Users.UpdateProfile(ctx, cur)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) ChangeUserRole(ctx context.Context, id int64, role string) (u *domain.User, err error) {
	defer func(start time.Time) { s.metrics.ObserveOperation("user.change_role", start, err) }(time.Now())

	r, err := domain.ParseRole(role)
	if err != nil {
		return nil, err
	}
	_, err = s.store.InTx(ctx, func(uow *repos.UnitOfWork) error {
		cur, err := uow.Users.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := uow.Users.UpdateRole(ctx, id, r); err != nil {
			return err
		}
		cur.Role = r
		u = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"user_id": id, "role": r}).Info("user.change_role")
	return u, nil
}

// DeleteUser deletes the user's orders (returning their stock), sessions and
// the user in one commit.
func (s *UserService) DeleteUser(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { s.metrics.ObserveOperation("user.delete", start, err) }(time.Now())

	changes, err := s.store.InTx(ctx, func(uow *repos.UnitOfWork) error {
		if _, err := uow.Users.Get(ctx, id); err != nil {
			return err
		}
		orders, err := uow.Orders.ListByUser(ctx, id)
		if err != nil {
			return err
		}
		for i := range orders {
			if err := s.orders.deleteInTx(ctx, uow, &orders[i]); err != nil {
				return err
			}
		}
		if err := uow.Sessions.DeleteForUser(ctx, id); err != nil {
			return err
		}
		return uow.Users.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"user_id": id, "changes": changes}).Info("user.delete")
	return nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.store.Read().Users.Get(ctx, id)
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.store.Read().Users.ByUsername(ctx, username)
}

func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	out, err := s.store.Read().Users.List(ctx)
	if out == nil && err == nil {
		out = []domain.User{}
	}
	return out, err
}

// ValidateCredentials reports whether password matches the user's hash.
func (s *UserService) ValidateCredentials(ctx context.Context, username, password string) bool {
	u, err := s.store.Read().Users.ByUsername(ctx, username)
	if err != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) == nil
}
