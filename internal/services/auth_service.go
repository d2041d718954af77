package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"onlineshop/internal/domain"
	applog "onlineshop/internal/log"
	"onlineshop/internal/repos"
)

var ErrBadCreds = errors.New("invalid username or password")

const (
	// SessionIdleTimeout ends sessions that have not been used for this long.
	SessionIdleTimeout = 24 * time.Hour
	// sessions are marked as used at most this often
	touchInterval = time.Minute
)

type AuthService struct {
	store  *repos.Store
	idle   time.Duration
	now    func() time.Time
	logger *logrus.Entry
}

func NewAuthService(store *repos.Store) *AuthService {
	return &AuthService{
		store:  store,
		idle:   SessionIdleTimeout,
		now:    time.Now,
		logger: applog.Component("auth"),
	}
}

// Login checks the credentials and binds sid to the user.
func (s *AuthService) Login(ctx context.Context, sid, username, password string) (*domain.User, error) {
	u, err := s.store.Read().Users.ByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrBadCreds
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.store.Read().Sessions.Bind(ctx, sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.store.Read().Sessions.Unbind(ctx, sid)
}

// CurrentUser returns the user bound to sid. A session idle for longer than
// SessionIdleTimeout is ended and reported as not found.
func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.User, error) {
	read := s.store.Read()
	seen, err := read.Sessions.LastSeen(ctx, sid)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if idle := now.Sub(seen); idle > s.idle {
		if err := read.Sessions.Unbind(ctx, sid); err != nil {
			return nil, err
		}
		s.logger.WithField("idle", idle.Round(time.Second).String()).Info("session.expired")
		return nil, domain.NotFoundf("session expired")
	}
	u, err := read.Sessions.User(ctx, sid)
	if err != nil {
		return nil, err
	}
	if now.Sub(seen) > touchInterval {
		if err := read.Sessions.Touch(ctx, sid, now); err != nil {
			return nil, err
		}
	}
	return u, nil
}
