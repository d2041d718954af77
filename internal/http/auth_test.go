package handlers_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"onlineshop/internal/domain"
	"onlineshop/internal/http/handlers"
	"onlineshop/internal/repos"
	"onlineshop/internal/services"
)

func TestPasswordsSeededAreHashed(t *testing.T) {
	s := newShop(t)
	var hashes []string
	require.NoError(t, s.store.DB().Select(&hashes, `SELECT password_hash FROM users`))
	require.NotEmpty(t, hashes, "no users seeded")
	for _, h := range hashes {
		assert.NotContains(t, h, repos.DemoPassword)
		assert.True(t, strings.HasPrefix(h, "$2"), "unexpected hash format: %s", h)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte(repos.DemoPassword)))
	}
}

func TestLoginSuccessFailAndThrottle(t *testing.T) {
	s := newShop(t, func(d *handlers.Deps) {
		d.LoginLimiter = handlers.Limiter("login", 2, time.Minute)
	})
	creds := func(pass string) map[string]string {
		return map[string]string{"username": "alice", "password": pass}
	}

	resp, body := s.do(t, http.MethodPost, "/api/auth/login", creds("wrong"), "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid username or password", errorMessage(t, body))

	resp, body = s.do(t, http.MethodPost, "/api/auth/login", creds(repos.DemoPassword), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, extractCookie(resp, "sid"))
	u := decode[domain.User](t, body)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, domain.RoleRegistered, u.Role)
	assert.NotContains(t, string(body), "password")

	resp, _ = s.do(t, http.MethodPost, "/api/auth/login", creds(repos.DemoPassword), "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestLoginUnknownUserLooksLikeBadPassword(t *testing.T) {
	s := newShop(t)
	resp, body := s.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"username": "nobody", "password": "x"}, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid username or password", errorMessage(t, body))
}

func TestLogoutEndsSession(t *testing.T) {
	s := newShop(t)
	sid := s.loginAs(t, "alice")

	resp, body := s.do(t, http.MethodGet, "/api/auth/me", nil, sid)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", decode[domain.User](t, body).Username)

	resp, _ = s.do(t, http.MethodPost, "/api/auth/logout", nil, sid)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/api/auth/me", nil, sid)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginIssuesFreshSessionID(t *testing.T) {
	s := newShop(t)
	const planted = "attacker-sid"

	resp, body := s.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"username": "alice", "password": repos.DemoPassword}, planted)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	sid := extractCookie(resp, "sid")
	require.NotEmpty(t, sid)
	assert.NotEqual(t, planted, sid)

	resp, _ = s.do(t, http.MethodGet, "/api/auth/me", nil, planted)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, body = s.do(t, http.MethodGet, "/api/auth/me", nil, sid)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", decode[domain.User](t, body).Username)

	// logging in again from a live session replaces it
	resp, _ = s.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"username": "alice", "password": repos.DemoPassword}, sid)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	next := extractCookie(resp, "sid")
	assert.NotEqual(t, sid, next)
	resp, _ = s.do(t, http.MethodGet, "/api/auth/me", nil, sid)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIdleSessionsExpire(t *testing.T) {
	s := newShop(t)
	sid := s.loginAs(t, "alice")

	stale := time.Now().Add(-2 * services.SessionIdleTimeout).UTC()
	_, err := s.store.DB().Exec(`UPDATE sessions SET last_seen = ? WHERE id = ?`, stale, sid)
	require.NoError(t, err)

	resp, _ := s.do(t, http.MethodGet, "/api/auth/me", nil, sid)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var left int
	require.NoError(t, s.store.DB().Get(&left, `SELECT COUNT(*) FROM sessions WHERE id = ?`, sid))
	assert.Zero(t, left)
}

func TestRegisterRoleIsChosenByAdminOnly(t *testing.T) {
	s := newShop(t)

	resp, body := s.do(t, http.MethodPost, "/api/users",
		map[string]string{"username": "bob", "password": "hunter22", "role": "Admin"}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.Equal(t, domain.RoleRegistered, decode[domain.User](t, body).Role)

	admin := s.loginAs(t, "admin")
	resp, body = s.do(t, http.MethodPost, "/api/users",
		map[string]string{"username": "carol", "password": "hunter22", "role": "Manager"}, admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.Equal(t, domain.RoleManager, decode[domain.User](t, body).Role)

	resp, body = s.do(t, http.MethodPost, "/api/users",
		map[string]string{"username": "bob", "password": "other"}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, errorMessage(t, body), "bob")

	// the new account can log in straight away
	s.login(t, "bob", "hunter22")
}

func TestUserCanUpdateOwnProfileOnly(t *testing.T) {
	s := newShop(t)
	bob := s.addUser(t, "bob", domain.RoleRegistered)
	alice := s.user(t, "alice")
	sid := s.loginAs(t, "bob")

	resp, body := s.do(t, http.MethodPut, "/api/users/"+itoa(bob.ID),
		map[string]string{"username": "robert"}, sid)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "robert", decode[domain.User](t, body).Username)

	resp, _ = s.do(t, http.MethodPut, "/api/users/"+itoa(alice.ID),
		map[string]string{"username": "mallory"}, sid)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/api/users/"+itoa(alice.ID), nil, sid)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
