package repos

import (
	"context"
	"time"

	"onlineshop/internal/domain"
)

type UserRepo struct{ c conn }

const userCols = `id, username, password_hash, role, created_at`

func (r *UserRepo) Insert(ctx context.Context, u *domain.User) (int64, error) {
	return r.c.insert(ctx, `
		INSERT INTO users(username, password_hash, role, created_at)
		VALUES(?, ?, ?, ?) RETURNING id`, u.Username, u.Hash, string(u.Role), u.CreatedAt)
}

func (r *UserRepo) Get(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	if err := r.c.get(ctx, &u, `SELECT `+userCols+` FROM users WHERE id = ?`, id); err != nil {
		if isNoRows(err) {
			return nil, domain.NotFound("User", id)
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	if err := r.c.get(ctx, &u, `SELECT `+userCols+` FROM users WHERE username = ?`, username); err != nil {
		if isNoRows(err) {
			return nil, domain.NotFoundf("User with username '%s' was not found.", username)
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	err := r.c.list(ctx, &out, `SELECT `+userCols+` FROM users ORDER BY id`)
	return out, err
}

// UsernameTaken reports whether another user (not exceptID) owns username.
func (r *UserRepo) UsernameTaken(ctx context.Context, username string, exceptID int64) (bool, error) {
	var n int
	err := r.c.get(ctx, &n, `SELECT COUNT(*) FROM users WHERE username = ? AND id <> ?`, username, exceptID)
	return n > 0, err
}

func (r *UserRepo) UpdateProfile(ctx context.Context, u *domain.User) error {
	_, err := r.c.exec(ctx, `UPDATE users SET username = ?, password_hash = ? WHERE id = ?`, u.Username, u.Hash, u.ID)
	return err
}

func (r *UserRepo) UpdateRole(ctx context.Context, id int64, role domain.Role) error {
	_, err := r.c.exec(ctx, `UPDATE users SET role = ? WHERE id = ?`, string(role), id)
	return err
}

func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.c.exec(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}

type SessionRepo struct{ c conn }

// Bind attaches sid to userID, replacing any previous binding.
func (r *SessionRepo) Bind(ctx context.Context, sid string, userID int64) error {
	now := time.Now().UTC()
	_, err := r.c.exec(ctx, `
		INSERT INTO sessions(id, user_id, created_at, last_seen)
		VALUES(?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id, last_seen = excluded.last_seen`,
		sid, userID, now, now)
	return err
}

// User returns the user bound to sid.
func (r *SessionRepo) User(ctx context.Context, sid string) (*domain.User, error) {
	var u domain.User
	err := r.c.get(ctx, &u, `
		SELECT u.id, u.username, u.password_hash, u.role, u.created_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = ?`, sid)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFoundf("session not found")
		}
		return nil, err
	}
	return &u, nil
}

// LastSeen returns when sid was last used.
func (r *SessionRepo) LastSeen(ctx context.Context, sid string) (time.Time, error) {
	var seen time.Time
	err := r.c.get(ctx, &seen, `SELECT last_seen FROM sessions WHERE id = ?`, sid)
	if isNoRows(err) {
		return time.Time{}, domain.NotFoundf("session not found")
	}
	return seen, err
}

// Touch marks sid as used at now.
func (r *SessionRepo) Touch(ctx context.Context, sid string, now time.Time) error {
	_, err := r.c.exec(ctx, `UPDATE sessions SET last_seen = ? WHERE id = ?`, now.UTC(), sid)
	return err
}

func (r *SessionRepo) Unbind(ctx context.Context, sid string) error {
	_, err := r.c.exec(ctx, `DELETE FROM sessions WHERE id = ?`, sid)
	return err
}

func (r *SessionRepo) DeleteForUser(ctx context.Context, userID int64) error {
	_, err := r.c.exec(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	return err
}
