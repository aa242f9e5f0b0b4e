package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/bytetech/academy-backend/internal/model"
	"github.com/bytetech/academy-backend/internal/utils"
)

// UserRepo persists user records in the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,username,email,password_hash,is_sensei,is_verified,created_at,updated_at"

// Create inserts an unverified user and returns its ID.  Registration
// conflicts on email or username surface as ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, username, email, password string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	var id uint64
	err = withRetry(ctx, func(ctx context.Context) error {
		res, err := r.DB.ExecContext(ctx,
			"INSERT INTO users (username, email, password_hash, is_sensei, is_verified) VALUES (?,?,?,false,false)",
			username, email, hash)
		if err != nil {
			if isDuplicate(err) {
				return ErrEmailExists
			}
			return err
		}
		last, err := res.LastInsertId()
		if err != nil {
			return err
		}
		id = uint64(last)
		return nil
	})
	return id, err
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := withRetry(ctx, func(ctx context.Context) error {
		return r.DB.QueryRowContext(ctx,
			"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1",
			email).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsSensei, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := withRetry(ctx, func(ctx context.Context) error {
		return r.DB.QueryRowContext(ctx,
			"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1",
			id).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsSensei, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// UpdateCredentials overwrites username, email and password hash for a
// user.  Empty fields keep their current value.
func (r *UserRepo) UpdateCredentials(ctx context.Context, id uint64, username, email, passwordHash string) error {
	return withRetry(ctx, func(ctx context.Context) error {
		_, err := r.DB.ExecContext(ctx,
			`UPDATE users SET
				username      = COALESCE(NULLIF(?, ''), username),
				email         = COALESCE(NULLIF(?, ''), email),
				password_hash = COALESCE(NULLIF(?, ''), password_hash)
			 WHERE id=?`,
			username, strings.ToLower(strings.TrimSpace(email)), passwordHash, id)
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	})
}

// UpdatePasswordHash replaces only the stored password hash.
func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id uint64, hash string) error {
	return withRetry(ctx, func(ctx context.Context) error {
		_, err := r.DB.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE id=?", hash, id)
		return err
	})
}

// SetVerified flips the verification flag after a successful code check.
func (r *UserRepo) SetVerified(ctx context.Context, id uint64) error {
	return withRetry(ctx, func(ctx context.Context) error {
		_, err := r.DB.ExecContext(ctx, "UPDATE users SET is_verified=true WHERE id=?", id)
		return err
	})
}

// SetSensei grants or removes course-authoring privileges.
func (r *UserRepo) SetSensei(ctx context.Context, id uint64, isSensei bool) error {
	return withRetry(ctx, func(ctx context.Context) error {
		_, err := r.DB.ExecContext(ctx, "UPDATE users SET is_sensei=? WHERE id=?", isSensei, id)
		return err
	})
}

// Delete removes a user.  Foreign keys cascade to purchases, progress rows
// and forum content.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	return withRetry(ctx, func(ctx context.Context) error {
		res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}
