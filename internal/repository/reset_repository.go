package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bytetech/academy-backend/internal/model"
)

// resetTTL mirrors the verification code lifetime.
const resetTTL = 15 * time.Minute

// ResetRepo persists password-reset tokens in 'reset_tokens'.  The token
// value is a signed JWT that is independently verifiable; the row exists so
// an issued token can be looked up and explicitly invalidated.
type ResetRepo struct{ DB *sql.DB }

func NewResetRepo(db *sql.DB) *ResetRepo { return &ResetRepo{DB: db} }

// Save persists a freshly issued reset token with a fifteen-minute expiry
// and sweeps expired rows opportunistically.
func (r *ResetRepo) Save(ctx context.Context, userID uint64, token string) (model.ResetToken, error) {
	now := time.Now().UTC()
	rec := model.ResetToken{
		UserID:    userID,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(resetTTL),
	}
	err := withRetry(ctx, func(ctx context.Context) error {
		res, err := r.DB.ExecContext(ctx,
			"INSERT INTO reset_tokens (user_id, token, created_at, expires_at) VALUES (?,?,?,?)",
			rec.UserID, rec.Token, rec.CreatedAt, rec.ExpiresAt)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		rec.ID = uint64(id)
		return nil
	})
	if err != nil {
		return model.ResetToken{}, err
	}
	_ = r.DeleteExpired(ctx)
	return rec, nil
}

// Validate reports whether a stored reset token is valid, expired, or
// unknown.  The caller still verifies the token's signature separately;
// the table lookup only enables explicit invalidation.
func (r *ResetRepo) Validate(ctx context.Context, token string) (CodeStatus, model.ResetToken, error) {
	var rec model.ResetToken
	err := withRetry(ctx, func(ctx context.Context) error {
		return r.DB.QueryRowContext(ctx,
			"SELECT id, user_id, token, created_at, expires_at FROM reset_tokens WHERE token=? LIMIT 1",
			token).Scan(&rec.ID, &rec.UserID, &rec.Token, &rec.CreatedAt, &rec.ExpiresAt)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return CodeNotFound, model.ResetToken{}, nil
	}
	if err != nil {
		return CodeNotFound, model.ResetToken{}, err
	}
	if !time.Now().UTC().Before(rec.ExpiresAt) {
		return CodeExpired, rec, nil
	}
	return CodeValid, rec, nil
}

// Delete invalidates a reset token after use.
func (r *ResetRepo) Delete(ctx context.Context, token string) error {
	return withRetry(ctx, func(ctx context.Context) error {
		_, err := r.DB.ExecContext(ctx, "DELETE FROM reset_tokens WHERE token=?", token)
		return err
	})
}

// DeleteExpired removes rows whose expiry has passed.
func (r *ResetRepo) DeleteExpired(ctx context.Context) error {
	return withRetry(ctx, func(ctx context.Context) error {
		_, err := r.DB.ExecContext(ctx,
			"DELETE FROM reset_tokens WHERE expires_at <= UTC_TIMESTAMP()")
		return err
	})
}
