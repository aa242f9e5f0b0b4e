package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bytetech/academy-backend/internal/model"
	"github.com/bytetech/academy-backend/internal/utils"
)

// CodeStatus is the three-way result of validating a verification code.
// Callers must distinguish "wrong code" from "right code, too late": the
// latter should prompt a resend rather than a generic error.
type CodeStatus int

const (
	CodeNotFound CodeStatus = iota
	CodeExpired
	CodeValid
)

// codeTTL is how long a verification code stays usable after issuance.
const codeTTL = 15 * time.Minute

// codeGenerationAttempts bounds retries when a freshly generated code
// collides with one already stored.  Collisions are rare but possible in a
// 36^6 space, so generation is retried instead of failing outright.
const codeGenerationAttempts = 5

// CodeRepo persists email verification codes in 'verification_codes'.
type CodeRepo struct{ DB *sql.DB }

func NewCodeRepo(db *sql.DB) *CodeRepo { return &CodeRepo{DB: db} }

// Generate produces a 6-character code for the user, retrying up to five
// times when the value collides with any stored code.  On success the row
// is persisted with a fifteen-minute expiry and expired rows are swept
// opportunistically.  Fails with ErrCodeGenerationExhausted after five
// collisions.
func (r *CodeRepo) Generate(ctx context.Context, userID uint64) (model.VerificationCode, error) {
	for attempt := 0; attempt < codeGenerationAttempts; attempt++ {
		code, err := utils.NewVerificationCode(6)
		if err != nil {
			return model.VerificationCode{}, err
		}

		var exists bool
		err = withRetry(ctx, func(ctx context.Context) error {
			return r.DB.QueryRowContext(ctx,
				"SELECT EXISTS(SELECT 1 FROM verification_codes WHERE code=?)", code).Scan(&exists)
		})
		if err != nil {
			return model.VerificationCode{}, err
		}
		if exists {
			continue
		}

		now := time.Now().UTC()
		rec := model.VerificationCode{
			UserID:    userID,
			Code:      code,
			CreatedAt: now,
			ExpiresAt: now.Add(codeTTL),
		}
		err = withRetry(ctx, func(ctx context.Context) error {
			res, err := r.DB.ExecContext(ctx,
				"INSERT INTO verification_codes (user_id, code, created_at, expires_at) VALUES (?,?,?,?)",
				rec.UserID, rec.Code, rec.CreatedAt, rec.ExpiresAt)
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
		if isDuplicate(err) {
			// Lost a race with a concurrent issuance of the same value.
			continue
		}
		if err != nil {
			return model.VerificationCode{}, err
		}

		// Opportunistic sweep; correctness relies on the expiry check at
		// validation time, so a failed sweep is only logged upstream.
		_ = r.DeleteExpired(ctx)
		return rec, nil
	}
	return model.VerificationCode{}, ErrCodeGenerationExhausted
}

// Validate looks up a code for a user and reports whether it is valid,
// expired, or unknown.
func (r *CodeRepo) Validate(ctx context.Context, code string, userID uint64) (CodeStatus, model.VerificationCode, error) {
	var rec model.VerificationCode
	err := withRetry(ctx, func(ctx context.Context) error {
		return r.DB.QueryRowContext(ctx,
			"SELECT id, user_id, code, created_at, expires_at FROM verification_codes WHERE code=? AND user_id=? LIMIT 1",
			code, userID).Scan(&rec.ID, &rec.UserID, &rec.Code, &rec.CreatedAt, &rec.ExpiresAt)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return CodeNotFound, model.VerificationCode{}, nil
	}
	if err != nil {
		return CodeNotFound, model.VerificationCode{}, err
	}
	if !time.Now().UTC().Before(rec.ExpiresAt) {
		return CodeExpired, rec, nil
	}
	return CodeValid, rec, nil
}

// Delete removes a code after successful verification.
func (r *CodeRepo) Delete(ctx context.Context, code string) error {
	return withRetry(ctx, func(ctx context.Context) error {
		_, err := r.DB.ExecContext(ctx, "DELETE FROM verification_codes WHERE code=?", code)
		return err
	})
}

// DeleteExpired removes rows whose expiry has passed.
func (r *CodeRepo) DeleteExpired(ctx context.Context) error {
	return withRetry(ctx, func(ctx context.Context) error {
		_, err := r.DB.ExecContext(ctx,
			"DELETE FROM verification_codes WHERE expires_at <= UTC_TIMESTAMP()")
		return err
	})
}
