// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// parsing driver error strings at the HTTP boundary.
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bytetech/academy-backend/internal/database"
)

// ErrNotFound is returned when a requested entity does not exist.
// Handlers translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an insert or delete cannot proceed because
// of conflicting state. Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when registration hits the unique key on
// users.email or users.username.
var ErrEmailExists = errors.New("email or username already exists")

// ErrCodeGenerationExhausted is returned when five consecutive attempts to
// generate a non-colliding verification code all failed.
var ErrCodeGenerationExhausted = errors.New("verification code generation exhausted")

// isDuplicate reports whether err is a MySQL duplicate-key violation
// (error 1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}

// withRetry applies the default transient-connection retry policy to a
// repository operation.  Business errors pass through on the first attempt.
func withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.WithRetry(ctx, database.DefaultRetryPolicy(), fn)
}
