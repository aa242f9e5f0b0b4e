package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond, Backoff: 2.0}
}

func TestWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastPolicy(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return driver.ErrBadConn
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_DoesNotRetryBusinessErrors(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastPolicy(), func(ctx context.Context) error {
		calls++
		return sql.ErrNoRows
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_ExhaustsBudget(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastPolicy(), func(ctx context.Context) error {
		calls++
		return errors.New("dial tcp: connection refused")
	})
	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.Equal(t, 4, calls) // initial attempt + 3 retries
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(driver.ErrBadConn))
	assert.True(t, IsTransient(errors.New("SSL connection has been closed unexpectedly")))
	assert.True(t, IsTransient(errors.New("write: broken pipe")))
	assert.False(t, IsTransient(sql.ErrNoRows))
	assert.False(t, IsTransient(errors.New("Error 1062: Duplicate entry")))
	assert.False(t, IsTransient(nil))
}
