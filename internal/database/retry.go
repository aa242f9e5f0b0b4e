package database

// retry.go implements the retry policy applied at the data-access boundary.
// Only connection-level failures are retried; business errors (no rows,
// duplicate keys, constraint violations) propagate immediately.

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"
	"time"
)

// ErrRetryExhausted is returned when every attempt of a retried operation
// failed with a transient connection error.
var ErrRetryExhausted = errors.New("database retry attempts exhausted")

// RetryPolicy bounds how often and how long a transient connection failure
// is retried.  Delay doubles after each attempt.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     float64
}

// DefaultRetryPolicy matches the behaviour the service has always had:
// three extra attempts starting at one second, doubling each time.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: time.Second, Backoff: 2.0}
}

// WithRetry runs fn, retrying when it fails with a transient connection
// error.  The last transient error is wrapped in ErrRetryExhausted once the
// attempt budget is spent.  Non-transient errors return unchanged on the
// first occurrence.
func WithRetry(ctx context.Context, p RetryPolicy, fn func(ctx context.Context) error) error {
	delay := p.Delay
	var last error
	for attempt := 0; attempt <= p.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		last = err
		if attempt == p.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * p.Backoff)
	}
	return errors.Join(ErrRetryExhausted, last)
}

// transientMarkers are substrings seen in driver errors when the server or
// a proxy drops the connection mid-flight.
var transientMarkers = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"invalid connection",
	"server closed the connection",
	"ssl connection has been closed",
	"i/o timeout",
}

// IsTransient reports whether err looks like a recoverable connection-level
// failure rather than a query or constraint error.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
