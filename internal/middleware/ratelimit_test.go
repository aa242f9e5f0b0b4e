package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/bytetech/academy-backend/internal/config"
	"github.com/bytetech/academy-backend/internal/utils"
)

func limiterContext(t *testing.T) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/courses/catalog", nil)
	req.RemoteAddr = "203.0.113.9:4000"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/courses/catalog")
	return c
}

func TestBucketKey_AnonymousWithoutSession(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user_route"}
	c := limiterContext(t)

	// No Session middleware ran, so the user component is the anon marker.
	assert.Equal(t, "rl:ip:203.0.113.9:user:anon:route:GET /v1/courses/catalog", bucketKey(cfg, c))
}

func TestBucketKey_UsesClaimsWhenSessionRanFirst(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user_route"}
	c := limiterContext(t)
	c.Set(claimsKey, utils.Claims{UserID: 7})

	assert.Equal(t, "rl:user:7:route:GET /v1/courses/catalog", bucketKey(cfg, c))
}

func TestBucketKey_IPOnlyStrategy(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}
	c := limiterContext(t)
	c.Set(claimsKey, utils.Claims{UserID: 7})

	// Identity never leaks into IP-only buckets.
	assert.Equal(t, "rl:ip:203.0.113.9", bucketKey(cfg, c))
}

func TestTokenBucket_DisabledIsPassThrough(t *testing.T) {
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil)
	c := limiterContext(t)

	called := false
	err := mw(func(echo.Context) error { called = true; return nil })(c)
	assert.NoError(t, err)
	assert.True(t, called)
}
