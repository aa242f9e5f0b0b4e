package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytetech/academy-backend/internal/config"
	"github.com/bytetech/academy-backend/internal/utils"
)

func testConfig() config.Config {
	return config.Config{JWTSecret: "session-test-secret", AccessTTLMin: 30, RefreshTTLDays: 15}
}

func sessionClaims() utils.Claims {
	return utils.Claims{UserID: 7, Username: "aiko", Email: "aiko@example.com", IsVerified: true}
}

// expiredToken signs a token that went stale an hour ago.
func expiredToken(t *testing.T, secret string) string {
	t.Helper()
	claims := sessionClaims()
	now := time.Now().UTC()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

// doRequest runs one request through Session plus a probe handler that
// reports the authenticated user id.
func doRequest(t *testing.T, mw echo.MiddlewareFunc, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := mw(func(c echo.Context) error {
		if claims, ok := GetClaims(c); ok {
			return c.JSON(http.StatusOK, echo.Map{"user_id": claims.UserID})
		}
		return c.JSON(http.StatusOK, echo.Map{"user_id": nil})
	})
	require.NoError(t, h(c))
	return rec
}

func TestSession_NoTokens(t *testing.T) {
	rec := doRequest(t, Session(testConfig()))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSession_ValidAccess(t *testing.T) {
	cfg := testConfig()
	access, err := utils.NewAccessToken(cfg.JWTSecret, sessionClaims(), cfg.AccessTTLMin)
	require.NoError(t, err)

	rec := doRequest(t, Session(cfg), &http.Cookie{Name: AccessCookie, Value: access.Token})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":7`)
	// No renewal happened, so no new cookie is attached.
	assert.Empty(t, rec.Result().Cookies())
}

func TestSession_SilentRenewal(t *testing.T) {
	cfg := testConfig()
	refresh, err := utils.NewRefreshToken(cfg.JWTSecret, sessionClaims(), cfg.RefreshTTLDays)
	require.NoError(t, err)

	rec := doRequest(t, Session(cfg),
		&http.Cookie{Name: AccessCookie, Value: expiredToken(t, cfg.JWTSecret)},
		&http.Cookie{Name: RefreshCookie, Value: refresh.Token},
	)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":7`)

	var renewed *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == AccessCookie {
			renewed = ck
		}
	}
	require.NotNil(t, renewed, "expected a renewed access_token cookie")
	got, err := utils.VerifyToken(cfg.JWTSecret, renewed.Value)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), got.UserID)
	assert.True(t, renewed.HttpOnly)
}

func TestSession_RefreshOnlyAlsoRenews(t *testing.T) {
	cfg := testConfig()
	refresh, err := utils.NewRefreshToken(cfg.JWTSecret, sessionClaims(), cfg.RefreshTTLDays)
	require.NoError(t, err)

	rec := doRequest(t, Session(cfg), &http.Cookie{Name: RefreshCookie, Value: refresh.Token})
	assert.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, AccessCookie, cookies[0].Name)
}

func TestSession_BothExpired(t *testing.T) {
	cfg := testConfig()
	rec := doRequest(t, Session(cfg),
		&http.Cookie{Name: AccessCookie, Value: expiredToken(t, cfg.JWTSecret)},
		&http.Cookie{Name: RefreshCookie, Value: expiredToken(t, cfg.JWTSecret)},
	)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSession_TamperedAccessDoesNotFallBack(t *testing.T) {
	cfg := testConfig()
	refresh, err := utils.NewRefreshToken(cfg.JWTSecret, sessionClaims(), cfg.RefreshTTLDays)
	require.NoError(t, err)

	rec := doRequest(t, Session(cfg),
		&http.Cookie{Name: AccessCookie, Value: "tampered.token.value"},
		&http.Cookie{Name: RefreshCookie, Value: refresh.Token},
	)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSession_ResetTokenIsNotASession(t *testing.T) {
	cfg := testConfig()
	reset, err := utils.NewResetToken(cfg.JWTSecret, sessionClaims(), 15)
	require.NoError(t, err)

	// A reset link's token must not open a session from either cookie.
	rec := doRequest(t, Session(cfg), &http.Cookie{Name: AccessCookie, Value: reset.Token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, Session(cfg), &http.Cookie{Name: RefreshCookie, Value: reset.Token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionOptional_Anonymous(t *testing.T) {
	rec := doRequest(t, SessionOptional(testConfig()))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":null`)
}

func TestSessionOptional_Authenticated(t *testing.T) {
	cfg := testConfig()
	access, err := utils.NewAccessToken(cfg.JWTSecret, sessionClaims(), cfg.AccessTTLMin)
	require.NoError(t, err)

	rec := doRequest(t, SessionOptional(cfg), &http.Cookie{Name: AccessCookie, Value: access.Token})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":7`)
}
