package middleware // middleware provides shared request processing for handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bytetech/academy-backend/internal/config"
	"github.com/bytetech/academy-backend/internal/utils"
)

// Cookie names carrying the signed tokens.
const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

// claimsKey is the context key under which validated claims are stored.
const claimsKey = "claims"

// Session returns middleware that authenticates a request from its token
// cookies.  The flow per request:
//
//  1. Neither cookie present          -> 401.
//  2. Access token present and valid  -> proceed with its claims.
//  3. Access absent/expired, refresh
//     valid                           -> mint a new access token, attach it
//     to the outgoing response as a cookie (silent renewal) and proceed.
//  4. Refresh invalid/expired too     -> 401.
//
// Validation is stateless: claims are self-contained and no database read
// happens here.
func Session(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := authenticate(c, cfg)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized, login"})
			}
			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// SessionOptional behaves like Session but lets unauthenticated requests
// through with no claims attached.  Handlers on optional routes must check
// HasClaims before reading identity.
func SessionOptional(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if claims, ok := authenticate(c, cfg); ok {
				c.Set(claimsKey, claims)
			}
			return next(c)
		}
	}
}

// authenticate implements the token check / silent renewal state machine.
// It reports false when neither token yields a usable identity.
func authenticate(c echo.Context, cfg config.Config) (utils.Claims, bool) {
	access := readCookie(c, AccessCookie)
	refresh := readCookie(c, RefreshCookie)
	if access == "" && refresh == "" {
		return utils.Claims{}, false
	}

	if access != "" {
		claims, err := utils.VerifyToken(cfg.JWTSecret, access)
		if err == nil {
			if claims.Subject == utils.SubjectPasswordReset {
				// Reset tokens carry identity but are not sessions.
				return utils.Claims{}, false
			}
			return claims, true
		}
		if err != utils.ErrExpiredToken {
			// Bad signature or malformed: do not fall through to the
			// refresh token, the client is sending garbage.
			return utils.Claims{}, false
		}
	}

	if refresh == "" {
		return utils.Claims{}, false
	}
	claims, err := utils.VerifyToken(cfg.JWTSecret, refresh)
	if err != nil || claims.Subject == utils.SubjectPasswordReset {
		return utils.Claims{}, false
	}

	// Silent renewal: mint a fresh access token from the refresh claims and
	// hand it back on the response.  The caller is never asked to
	// re-authenticate as long as the refresh token is live.
	renewed, err := utils.NewAccessToken(cfg.JWTSecret, claims, cfg.AccessTTLMin)
	if err != nil {
		return utils.Claims{}, false
	}
	SetTokenCookie(c, AccessCookie, renewed)
	return claims, true
}

// GetClaims returns the validated claims attached by Session middleware.
func GetClaims(c echo.Context) (utils.Claims, bool) {
	claims, ok := c.Get(claimsKey).(utils.Claims)
	return claims, ok
}

func readCookie(c echo.Context, name string) string {
	ck, err := c.Cookie(name)
	if err != nil || ck == nil {
		return ""
	}
	return ck.Value
}

// SetTokenCookie attaches a signed token to the response as an HTTP-only
// cookie whose max-age matches the token expiry.
func SetTokenCookie(c echo.Context, name string, tok utils.SignedToken) {
	maxAge := int(time.Until(tok.Exp).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    tok.Token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearAuthCookies expires both token cookies.  Logout is purely
// client-side: tokens stay valid until their embedded expiry.
func ClearAuthCookies(c echo.Context) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
