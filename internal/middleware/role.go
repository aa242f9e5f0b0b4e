package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireSensei aborts with 403 unless the authenticated user carries the
// course-authoring flag.  It assumes Session middleware already ran.
func RequireSensei() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := GetClaims(c)
			if !ok || !claims.IsSensei {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "sensei role required"})
			}
			return next(c)
		}
	}
}

// RequireVerified aborts with 428 until the user confirms their email.
// 428 rather than 403 so clients can distinguish "verify first" from a
// genuine permission problem and prompt for the code.
func RequireVerified() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := GetClaims(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized, login"})
			}
			if !claims.IsVerified {
				return c.JSON(http.StatusPreconditionRequired, echo.Map{"error": "account not verified"})
			}
			return next(c)
		}
	}
}
