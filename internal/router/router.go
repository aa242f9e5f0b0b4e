// Package router maps URL paths to handlers and applies the middleware
// each route group needs.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/bytetech/academy-backend/internal/config"
	"github.com/bytetech/academy-backend/internal/handler"
	"github.com/bytetech/academy-backend/internal/middleware"
)

// RegisterHealth exposes the liveness and readiness probes.  These take
// no auth so load balancers can hit them directly.
func RegisterHealth(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.HealthDB(db))
}

// RegisterAuth wires the account lifecycle.  The /v1/auth group is
// public; profile routes sit behind the session middleware.
func RegisterAuth(e *echo.Echo, cfg config.Config, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/init-register", a.InitRegister)
	g.POST("/verify-register", a.VerifyRegister)
	g.POST("/login", a.Login)
	g.POST("/logout", a.Logout)
	g.POST("/request-reset", a.RequestReset)
	g.POST("/confirm-reset", a.ConfirmReset)

	auth := e.Group("/v1", middleware.Session(cfg))
	auth.GET("/me", a.Me)
	auth.PUT("/me/credentials", a.ModifyCredentials)
	auth.POST("/me/sensei", a.BecomeSensei)
	auth.DELETE("/me", a.DeleteAccount)
}

// RegisterPublic wires routes any visitor may call.  The catalog runs
// with an optional session so owned-course flags appear for logged-in
// users, and with the Redis response cache when one is configured.
func RegisterPublic(e *echo.Echo, cfg config.Config, ch *handler.CourseHandler, cacheMW echo.MiddlewareFunc) {
	catalog := e.Group("/v1/courses", middleware.SessionOptional(cfg))
	if cacheMW != nil {
		catalog.GET("/catalog", ch.Catalog, cacheMW)
	} else {
		catalog.GET("/catalog", ch.Catalog)
	}
}

// RegisterWebhook exposes the payment gateway callback.  Authentication
// is the signature check inside the handler, not a session.
func RegisterWebhook(e *echo.Echo, p *handler.PaymentHandler) {
	e.POST("/v1/payment/webhook", p.Webhook)
}
