package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bytetech/academy-backend/internal/config"
	"github.com/bytetech/academy-backend/internal/mail"
	"github.com/bytetech/academy-backend/internal/middleware"
	"github.com/bytetech/academy-backend/internal/model"
	"github.com/bytetech/academy-backend/internal/repository"
	"github.com/bytetech/academy-backend/internal/utils"
)

// resetTokenTTLMin matches the persisted reset-row expiry so the signed
// token and the database row age out together.
const resetTokenTTLMin = 15

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Codes  *repository.CodeRepo
	Resets *repository.ResetRepo
	Mailer mail.Mailer
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, codes *repository.CodeRepo, resets *repository.ResetRepo, m mail.Mailer) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Codes: codes, Resets: resets, Mailer: m}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}
type verifyReq struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}
type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
type modifyReq struct {
	Username string `json:"username" validate:"omitempty,min=3,max=50"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=8,max=72"`
}
type requestResetReq struct {
	Email string `json:"email" validate:"required,email"`
}
type confirmResetReq struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

type userPart struct {
	ID         uint64 `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	IsSensei   bool   `json:"is_sensei"`
	IsVerified bool   `json:"is_verified"`
}

func toUserPart(u model.User) userPart {
	return userPart{ID: u.ID, Username: u.Username, Email: u.Email, IsSensei: u.IsSensei, IsVerified: u.IsVerified}
}

func claimsFor(u model.User) utils.Claims {
	return utils.Claims{
		UserID:     u.ID,
		Username:   u.Username,
		Email:      u.Email,
		IsSensei:   u.IsSensei,
		IsVerified: u.IsVerified,
	}
}

// issueCookies signs a fresh access/refresh pair for the user and sets
// both session cookies on the response.
func (h *AuthHandler) issueCookies(c echo.Context, u model.User) error {
	claims := claimsFor(u)
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, claims, h.Cfg.AccessTTLMin)
	if err != nil {
		return err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.JWTSecret, claims, h.Cfg.RefreshTTLDays)
	if err != nil {
		return err
	}
	middleware.SetTokenCookie(c, middleware.AccessCookie, access)
	middleware.SetTokenCookie(c, middleware.RefreshCookie, refresh)
	return nil
}

// Register creates an unverified account and starts a session right away.
// Verification is still required for learner routes; the 428 from
// RequireVerified tells the frontend to show the code prompt.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)

	ctx, cancel := reqContext(c)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Username, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email or username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	if err := h.issueCookies(c, u); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"user": toUserPart(u)})
}

// InitRegister creates the account and emails a verification code instead
// of opening a session; the pair completes with VerifyRegister.
func (h *AuthHandler) InitRegister(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)

	ctx, cancel := reqContext(c)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Username, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email or username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	code, err := h.Codes.Generate(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generate code failed"})
	}
	if err := h.Mailer.SendEmail(req.Email, "Verify your account", mail.VerificationBody(req.Username, code.Code)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "send verification mail failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "verification code sent"})
}

// VerifyRegister checks the emailed code, flips the account to verified
// and opens a session.
func (h *AuthHandler) VerifyRegister(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	status, _, err := h.Codes.Validate(ctx, strings.ToUpper(strings.TrimSpace(req.Code)), u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "validate code failed"})
	}
	switch status {
	case repository.CodeNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "code not found"})
	case repository.CodeExpired:
		return c.JSON(http.StatusGone, echo.Map{"error": "code expired"})
	}

	if err := h.Users.SetVerified(ctx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verify user failed"})
	}
	_ = h.Codes.Delete(ctx, strings.ToUpper(strings.TrimSpace(req.Code)))

	u.IsVerified = true
	if err := h.issueCookies(c, u); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": toUserPart(u)})
}

// Login verifies credentials and opens a session.  An unverified account
// answers 428 so the frontend can route to the verification prompt
// instead of showing a generic failure.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !u.IsVerified {
		return c.JSON(http.StatusPreconditionRequired, echo.Map{"error": "account not verified"})
	}

	if err := h.issueCookies(c, u); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": toUserPart(u)})
}

// Logout clears both session cookies.  Tokens stay valid until expiry;
// there is no server-side revocation list.
func (h *AuthHandler) Logout(c echo.Context) error {
	middleware.ClearAuthCookies(c)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the identity carried by the session cookie.
func (h *AuthHandler) Me(c echo.Context) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": userPart{
		ID:         claims.UserID,
		Username:   claims.Username,
		Email:      claims.Email,
		IsSensei:   claims.IsSensei,
		IsVerified: claims.IsVerified,
	}})
}

// ModifyCredentials updates username, email and/or password for the
// current user and re-issues cookies so the claims stay in sync.
func (h *AuthHandler) ModifyCredentials(c echo.Context) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req modifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Username == "" && req.Email == "" && req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	var hash string
	if req.Password != "" {
		var err error
		hash, err = utils.HashPassword(req.Password, h.Cfg.BcryptCost)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
		}
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	err := h.Users.UpdateCredentials(ctx, claims.UserID, strings.TrimSpace(req.Username), strings.ToLower(strings.TrimSpace(req.Email)), hash)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email or username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	u, err := h.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	if err := h.issueCookies(c, u); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": toUserPart(u)})
}

// BecomeSensei grants authoring privileges to the current user and
// re-issues cookies so the new flag lands in the claims right away.
func (h *AuthHandler) BecomeSensei(c echo.Context) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Users.SetSensei(ctx, claims.UserID, true); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	u, err := h.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	if err := h.issueCookies(c, u); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": toUserPart(u)})
}

// DeleteAccount removes the current user and ends the session.  Foreign
// keys cascade to purchases, progress rows and forum content; authored
// courses disappear with their sensei.
func (h *AuthHandler) DeleteAccount(c echo.Context) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Users.Delete(ctx, claims.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	middleware.ClearAuthCookies(c)
	return c.NoContent(http.StatusNoContent)
}

// RequestReset emails a password-reset link.  The token is a short-lived
// signed JWT that is also persisted, so confirming a reset invalidates it
// even before the signature expires.
func (h *AuthHandler) RequestReset(c echo.Context) error {
	var req requestResetReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	tok, err := utils.NewResetToken(h.Cfg.JWTSecret, claimsFor(u), resetTokenTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	if _, err := h.Resets.Save(ctx, u.ID, tok.Token); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save reset token failed"})
	}
	if err := h.Mailer.SendEmail(u.Email, "Reset your password", mail.ResetBody(u.Username, h.Cfg.FrontendURL, tok.Token)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "send reset mail failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "reset link sent"})
}

// ConfirmReset validates the reset token (signature and stored row) and
// sets the new password.  The row is deleted afterwards so the link is
// single-use.
func (h *AuthHandler) ConfirmReset(c echo.Context) error {
	var req confirmResetReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	tokenClaims, err := utils.VerifyToken(h.Cfg.JWTSecret, req.Token)
	if err != nil {
		if errors.Is(err, utils.ErrExpiredToken) {
			return c.JSON(http.StatusGone, echo.Map{"error": "reset token expired"})
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid reset token"})
	}
	if tokenClaims.Subject != utils.SubjectPasswordReset {
		// Session tokens must not double as reset links.
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid reset token"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	status, row, err := h.Resets.Validate(ctx, req.Token)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "validate token failed"})
	}
	switch status {
	case repository.CodeNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reset token not found"})
	case repository.CodeExpired:
		return c.JSON(http.StatusGone, echo.Map{"error": "reset token expired"})
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}
	if err := h.Users.UpdatePasswordHash(ctx, row.UserID, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update password failed"})
	}
	if err := h.Resets.Delete(ctx, req.Token); err != nil {
		log.Printf("auth: delete used reset token: %v", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}
