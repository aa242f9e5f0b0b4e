package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bytetech/academy-backend/internal/config"
	"github.com/bytetech/academy-backend/internal/mail"
	"github.com/bytetech/academy-backend/internal/middleware"
)

// SupportHandler forwards contact-form submissions to the support inbox.
type SupportHandler struct {
	Cfg    config.Config
	Mailer mail.Mailer
}

func NewSupportHandler(cfg config.Config, m mail.Mailer) *SupportHandler {
	return &SupportHandler{Cfg: cfg, Mailer: m}
}

type supportReq struct {
	Subject string `json:"subject" validate:"required,max=255"`
	Body    string `json:"body" validate:"required,max=10000"`
}

// SendEmail relays the submission to the platform's From address with
// the sender's account details prepended.
func (h *SupportHandler) SendEmail(c echo.Context) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req supportReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	body := fmt.Sprintf("From user %s <%s> (id %d):\n\n%s", claims.Username, claims.Email, claims.UserID, req.Body)
	if err := h.Mailer.SendEmail(h.Cfg.SMTPFrom, "[support] "+req.Subject, body); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "send mail failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "support request sent"})
}
