// Package mail sends transactional email over SMTP.  Delivery is
// synchronous and best-effort; callers decide whether a failure aborts the
// request or is only logged.
package mail

import (
	"fmt"
	"net/smtp"

	"github.com/bytetech/academy-backend/internal/config"
)

// Mailer sends plain-text email.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

type mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
}

// NewMailer builds an SMTP mailer from app config.
func NewMailer(cfg config.Config) Mailer {
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUser,
		password: cfg.SMTPPassword,
	}
}

func (m *mailer) SendEmail(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
}

// VerificationBody renders the plain-text verification mail.
func VerificationBody(username, code string) string {
	return fmt.Sprintf(
		"Hi %s,\n\nYour verification code is: %s\n\nIt expires in 15 minutes.\n",
		username, code)
}

// ResetBody renders the plain-text password-reset mail with the link the
// frontend turns into a reset form.
func ResetBody(username, frontendURL, token string) string {
	return fmt.Sprintf(
		"Hi %s,\n\nReset your password here: %s/reset-password?token=%s\n\nThe link expires in 15 minutes. If you did not request this, ignore this mail.\n",
		username, frontendURL, token)
}
