package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog/log"
	"rbac/internal/platform/config"
)

// Sender delivers a single message. Implementations must not block longer
// than an ordinary SMTP exchange; callers decide whether a failure aborts
// the surrounding operation.
type Sender interface {
	Send(to, subject, body string) error
}

type SMTPMailer struct {
	cfg config.SMTPConfig
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		m.cfg.FromName, m.cfg.FromAddress, to, subject, body)

	if err := smtp.SendMail(addr, auth, m.cfg.FromAddress, []string{to}, []byte(msg)); err != nil {
		log.Error().Err(err).Str("to", to).Msg("failed to send email")
		return err
	}
	return nil
}

// NoopMailer discards messages. Used when email is disabled and in tests.
type NoopMailer struct{}

func (NoopMailer) Send(to, subject, body string) error {
	log.Debug().Str("to", to).Str("subject", subject).Msg("email delivery disabled, dropping message")
	return nil
}

// VerificationEmail renders the email-verification message body.
func VerificationEmail(code string) (subject, body string) {
	subject = "Email Verification"
	body = fmt.Sprintf(`<html>
<body>
	<h2>Email Verification</h2>
	<p>Thank you for registering!</p>
	<p>Your verification code is: <strong>%s</strong></p>
	<p>This code will expire in 10 minutes.</p>
	<p>If you didn't request this verification, please ignore this email.</p>
</body>
</html>`, code)
	return subject, body
}

// PasswordResetEmail renders the password-reset message body.
func PasswordResetEmail(code string) (subject, body string) {
	subject = "Password Reset"
	body = fmt.Sprintf(`<html>
<body>
	<h2>Password Reset Request</h2>
	<p>You have requested to reset your password.</p>
	<p>Your reset code is: <strong>%s</strong></p>
	<p>This code will expire in 10 minutes.</p>
	<p>If you didn't request this reset, please ignore this email.</p>
</body>
</html>`, code)
	return subject, body
}
